package pdf

import (
	"regexp"
	"strconv"
	"strings"

	perr "idcardocr/internal/platform/errors"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Line is one positioned paragraph from MuPDF's HTML output
type Line struct {
	Top  float64 // points from the page top
	Text string
}

// Page is the positioned text of one page
type Page struct {
	Height float64 // points, zero when unknown
	Lines  []Line
}

var (
	topRe    = regexp.MustCompile(`(?:^|;)\s*top:\s*([0-9.]+)pt`)
	heightRe = regexp.MustCompile(`(?:^|;)\s*height:\s*([0-9.]+)pt`)
)

// ParseHTML reads MuPDF's stext HTML: a page div with a height style and
// absolutely positioned <p> elements carrying a top offset
func ParseHTML(src string) (Page, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return Page{}, perr.Wrap(err, perr.ErrorCodeUnknown, "parse page html")
	}
	var p Page
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Div:
				if p.Height == 0 {
					if h, ok := styleValue(n, heightRe); ok {
						p.Height = h
					}
				}
			case atom.P:
				if top, ok := styleValue(n, topRe); ok {
					if t := strings.TrimSpace(nodeText(n)); t != "" {
						p.Lines = append(p.Lines, Line{Top: top, Text: t})
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return p, nil
}

// Between joins the lines whose top lies in [top, bottom) fractions of the height
// With no known height every line is returned
func (p Page) Between(top, bottom float64) string {
	var b strings.Builder
	for _, l := range p.Lines {
		if p.Height > 0 {
			f := l.Top / p.Height
			if f < top || f >= bottom {
				continue
			}
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

func styleValue(n *html.Node, re *regexp.Regexp) (float64, bool) {
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		m := re.FindStringSubmatch(a.Val)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		return v, err == nil
	}
	return 0, false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
