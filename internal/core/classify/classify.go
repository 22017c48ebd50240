// Package classify decides which of two card images is the front by scoring
// their text against label keywords and the validity-period date pattern
package classify

import (
	"context"
	"image"
	"regexp"
	"strings"
	"unicode/utf8"

	"idcardocr/internal/core/card"
	"idcardocr/internal/platform/logger"
)

// Keyword sets printed on second-generation resident ID cards
var (
	FrontKeywords = []string{"姓名", "性别", "民族", "出生", "住址", "公民身份号码", "身份证"}
	BackKeywords  = []string{"签发机关", "有效期限", "发证机关", "签发", "有效"}
)

// DateRangeWeight is how much a validity-period match counts toward the back
const DateRangeWeight = 2

// MinTextLength is the rune count under which extracted text is considered empty
const MinTextLength = 20

// validityRange matches "2020.01.01-2030.01.01" and "2020年01月01日 2030年01月01日" style ranges
var validityRange = regexp.MustCompile(`\d{4}[.\s年]+\d{1,2}[.\s月]+\d{1,2}[-日\s]+\d{4}[.\s年]+\d{1,2}[.\s月]+\d{1,2}`)

// Score is the keyword tally of one page or half page
type Score struct {
	Front     int
	Back      int
	DateRange bool
}

// Margin is positive for front, negative for back
func (s Score) Margin() int { return s.Front - s.Back }

// Side maps the margin sign to a card side; zero is Unknown
func (s Score) Side() card.Side {
	switch m := s.Margin(); {
	case m > 0:
		return card.Front
	case m < 0:
		return card.Back
	}
	return card.Unknown
}

// ScoreText tallies keyword presence and the date range bonus
// Each keyword counts once however often it appears
func ScoreText(text string) Score {
	t := Normalize(text)
	var s Score
	for _, k := range FrontKeywords {
		if strings.Contains(t, k) {
			s.Front++
		}
	}
	for _, k := range BackKeywords {
		if strings.Contains(t, k) {
			s.Back++
		}
	}
	if validityRange.MatchString(t) {
		s.DateRange = true
		s.Back += DateRangeWeight
	}
	return s
}

// TextRecognizer turns an image into text when the PDF has no usable text layer
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Region is one candidate face: its embedded text plus an optional render for OCR
type Region struct {
	Label string
	Text  string
	Image image.Image
}

// Result is the classification of one Region
type Result struct {
	Label   string
	Side    card.Side
	Score   Score
	UsedOCR bool
}

// Margin of the underlying score
func (r Result) Margin() int { return r.Score.Margin() }

// Classifier scores regions, falling back to OCR for short text
type Classifier struct {
	ocr    TextRecognizer
	minLen int
	log    *logger.Logger
}

// New returns a Classifier; ocr may be nil to disable the fallback
func New(ocr TextRecognizer, log *logger.Logger) *Classifier {
	return &Classifier{ocr: ocr, minLen: MinTextLength, log: logger.OrNamed(log, "classify")}
}

// Classify scores r, using OCR text when the embedded text is too short
// OCR failures are logged and the embedded text is scored instead
func (c *Classifier) Classify(ctx context.Context, r Region) Result {
	text := r.Text
	used := false
	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.minLen && c.ocr != nil && r.Image != nil {
		c.log.Debug().Str("region", r.Label).Int("runes", utf8.RuneCountInString(text)).Msg("text layer too short, using OCR")
		if t, err := c.ocr.Recognize(ctx, r.Image); err != nil {
			c.log.Warn().Err(err).Str("region", r.Label).Msg("OCR fallback failed")
		} else {
			text, used = t, true
		}
	}
	s := ScoreText(text)
	res := Result{Label: r.Label, Side: s.Side(), Score: s, UsedOCR: used}
	c.log.Debug().
		Str("region", r.Label).
		Int("front", s.Front).
		Int("back", s.Back).
		Bool("date_range", s.DateRange).
		Str("side", string(res.Side)).
		Msg("region classified")
	return res
}

// Pick returns the index (0 or 1) of the front candidate
// The higher margin wins; on a tie the first candidate is the front and decided is false
func Pick(a, b Result) (front int, decided bool) {
	switch {
	case a.Margin() > b.Margin():
		return 0, true
	case b.Margin() > a.Margin():
		return 1, true
	}
	return 0, false
}
