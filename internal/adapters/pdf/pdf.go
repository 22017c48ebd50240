// Package pdf opens scanned ID card PDFs through MuPDF: page count, text layer,
// positioned text for half-page regions and rasterized pages
package pdf

import (
	"image"

	perr "idcardocr/internal/platform/errors"

	fitz "github.com/gen2brain/go-fitz"
)

// DefaultDPI renders pages sharp enough for the OCR endpoint
const DefaultDPI = 300

// Document is an open PDF
type Document struct {
	path string
	doc  *fitz.Document
}

// Open opens path; the caller must Close the Document
func Open(path string) (*Document, error) {
	d, err := fitz.New(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "open pdf %s", path)
	}
	return &Document{path: path, doc: d}, nil
}

// Path returns the file the Document was opened from
func (d *Document) Path() string { return d.path }

// NumPages returns the page count
func (d *Document) NumPages() int { return d.doc.NumPage() }

// PageText returns the text layer of page i (0-based)
func (d *Document) PageText(i int) (string, error) {
	s, err := d.doc.Text(i)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "page %d text", i)
	}
	return s, nil
}

// RegionText returns the text of lines whose top edge lies in [top, bottom)
// of page i, both given as fractions of the page height
func (d *Document) RegionText(i int, top, bottom float64) (string, error) {
	src, err := d.doc.HTML(i, false)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "page %d html", i)
	}
	page, err := ParseHTML(src)
	if err != nil {
		return "", err
	}
	if page.Height <= 0 {
		if r, err := d.doc.Bound(i); err == nil {
			page.Height = float64(r.Dy())
		}
	}
	return page.Between(top, bottom), nil
}

// Render rasterizes page i at dpi
func (d *Document) Render(i int, dpi float64) (image.Image, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	img, err := d.doc.ImageDPI(i, dpi)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "render page %d", i)
	}
	return img, nil
}

// Close releases MuPDF resources
func (d *Document) Close() error { return d.doc.Close() }
