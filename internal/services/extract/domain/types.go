// Package domain holds the PDF extraction types and ports
package domain

import (
	"context"
	"image"

	"idcardocr/internal/core/classify"
)

// Format is the page layout of an ID card scan
type Format string

const (
	// TwoPages holds one face per page
	TwoPages Format = "two_pages"
	// SinglePage holds both faces stacked on one page
	SinglePage Format = "single_page"
	// UnsupportedFormat is any other page count
	UnsupportedFormat Format = "unsupported"
)

// FormatOf maps a page count to its layout
func FormatOf(pages int) Format {
	switch pages {
	case 2:
		return TwoPages
	case 1:
		return SinglePage
	}
	return UnsupportedFormat
}

// Document is an open PDF as the extractor reads it
type Document interface {
	NumPages() int
	PageText(i int) (string, error)
	// RegionText returns the text between two fractions of the page height
	RegionText(i int, top, bottom float64) (string, error)
	Render(i int, dpi float64) (image.Image, error)
	Close() error
}

// Opener opens a PDF at path
type Opener func(path string) (Document, error)

// FileResult is the outcome of one PDF
type FileResult struct {
	PDF     string `json:"pdf"`
	Format  Format `json:"format"`
	Front   string `json:"front,omitempty"`
	Back    string `json:"back,omitempty"`
	Decided bool   `json:"decided"`
	UsedOCR bool   `json:"used_ocr"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether both faces were written
func (r FileResult) OK() bool { return r.Error == "" && r.Front != "" && r.Back != "" }

// Summary is the outcome of a directory run
type Summary struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Files     []FileResult `json:"files"`
}

// RunnerPort extracts every PDF in a directory
type RunnerPort interface {
	ProcessDir(ctx context.Context, inDir, outDir string) (Summary, error)
}

// Ports injectable into the extract module
type Ports struct {
	Open Opener
	// OCR may be nil to disable the fallback for text-less scans
	OCR classify.TextRecognizer
}
