// Package tesseract recognizes text in rendered card regions with the local
// Tesseract engine, used when a PDF has no usable text layer
package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"

	"idcardocr/internal/core/classify"
	perr "idcardocr/internal/platform/errors"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguages covers simplified Chinese labels and Latin digits
var DefaultLanguages = []string{"chi_sim", "eng"}

// Recognizer implements classify.TextRecognizer over gosseract
type Recognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

var _ classify.TextRecognizer = (*Recognizer)(nil)

// New returns a Recognizer for langs, DefaultLanguages when empty
func New(langs ...string) *Recognizer {
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	return &Recognizer{languages: langs, clientFactory: gosseract.NewClient}
}

// Languages returns the configured tesseract language codes
func (r *Recognizer) Languages() []string { return r.languages }

// Recognize returns the plain text tesseract finds in img
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", perr.Cancelled(err)
	}
	if img == nil || img.Bounds().Empty() {
		return "", perr.Validationf("empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "encode region for ocr")
	}

	c := r.clientFactory()
	defer c.Close()
	if err := c.SetLanguage(r.languages...); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeConfig, "set tesseract languages")
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "set tesseract image")
	}
	text, err := c.Text()
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "tesseract recognize")
	}
	return strings.TrimSpace(text), nil
}
