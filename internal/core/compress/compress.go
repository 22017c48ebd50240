// Package compress brings card images under the provider's payload ceiling.
// Size is always measured on the base64 form since that is what goes on the wire
package compress

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // decoder for Fit

	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/platform/logger"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder for Fit
)

// Defaults
const (
	DefaultCeilingMB           = 10.0
	DefaultMaxResizeIterations = 10
	DefaultQualityMin          = 5
	DefaultQualityMax          = 95
	DefaultResizeFactor        = 0.8
)

// Options configures a Compressor; zero values take the defaults
type Options struct {
	CeilingMB           float64
	MaxResizeIterations int
	QualityMin          int
	QualityMax          int
	ResizeFactor        float64
	Log                 *logger.Logger
}

// Compressor re-encodes images as JPEG until their base64 size fits the ceiling
type Compressor struct {
	ceiling    int
	maxResizes int
	qmin, qmax int
	factor     float64
	log        *logger.Logger
}

// New builds a Compressor from opt
func New(opt Options) *Compressor {
	if opt.CeilingMB <= 0 {
		opt.CeilingMB = DefaultCeilingMB
	}
	if opt.MaxResizeIterations <= 0 {
		opt.MaxResizeIterations = DefaultMaxResizeIterations
	}
	if opt.QualityMin < 1 || opt.QualityMin > 100 {
		opt.QualityMin = DefaultQualityMin
	}
	if opt.QualityMax < opt.QualityMin || opt.QualityMax > 100 {
		opt.QualityMax = DefaultQualityMax
	}
	if opt.ResizeFactor <= 0 || opt.ResizeFactor >= 1 {
		opt.ResizeFactor = DefaultResizeFactor
	}
	return &Compressor{
		ceiling:    int(opt.CeilingMB * 1024 * 1024),
		maxResizes: opt.MaxResizeIterations,
		qmin:       opt.QualityMin,
		qmax:       opt.QualityMax,
		factor:     opt.ResizeFactor,
		log:        logger.OrNamed(opt.Log, "compress"),
	}
}

// Ceiling is the base64 byte budget
func (c *Compressor) Ceiling() int { return c.ceiling }

// Base64Size is the encoded length of n raw bytes
func Base64Size(n int) int { return base64.StdEncoding.EncodedLen(n) }

// Fits reports whether raw is already under the ceiling once encoded
func (c *Compressor) Fits(raw []byte) bool { return Base64Size(len(raw)) <= c.ceiling }

// Fit returns raw untouched when it fits, else a recompressed JPEG
// changed reports whether the bytes were re-encoded
func (c *Compressor) Fit(raw []byte) (out []byte, changed bool, err error) {
	if c.Fits(raw) {
		return raw, false, nil
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false, perr.Wrap(err, perr.ErrorCodeValidation, "decode image")
	}
	c.log.Info().
		Str("format", format).
		Int("base64_bytes", Base64Size(len(raw))).
		Int("ceiling", c.ceiling).
		Msg("image over size limit, compressing")

	out, err = c.Compress(img)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Compress flattens img onto white and searches JPEG quality, shrinking by the
// resize factor when even the lowest quality is too large
// It gives up with a resource error after the configured number of resizes
func (c *Compressor) Compress(img image.Image) ([]byte, error) {
	src := Flatten(img)
	for i := 0; ; i++ {
		if out, q, ok := c.search(src); ok {
			b := src.Bounds()
			c.log.Debug().
				Int("quality", q).
				Int("resizes", i).
				Int("width", b.Dx()).
				Int("height", b.Dy()).
				Int("base64_bytes", Base64Size(len(out))).
				Msg("image compressed")
			return out, nil
		}
		if i >= c.maxResizes {
			return nil, perr.Resourcef("image does not fit %d base64 bytes after %d resizes", c.ceiling, i)
		}
		b := src.Bounds()
		w := int(float64(b.Dx()) * c.factor)
		h := int(float64(b.Dy()) * c.factor)
		if w < 1 || h < 1 {
			return nil, perr.Resourcef("image collapsed to %dx%d before fitting %d base64 bytes", w, h, c.ceiling)
		}
		src = Resize(src, w, h)
	}
}

// search is a binary search for the highest quality that fits
func (c *Compressor) search(img image.Image) ([]byte, int, bool) {
	var (
		best  []byte
		bestQ int
		buf   bytes.Buffer
	)
	lo, hi := c.qmin, c.qmax
	for lo <= hi {
		mid := (lo + hi) / 2
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: mid}); err != nil {
			hi = mid - 1
			continue
		}
		if Base64Size(buf.Len()) <= c.ceiling {
			best = append(best[:0], buf.Bytes()...)
			bestQ = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best, bestQ, best != nil
}

// Flatten composites img over an opaque white canvas
// Opaque non-paletted images are returned as is
func Flatten(img image.Image) image.Image {
	_, paletted := img.(*image.Paletted)
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() && !paletted {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Resize scales img to w x h with Catmull-Rom resampling
func Resize(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
