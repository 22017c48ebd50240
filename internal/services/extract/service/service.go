// Package service splits scanned ID card PDFs into front and back images
package service

import (
	"context"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"idcardocr/internal/core/card"
	"idcardocr/internal/core/classify"
	perr "idcardocr/internal/platform/errors"
	"idcardocr/internal/platform/logger"
	"idcardocr/internal/services/extract/domain"
)

// MarginRatio is the share of page height each half-page crop overlaps the other
const MarginRatio = 0.05

// Config for the extract service
type Config struct {
	DPI float64
}

// Service implements domain.RunnerPort
type Service struct {
	Open domain.Opener
	Cls  *classify.Classifier
	Cfg  Config
	Log  *logger.Logger
}

// New constructs a new extract service
func New(open domain.Opener, cls *classify.Classifier, cfg Config, log *logger.Logger) *Service {
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cls == nil {
		cls = classify.New(nil, log)
	}
	return &Service{Open: open, Cls: cls, Cfg: cfg, Log: logger.OrNamed(log, "extract")}
}

// ListPDFs returns the PDFs directly under dir, sorted by name
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "read pdf dir %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ProcessDir extracts every PDF in inDir into outDir
// A failing file is recorded and the run moves on
func (s *Service) ProcessDir(ctx context.Context, inDir, outDir string) (domain.Summary, error) {
	var sum domain.Summary
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return sum, perr.Wrapf(err, perr.ErrorCodeResource, "create output dir %s", outDir)
	}
	pdfs, err := ListPDFs(inDir)
	if err != nil {
		return sum, err
	}
	if len(pdfs) == 0 {
		s.Log.Warn().Str("dir", inDir).Msg("no PDF files found")
		return sum, nil
	}
	s.Log.Info().Int("files", len(pdfs)).Str("dir", inDir).Msg("extracting ID card PDFs")

	for _, p := range pdfs {
		if err := ctx.Err(); err != nil {
			return sum, perr.Cancelled(err)
		}
		res, err := s.ProcessPDF(ctx, p, outDir)
		sum.Total++
		if err != nil {
			res.Error = err.Error()
			sum.Failed++
			s.Log.Error().Err(err).Str("pdf", filepath.Base(p)).Msg("extraction failed")
		} else {
			sum.Succeeded++
		}
		sum.Files = append(sum.Files, res)
	}
	s.Log.Info().
		Int("total", sum.Total).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Msg("extraction complete")
	return sum, nil
}

// ProcessPDF writes <base>_front.png and <base>_back.png for one PDF
func (s *Service) ProcessPDF(ctx context.Context, path, outDir string) (domain.FileResult, error) {
	res := domain.FileResult{PDF: path}
	doc, err := s.Open(path)
	if err != nil {
		return res, err
	}
	defer doc.Close()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res.Format = domain.FormatOf(doc.NumPages())
	log := s.Log.With().Str("pdf", filepath.Base(path)).Str("format", string(res.Format)).Logger()
	log.Debug().Int("pages", doc.NumPages()).Msg("detected layout")

	var front, back image.Image
	switch res.Format {
	case domain.TwoPages:
		front, back, err = s.splitPages(ctx, doc, &res)
	case domain.SinglePage:
		front, back, err = s.splitHalves(ctx, doc, &res)
	default:
		return res, perr.Unsupportedf("%s has %d pages, want 1 or 2", filepath.Base(path), doc.NumPages())
	}
	if err != nil {
		return res, err
	}
	if !res.Decided {
		log.Warn().Msg("could not tell faces apart, using default order")
	}

	frontPath := filepath.Join(outDir, card.FileName(base, card.Front))
	backPath := filepath.Join(outDir, card.FileName(base, card.Back))
	if err := SavePNG(frontPath, front); err != nil {
		return res, err
	}
	if err := SavePNG(backPath, back); err != nil {
		return res, err
	}
	res.Front, res.Back = frontPath, backPath
	log.Info().Str("front", filepath.Base(frontPath)).Str("back", filepath.Base(backPath)).Msg("extracted")
	return res, nil
}

// splitPages classifies each page of a two-page scan; page one is the front on a tie
func (s *Service) splitPages(ctx context.Context, doc domain.Document, res *domain.FileResult) (image.Image, image.Image, error) {
	var (
		pages   [2]image.Image
		results [2]classify.Result
	)
	for i := range pages {
		img, err := doc.Render(i, s.Cfg.DPI)
		if err != nil {
			return nil, nil, err
		}
		text, err := doc.PageText(i)
		if err != nil {
			s.Log.Debug().Err(err).Int("page", i+1).Msg("no text layer")
		}
		pages[i] = img
		results[i] = s.Cls.Classify(ctx, classify.Region{Label: pageLabel(i), Text: text, Image: img})
		res.UsedOCR = res.UsedOCR || results[i].UsedOCR
	}
	f, decided := classify.Pick(results[0], results[1])
	res.Decided = decided
	return pages[f], pages[1-f], nil
}

// splitHalves cuts a single-page scan in two with an overlap margin
// The top half is the front unless the bottom scores higher
func (s *Service) splitHalves(ctx context.Context, doc domain.Document, res *domain.FileResult) (image.Image, image.Image, error) {
	img, err := doc.Render(0, s.Cfg.DPI)
	if err != nil {
		return nil, nil, err
	}
	b := img.Bounds()
	h := b.Dy()
	mid := b.Min.Y + h/2
	margin := int(float64(h) * MarginRatio)

	topText, err := doc.RegionText(0, 0, 0.5)
	if err != nil {
		s.Log.Debug().Err(err).Msg("no text in top half")
	}
	bottomText, err := doc.RegionText(0, 0.5, 1)
	if err != nil {
		s.Log.Debug().Err(err).Msg("no text in bottom half")
	}

	top := s.Cls.Classify(ctx, classify.Region{
		Label: "top", Text: topText,
		Image: Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, mid)),
	})
	bottom := s.Cls.Classify(ctx, classify.Region{
		Label: "bottom", Text: bottomText,
		Image: Crop(img, image.Rect(b.Min.X, mid, b.Max.X, b.Max.Y)),
	})
	res.UsedOCR = top.UsedOCR || bottom.UsedOCR

	upper := Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, mid+margin))
	lower := Crop(img, image.Rect(b.Min.X, mid-margin, b.Max.X, b.Max.Y))
	f, decided := classify.Pick(top, bottom)
	res.Decided = decided
	if f == 0 {
		return upper, lower, nil
	}
	return lower, upper, nil
}

func pageLabel(i int) string {
	if i == 0 {
		return "page1"
	}
	return "page2"
}

// Crop returns the part of img inside r, copying when img cannot share pixels
func Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	if si, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// SavePNG writes img to path through a temp file in the same directory
func SavePNG(path string, img image.Image) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".extract-*.png")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeResource, "create %s", path)
	}
	tmp := f.Name()
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return perr.Wrapf(err, perr.ErrorCodeResource, "encode %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return perr.Wrapf(err, perr.ErrorCodeResource, "close %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return perr.Wrapf(err, perr.ErrorCodeResource, "rename %s", path)
	}
	return nil
}
