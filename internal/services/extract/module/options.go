package module

import (
	"idcardocr/internal/adapters/tesseract"
	"idcardocr/internal/platform/config"
)

// Options holds configuration settings for the extract module
type Options struct {
	PDFDir    string   `json:"pdf_dir" validate:"required"`
	ImageDir  string   `json:"input_dir" validate:"required"`
	DPI       float64  `json:"dpi" validate:"min=72,max=1200"`
	OCR       bool     `json:"ocr_fallback"`
	Languages []string `json:"ocr_languages" validate:"required,min=1"`
}

// FromConfig extracts Options from the given config.Conf
// INPUT_DIR is where extraction writes and recognition reads
func FromConfig(cfg config.Conf) Options {
	return Options{
		PDFDir:    cfg.MayString("PDF_DIR", "inputs"),
		ImageDir:  cfg.MayString("INPUT_DIR", "outputs"),
		DPI:       cfg.MayFloat64("DPI", 300),
		OCR:       cfg.MayBool("OCR_FALLBACK", true),
		Languages: cfg.MayCSV("OCR_LANGUAGES", tesseract.DefaultLanguages),
	}
}

func (o Options) merge(ov Options) Options {
	if ov.PDFDir != "" {
		o.PDFDir = ov.PDFDir
	}
	if ov.ImageDir != "" {
		o.ImageDir = ov.ImageDir
	}
	if ov.DPI != 0 {
		o.DPI = ov.DPI
	}
	if len(ov.Languages) > 0 {
		o.Languages = ov.Languages
	}
	return o
}
