// Package module implements the extract module
package module

import (
	"idcardocr/internal/adapters/pdf"
	"idcardocr/internal/adapters/tesseract"
	"idcardocr/internal/core/classify"
	"idcardocr/internal/modkit"
	perr "idcardocr/internal/platform/errors"
	phttp "idcardocr/internal/platform/net/http"
	"idcardocr/internal/platform/net/http/bind"
	"idcardocr/internal/services/extract/domain"
	"idcardocr/internal/services/extract/service"
)

// Ports exposed by the extract module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module
type Module struct {
	deps    modkit.Deps
	opts    Options
	ports   Ports
	service *service.Service
}

// OpenPDF opens path through MuPDF
func OpenPDF(path string) (domain.Document, error) {
	d, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// New wires the PDF opener, OCR fallback and classifier into the extract service
// Injected domain.Ports replace the MuPDF opener and tesseract
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("extract"),
	}, opts...)...)

	injected, _ := b.Ports.(domain.Ports)
	cfg := FromConfig(deps.Cfg).merge(overrides)
	if err := bind.Struct(cfg); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "invalid extract settings")
	}
	log := deps.Logger("extract")

	open := injected.Open
	if open == nil {
		open = OpenPDF
	}
	ocr := injected.OCR
	if ocr == nil && cfg.OCR && injected.Open == nil {
		ocr = tesseract.New(cfg.Languages...)
	}

	svc := service.New(open, classify.New(ocr, log), service.Config{DPI: cfg.DPI}, log)
	return &Module{
		deps:    deps,
		opts:    cfg,
		service: svc,
		ports:   Ports{Runner: svc},
	}, nil
}

// Options returns the merged settings
func (m *Module) Options() Options { return m.opts }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "extract" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ phttp.Router) {}
