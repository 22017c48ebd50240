// Package module implements the recognize module
package module

import (
	"idcardocr/internal/adapters/tencent"
	"idcardocr/internal/core/compress"
	"idcardocr/internal/core/ratelimit"
	"idcardocr/internal/core/signer"
	"idcardocr/internal/modkit"
	perr "idcardocr/internal/platform/errors"
	phttp "idcardocr/internal/platform/net/http"
	"idcardocr/internal/platform/net/http/bind"
	"idcardocr/internal/services/recognize/domain"
	"idcardocr/internal/services/recognize/service"
)

// Ports exposed by the recognize module
type Ports struct {
	Runner  domain.RunnerPort
	Sides   domain.SideRecognizer
	Encoded domain.EncodedRecognizer
}

// Module implements modkit.Module
type Module struct {
	deps    modkit.Deps
	opts    Options
	ports   Ports
	service *service.Service
}

// New validates settings and wires limiter, compressor, OCR client and batch runner
// Injected domain.Ports skip building the OCR client (tests, dry runs)
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("recognize"),
	}, opts...)...)

	injected, _ := b.Ports.(domain.Ports)
	cfg := FromConfig(deps.Cfg).merge(overrides)
	log := deps.Logger("recognize")

	sides, encoded := injected.Sides, injected.Encoded
	if sides == nil || encoded == nil {
		if err := bind.Struct(cfg); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeConfig, "invalid recognize settings")
		}
		limiter, err := ratelimit.New(cfg.RateLimit, ratelimit.WithLogger(log))
		if err != nil {
			return nil, err
		}
		comp := compress.New(compress.Options{
			CeilingMB:           cfg.MaxImageSizeMB,
			MaxResizeIterations: cfg.MaxResizeIterations,
			Log:                 log,
		})
		scope := signer.DefaultScope()
		scope.Region = cfg.Region
		client, err := tencent.NewClient(
			signer.Credential{ID: cfg.SecretID, Secret: cfg.SecretKey},
			tencent.Options{
				Endpoint:    cfg.Endpoint,
				Scope:       scope,
				Timeout:     cfg.Timeout,
				MaxRetries:  cfg.MaxRetries,
				BackoffBase: cfg.BackoffBase,
			},
			limiter, comp, log,
		)
		if err != nil {
			return nil, err
		}
		ts := tencentSides{c: client}
		if sides == nil {
			sides = ts
		}
		if encoded == nil {
			encoded = ts
		}
	}

	svc := service.New(sides, service.Config{Workers: cfg.Workers, AllowedRoot: cfg.AllowedRoot}, log)
	return &Module{
		deps:    deps,
		opts:    cfg,
		service: svc,
		ports:   Ports{Runner: svc, Sides: sides, Encoded: encoded},
	}, nil
}

// Options returns the merged settings
func (m *Module) Options() Options { return m.opts }

// OnResult registers the per person progress hook
func (m *Module) OnResult(fn func(r domain.PersonResult, done, total int)) { m.service.OnResult = fn }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "recognize" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ phttp.Router) {}
