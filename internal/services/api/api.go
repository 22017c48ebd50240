// Package api provides the HTTP API for the application
package api

import (
	"time"

	"idcardocr/internal/platform/config"
	"idcardocr/internal/platform/logger"
	phttp "idcardocr/internal/platform/net/http"
	"idcardocr/internal/platform/net/middleware"

	"idcardocr/internal/modkit"
	"idcardocr/internal/modkit/module"

	idcardmod "idcardocr/internal/services/api/idcard/module"
	metamod "idcardocr/internal/services/api/meta/module"
	"idcardocr/internal/services/recognize/domain"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Logger         *logger.Logger
	Encoded        domain.EncodedRecognizer
	Token          string
	CORSOrigins    []string
	RequestTimeout time.Duration
	SlowRequest    time.Duration
	EnableProfiler bool
}

// FromConfig reads the API_ settings
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("API_")
	return Options{
		Config:         cfg,
		Token:          ac.MayString("TOKEN", ""),
		CORSOrigins:    ac.MayCSV("CORS_ORIGINS", nil),
		RequestTimeout: ac.MayDuration("REQUEST_TIMEOUT", 2*time.Minute),
		SlowRequest:    ac.MayDuration("SLOW_REQUEST", 5*time.Second),
		EnableProfiler: ac.MayBool("PROFILER", false),
	}
}

// Mount mounts the API service onto the given router
// Health and version stay public; the /v1 modules carry the token guard
func Mount(r phttp.Router, opt Options) error {
	log := logger.OrNamed(opt.Logger, "api")
	deps := modkit.Deps{Cfg: opt.Config, Log: *log}

	idcard, err := idcardmod.New(deps,
		modkit.WithPorts(idcardmod.Ports{Encoded: opt.Encoded}),
		modkit.WithMiddlewares(middleware.TokenAuth(opt.Token)),
	)
	if err != nil {
		return err
	}

	r.Use(middleware.Defaults(opt.RequestTimeout)...)
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{Base: log, Slow: opt.SlowRequest}))
	if len(opt.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins, MaxAge: 300}))
	}

	public := []module.Module{metamod.New(deps)}
	guarded := []module.Module{idcard}

	for _, m := range public {
		m.MountRoutes(r)
	}
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	r.Route("/v1", func(api phttp.Router) {
		for _, m := range guarded {
			m.MountRoutes(api)
		}
	})

	log.Info().
		Bool("auth", opt.Token != "").
		Bool("profiler", opt.EnableProfiler).
		Msg("api mounted")
	return nil
}
