// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"idcardocr/internal/modkit"
	phttp "idcardocr/internal/platform/net/http"

	metahttp "idcardocr/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	built     modkit.Built
	startedAt time.Time
}

// New constructs a meta module; without WithPrefix the routes sit at the root
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	return &Module{
		built:     modkit.Build(append([]modkit.Option{modkit.WithName("meta")}, opts...)...),
		startedAt: time.Now(),
	}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	m.built.Mount(r, func(rr phttp.Router) {
		metahttp.Register(rr, metahttp.Deps{
			ServiceName: "idcardocr-api",
			StartedAt:   m.startedAt,
		})
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.built.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
