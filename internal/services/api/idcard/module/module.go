// Package module wires the idcard endpoints onto the recognize module's encoded port
package module

import (
	"idcardocr/internal/modkit"
	perr "idcardocr/internal/platform/errors"
	phttp "idcardocr/internal/platform/net/http"
	"idcardocr/internal/services/recognize/domain"

	idhttp "idcardocr/internal/services/api/idcard/http"
)

// Ports the idcard module needs injected through modkit.WithPorts
type Ports struct {
	Encoded domain.EncodedRecognizer
}

// Module implements the modkit.Module interface
type Module struct {
	deps  modkit.Deps
	built modkit.Built
	ports Ports
}

// New constructs the idcard module; the encoded recognizer port is required
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("idcard"),
		modkit.WithPrefix("/idcard"),
	}, opts...)...)

	p, _ := b.Ports.(Ports)
	if p.Encoded == nil {
		return nil, perr.Configf("idcard module needs an encoded recognizer port")
	}
	return &Module{deps: deps, built: b, ports: p}, nil
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	m.built.Mount(r, func(rr phttp.Router) {
		idhttp.Register(rr, idhttp.Deps{Rec: m.ports.Encoded, Log: m.deps.Logger("api.idcard")})
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.built.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return m.ports }
