package modkit

import (
	"net/http"

	phttp "idcardocr/internal/platform/net/http"
)

// Built is a plain struct with the fields modules care about
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
}

// Build applies Option funcs to an internal buildCfg and returns a plain struct
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	return Built{
		Name:   c.name,
		Prefix: c.prefix,
		Mw:     append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:  c.ports,
	}
}

// Mount runs register on a router scoped to Prefix with the module middlewares applied
// An empty prefix groups the routes on r itself
func (b Built) Mount(r phttp.Router, register func(phttp.Router)) {
	scoped := func(rr phttp.Router) {
		for _, mw := range b.Mw {
			rr.Use(mw)
		}
		register(rr)
	}
	if b.Prefix == "" {
		r.Group(scoped)
		return
	}
	r.Route(b.Prefix, scoped)
}
