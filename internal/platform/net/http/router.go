package http

import "net/http"

// Handler is the platform handler signature
type Handler = http.HandlerFunc

// Router is the narrow routing seam modules mount onto
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)

	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))

	Mux() http.Handler
}
