package router

import "github.com/go-chi/chi/v5"

func registerHealthRoutes(r chi.Router, deps Deps) {
	if c := deps.Health; c != nil {
		r.Get("/", c.Root)
		r.Get("/health", c.Health)
		r.Get("/readyz", c.Readyz)
	}
	if deps.Metrics != nil {
		r.Method("GET", "/metrics", deps.Metrics)
	}
}
