package router

import "github.com/go-chi/chi/v5"

func registerTemplateRoutes(r chi.Router, deps Deps) {
	if c := deps.Templates; c != nil {
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", c.List)
			r.Post("/", c.Create)
			r.Put("/{templateId}", c.Update)
			r.Delete("/{templateId}", c.Delete)
		})
	}
	if c := deps.History; c != nil {
		r.Get("/history", c.List)
	}
}
