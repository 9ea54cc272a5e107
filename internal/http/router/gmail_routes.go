package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/hellomail/internal/http/middlewares"
)

func registerGmailRoutes(r chi.Router, deps Deps) {
	c := deps.Gmail
	if c == nil {
		return
	}
	r.Route("/gmail", func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Get("/auth-url", c.AuthURL)
		r.Get("/callback", c.Callback)
		r.Get("/status", c.Status)
		r.Post("/disconnect", c.Disconnect)
		r.Post("/send", c.Send)
		r.Post("/send-template", c.SendTemplate)
	})
}
