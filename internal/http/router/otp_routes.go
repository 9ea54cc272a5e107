package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/hellomail/internal/http/middlewares"
)

func registerOTPRoutes(r chi.Router, deps Deps) {
	c := deps.OTP
	if c == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.With(mw.WithRateLimit(deps.SendOTPRate...)).Post("/send-otp", c.SendOTP)
		r.With(mw.WithRateLimit(deps.VerifyOTPRate...)).Post("/verify-otp", c.VerifyOTP)
	})
}
