// Package router arma el árbol de rutas chi de la API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	gmailctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/gmail"
	healthctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/health"
	historyctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/history"
	otpctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/otp"
	tplctrl "github.com/dropDatabas3/hellomail/internal/http/controllers/templates"
	httperrors "github.com/dropDatabas3/hellomail/internal/http/errors"
	mw "github.com/dropDatabas3/hellomail/internal/http/middlewares"
)

// Deps contiene controllers y configuración de middlewares.
// Un controller nil deja sus rutas sin registrar.
type Deps struct {
	Health    *healthctrl.HealthController
	OTP       *otpctrl.OTPController
	Gmail     *gmailctrl.GmailController
	Templates *tplctrl.TemplatesController
	History   *historyctrl.HistoryController

	// Metrics es el handler de /metrics (nil = sin endpoint)
	Metrics http.Handler

	CORSOrigins []string

	// Reglas de rate limit por endpoint
	SendOTPRate   []mw.RateRule
	VerifyOTPRate []mw.RateRule
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithMetrics(),
		mw.WithCORS(deps.CORSOrigins),
		mw.WithSecurityHeaders(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, deps)
	registerOTPRoutes(r, deps)
	registerGmailRoutes(r, deps)
	registerTemplateRoutes(r, deps)

	return r
}
