package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellomail/internal/observability/metrics"
)

// WithMetrics registra latencia y status por patrón de ruta chi.
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, ok := w.(*statusRecorder)
			if !ok {
				rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			}
			done := metrics.HTTPStart(r.Method)
			next.ServeHTTP(rec, r)
			done(routePattern(r), rec.status)
		})
	}
}

// routePattern evita cardinalidad por ids en el path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
