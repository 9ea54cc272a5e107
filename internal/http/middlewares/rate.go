package middlewares

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	httperrors "github.com/dropDatabas3/hellomail/internal/http/errors"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
	"github.com/dropDatabas3/hellomail/internal/observability/metrics"
	"github.com/dropDatabas3/hellomail/internal/rate"
)

// clientIP extrae la IP del cliente, considerando proxies.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		return strings.TrimSpace(strings.Split(xf, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// extractJSONField lee hasta max bytes del body JSON, saca field y repone el body.
func extractJSONField(r *http.Request, field string, max int64) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	var buf bytes.Buffer
	_, _ = io.CopyN(&buf, r.Body, max)
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf.Bytes()), rest), rest}

	var tmp map[string]any
	if err := json.Unmarshal(buf.Bytes(), &tmp); err == nil {
		if s, ok := tmp[field].(string); ok {
			return s
		}
	}
	return ""
}

// RateKeyFunc devuelve la clave a limitar; "" saltea la regla.
type RateKeyFunc func(r *http.Request) string

// IPRateKey limita por IP de cliente.
func IPRateKey(r *http.Request) string { return clientIP(r) }

// BodyFieldRateKey limita por un campo string del body JSON, pasado por normalize.
func BodyFieldRateKey(field string, normalize func(string) string) RateKeyFunc {
	return func(r *http.Request) string {
		v := strings.TrimSpace(extractJSONField(r, field, 4096))
		if v == "" {
			return ""
		}
		if normalize != nil {
			v = normalize(v)
		}
		return v
	}
}

// RateRule es un limiter con su clave. Name prefija la clave y etiqueta la métrica.
type RateRule struct {
	Name    string
	Limiter rate.Limiter
	Key     RateKeyFunc
}

// WithRateLimit evalúa las reglas en orden; la primera que niega corta con 429.
// Un error del limiter deja pasar el request.
func WithRateLimit(rules ...RateRule) Middleware {
	active := rules[:0:0]
	for _, rr := range rules {
		if rr.Limiter != nil && rr.Key != nil {
			active = append(active, rr)
		}
	}
	return func(next http.Handler) http.Handler {
		if len(active) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rr := range active {
				key := rr.Key(r)
				if key == "" {
					continue
				}
				res, err := rr.Limiter.Allow(r.Context(), rr.Name+"|"+key)
				if err != nil {
					logger.From(r.Context()).Warn("rate limiter error",
						logger.Component("rate"), logger.String("rule", rr.Name), logger.Err(err))
					continue
				}
				if res.WindowTTL > 0 {
					w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.WindowTTL).Unix(), 10))
				}
				if !res.Allowed {
					secs := int(res.RetryAfter / time.Second)
					if secs < 1 {
						secs = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(secs))
					metrics.RecordRateLimited(rr.Name)
					httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
					return
				}
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			}
			next.ServeHTTP(w, r)
		})
	}
}
