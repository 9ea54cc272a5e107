// Package metrics concentra las métricas Prometheus del servicio.
// Los Record* son no-op hasta que se llama Register.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once   sync.Once
	regErr error

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec
	rateLimitedTotal    *prometheus.CounterVec
	corsRejectsTotal    *prometheus.CounterVec

	// Dominio
	otpRequestsTotal  *prometheus.CounterVec
	otpVerifyTotal    *prometheus.CounterVec
	otpSweptTotal     prometheus.Counter
	tokenRefreshTotal *prometheus.CounterVec
	gmailSendTotal    *prometheus.CounterVec
	providerLatency   *prometheus.HistogramVec
)

// Config agrupa dependencias para exponer /metrics.
type Config struct {
	Registry prometheus.Registerer
	// PGPool, si no es nil, expone gauges del pool del kv postgres.
	PGPool func() *pgxpool.Pool
}

// Register inicializa las métricas (una sola vez) y devuelve el handler para /metrics.
func Register(cfg Config) (http.Handler, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método",
		}, []string{"method"})

		rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"rule"})

		corsRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cors_rejects_total",
			Help: "CORS requests rechazadas por origin no permitido",
		}, []string{"origin"})

		otpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_requests_total",
			Help: "Challenges OTP emitidos por resultado",
		}, []string{"result"}) // ok|dispatch_error|error

		otpVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "Verificaciones OTP por resultado",
		}, []string{"result"}) // ok|not_found|exhausted|expired|mismatch|error

		otpSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "otp_swept_total",
			Help: "Challenges vencidos eliminados por el barrido",
		})

		tokenRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gmail_token_refresh_total",
			Help: "Refresh de access tokens por resultado",
		}, []string{"result"}) // ok|failed

		gmailSendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gmail_send_total",
			Help: "Envíos por Gmail por tipo y resultado",
		}, []string{"kind", "result"}) // kind: direct|template

		providerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "Latencia de llamadas al proveedor OAuth/Gmail",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight, rateLimitedTotal, corsRejectsTotal,
			otpRequestsTotal, otpVerifyTotal, otpSweptTotal, tokenRefreshTotal, gmailSendTotal, providerLatency,
		} {
			if err := registerCollector(registry, c); err != nil {
				regErr = err
				return
			}
		}
	})
	if regErr != nil {
		return nil, regErr
	}

	if cfg.PGPool != nil {
		if err := registerCollector(registry, newPoolCollector(cfg.PGPool)); err != nil {
			return nil, err
		}
	}
	if g, ok := registry.(prometheus.Gatherer); ok && registry != prometheus.DefaultRegisterer {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ─── HTTP ───

// HTTPStart marca un request en vuelo. La ruta se conoce recién después del
// routing, por eso la recibe la función de cierre.
func HTTPStart(method string) func(path string, status int) {
	if httpInflight == nil {
		return func(string, int) {}
	}
	start := time.Now()
	httpInflight.WithLabelValues(method).Inc()
	return func(path string, status int) {
		httpInflight.WithLabelValues(method).Dec()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	}
}

func statusLabel(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status)
}

// RecordRateLimited registra un 429.
func RecordRateLimited(rule string) {
	if rateLimitedTotal != nil {
		rateLimitedTotal.WithLabelValues(rule).Inc()
	}
}

// RecordCORSReject registra un rechazo de CORS.
func RecordCORSReject(origin string) {
	if corsRejectsTotal != nil {
		corsRejectsTotal.WithLabelValues(origin).Inc()
	}
}

// ─── Dominio ───

func RecordOTPRequest(result string) {
	if otpRequestsTotal != nil {
		otpRequestsTotal.WithLabelValues(result).Inc()
	}
}

func RecordOTPVerify(result string) {
	if otpVerifyTotal != nil {
		otpVerifyTotal.WithLabelValues(result).Inc()
	}
}

func RecordOTPSwept(n int) {
	if otpSweptTotal != nil && n > 0 {
		otpSweptTotal.Add(float64(n))
	}
}

func RecordTokenRefresh(result string) {
	if tokenRefreshTotal != nil {
		tokenRefreshTotal.WithLabelValues(result).Inc()
	}
}

func RecordGmailSend(kind, result string) {
	if gmailSendTotal != nil {
		gmailSendTotal.WithLabelValues(kind, result).Inc()
	}
}

// ObserveProvider mide una llamada al proveedor: defer metrics.ObserveProvider("refresh")().
func ObserveProvider(op string) func() {
	if providerLatency == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		providerLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
