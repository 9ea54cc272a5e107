// Package health contiene el controller para health checks.
package health

import (
	"net/http"
	"time"

	dto "github.com/dropDatabas3/hellomail/internal/http/dto/health"
	"github.com/dropDatabas3/hellomail/internal/http/helpers"
	svc "github.com/dropDatabas3/hellomail/internal/http/services/health"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
)

// ServiceName es el valor de "service" en GET /.
const ServiceName = "OTP Server"

type HealthController struct {
	service svc.HealthService
	now     func() time.Time
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service, now: time.Now}
}

// Root maneja GET /
func (c *HealthController) Root(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.RootResponse{Status: "ok", Service: ServiceName})
}

// Health maneja GET /health (liveness, sin dependencias).
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.LivenessResponse{Status: "ok", Timestamp: c.now().UTC()})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	resp := c.service.Check(ctx)
	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	log.Debug("readiness check completed",
		logger.String("status", resp.Status),
		logger.Count(len(resp.Components)),
	)
	helpers.WriteJSON(w, status, resp)
}
