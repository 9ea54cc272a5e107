// Package health contiene el service para health checks.
package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/hellomail/internal/http/dto/health"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
)

// Checker verifica un componente; nil = ok.
type Checker func(ctx context.Context) error

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.ReadyResponse
}

// Deps contiene los checks a correr. Los críticos marcan el servicio unavailable;
// los opcionales solo lo degradan.
type Deps struct {
	Critical map[string]Checker
	Optional map[string]Checker
	Version  string
	Timeout  time.Duration
	Now      func() time.Time
}

type healthService struct {
	deps Deps
}

func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.ReadyResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.ReadyResponse{
		Status:     "ready",
		Components: make(map[string]dto.ComponentStatus, len(s.deps.Critical)+len(s.deps.Optional)),
		Version:    s.deps.Version,
		Timestamp:  s.deps.Now().UTC(),
	}

	run := func(name string, check Checker) bool {
		if check == nil {
			resp.Components[name] = dto.ComponentStatus{Status: "disabled"}
			return true
		}
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()
		if err := check(cctx); err != nil {
			resp.Components[name] = dto.ComponentStatus{Status: "error", Message: err.Error()}
			log.Warn("component unhealthy", logger.String("component_name", name), logger.Err(err))
			return false
		}
		resp.Components[name] = dto.ComponentStatus{Status: "ok"}
		return true
	}

	for name, check := range s.deps.Critical {
		if !run(name, check) {
			resp.Status = "unavailable"
		}
	}
	for name, check := range s.deps.Optional {
		if !run(name, check) && resp.Status == "ready" {
			resp.Status = "degraded"
		}
	}
	return resp
}
