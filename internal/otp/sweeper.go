package otp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/dropDatabas3/hellomail/internal/kv"
	"github.com/dropDatabas3/hellomail/internal/observability/logger"
	"github.com/dropDatabas3/hellomail/internal/observability/metrics"
)

// SweepExpired elimina los challenges vencidos y devuelve cuántos borró.
// Cada borrado revalida bajo el lock de la clave.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	entries, err := e.store.RangeByChild(ctx, RootPath, "expiresAt", 0)
	if err != nil {
		return 0, fmt.Errorf("otp: list challenges: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		var ch Challenge
		if json.Unmarshal(entry.Value, &ch) != nil {
			continue
		}
		if e.now().UnixMilli() <= ch.ExpiresAt {
			// ordenado por expiresAt: el resto está vigente
			break
		}
		ok, err := e.removeIfExpired(ctx, entry.Key)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	metrics.RecordOTPSwept(removed)
	return removed, nil
}

func (e *Engine) removeIfExpired(ctx context.Context, key string) (bool, error) {
	unlock := e.locks.lock(key)
	defer unlock()

	path := RootPath + "/" + key
	var ch Challenge
	if err := kv.GetJSON(ctx, e.store, path, &ch); err != nil {
		if kv.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if e.now().UnixMilli() <= ch.ExpiresAt {
		return false, nil
	}
	return true, e.store.Remove(ctx, path)
}

// StartSweeper agenda SweepExpired con un spec cron ("@every 10m", "*/5 * * * *").
// El llamador detiene el scheduler con Stop().
func StartSweeper(ctx context.Context, e *Engine, schedule string) (*cron.Cron, error) {
	log := logger.From(ctx).With(logger.Component("otp.sweeper"))
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		n, err := e.SweepExpired(ctx)
		if err != nil {
			log.Warn("sweep failed", logger.Err(err), logger.Count(n))
			return
		}
		if n > 0 {
			log.Info("expired challenges removed", logger.Count(n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("otp: invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
