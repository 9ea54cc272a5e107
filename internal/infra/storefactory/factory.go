// Package storefactory abre el kv.Store y el cliente Redis según la configuración.
package storefactory

import (
	"context"
	"fmt"
	"strings"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellomail/internal/config"
	"github.com/dropDatabas3/hellomail/internal/kv"
	"github.com/dropDatabas3/hellomail/internal/kv/memory"
	kvpg "github.com/dropDatabas3/hellomail/internal/kv/postgres"
	kvredis "github.com/dropDatabas3/hellomail/internal/kv/redis"
)

// Opened es el resultado de Open. Redis queda nil si nada lo necesita.
type Opened struct {
	Store kv.Store
	Redis *rdb.Client
	// PG es el store postgres cuando driver=postgres (para métricas del pool).
	PG *kvpg.Store

	ownsRedis bool
}

// Close cierra el store y, si lo abrió Open por separado, el cliente Redis.
func (o *Opened) Close() error {
	var first error
	if o.Store != nil {
		first = o.Store.Close()
	}
	if o.ownsRedis && o.Redis != nil {
		if err := o.Redis.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open abre el store configurado. Si el rate limit usa Redis y el store no,
// abre un cliente aparte con la misma dirección.
func Open(ctx context.Context, cfg *config.Config) (*Opened, error) {
	out := &Opened{}
	rc := cfg.Store.Redis

	switch strings.ToLower(cfg.Store.Driver) {
	case "redis":
		s, err := kvredis.New(kvredis.Config{Addr: rc.Addr, DB: rc.DB, Prefix: rc.Prefix})
		if err != nil {
			return nil, fmt.Errorf("storefactory: redis: %w", err)
		}
		out.Store, out.Redis = s, s.Client()
	case "postgres":
		s, err := kvpg.New(ctx, kvpg.Config{
			DSN:      cfg.Store.Postgres.DSN,
			MaxConns: cfg.Store.Postgres.MaxConns,
			Migrate:  cfg.Store.Postgres.Migrate,
		})
		if err != nil {
			return nil, fmt.Errorf("storefactory: postgres: %w", err)
		}
		out.Store, out.PG = s, s
	default:
		out.Store = memory.New()
	}

	if cfg.Rate.Enabled && strings.EqualFold(cfg.Rate.Backend, "redis") && out.Redis == nil {
		out.Redis = rdb.NewClient(&rdb.Options{Addr: rc.Addr, DB: rc.DB})
		out.ownsRedis = true
	}

	if err := out.Store.Ping(ctx); err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("storefactory: ping: %w", err)
	}
	return out, nil
}
