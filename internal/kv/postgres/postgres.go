// Package postgres implementa kv.Store sobre una tabla kv_nodes (jsonb).
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/dropDatabas3/hellomail/migrations/postgres"

	"github.com/dropDatabas3/hellomail/internal/kv"
)

// Config configura el pool.
type Config struct {
	DSN      string
	MaxConns int32
	// Migrate aplica el schema embebido al abrir.
	Migrate bool
}

// Store implementa kv.Store.
type Store struct{ pool *pgxpool.Pool }

var _ kv.Store = (*Store)(nil)

// New abre el pool, verifica conectividad y opcionalmente migra.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("kv: postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("kv: postgres ping failed: %w", err)
	}
	s := &Store{pool: pool}
	if cfg.Migrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// Migrate ejecuta en orden los .sql embebidos. Son idempotentes.
func (s *Store) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations.KVFS, migrations.KVDir+"/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		sql, err := migrations.KVFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", f, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("applying %s: %w", f, err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	p, err := kv.Clean(path)
	if err != nil {
		return nil, err
	}
	var raw []byte
	err = s.pool.QueryRow(ctx, `SELECT value FROM kv_nodes WHERE path = $1`, p).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (s *Store) Set(ctx context.Context, path string, v any) error {
	p, err := kv.Clean(path)
	if err != nil {
		return err
	}
	raw, err := kv.Encode(v)
	if err != nil {
		return err
	}
	parent, _ := kv.Split(p)
	const query = `
		INSERT INTO kv_nodes (path, parent, value, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	_, err = s.pool.Exec(ctx, query, p, parent, string(raw))
	return err
}

// Update usa el merge shallow de jsonb (||), atómico en una sola sentencia.
// Los fields nil se eliminan con el operador "-".
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := kv.Clean(path)
	if err != nil {
		return err
	}
	set := make(map[string]any, len(fields))
	var drop []string
	for k, v := range fields {
		if v == nil {
			drop = append(drop, k)
			continue
		}
		set[k] = v
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return err
	}
	if drop == nil {
		drop = []string{}
	}
	parent, _ := kv.Split(p)
	const query = `
		INSERT INTO kv_nodes (path, parent, value, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (path) DO UPDATE
		SET value = (kv_nodes.value || EXCLUDED.value) - $4::text[], updated_at = NOW()
	`
	_, err = s.pool.Exec(ctx, query, p, parent, string(raw), drop)
	return err
}

// Remove usa starts_with en vez de LIKE: "_" es frecuente en las claves normalizadas.
func (s *Store) Remove(ctx context.Context, path string) error {
	p, err := kv.Clean(path)
	if err != nil {
		return err
	}
	const query = `DELETE FROM kv_nodes WHERE path = $1 OR starts_with(path, $1 || '/')`
	_, err = s.pool.Exec(ctx, query, p)
	return err
}

func (s *Store) Push(ctx context.Context, path string, v any) (string, error) {
	id, err := kv.NewPushID()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, path+"/"+id, v); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) RangeByChild(ctx context.Context, path, child string, limitLast int) ([]kv.Entry, error) {
	p, err := kv.Clean(path)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT path, value FROM kv_nodes WHERE parent = $1`, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []kv.Entry
	for rows.Next() {
		var full string
		var raw []byte
		if err := rows.Scan(&full, &raw); err != nil {
			return nil, err
		}
		_, key := kv.Split(full)
		entries = append(entries, kv.Entry{Key: key, Value: json.RawMessage(raw)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return kv.SortByChild(entries, child, limitLast), nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool expone el pool para métricas.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }
