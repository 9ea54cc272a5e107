// Package redis implementa kv.Store sobre Redis.
//
// Cada documento vive en "<prefix>doc:<path>" como string JSON. Para listar hijos y
// borrar recursivamente se mantiene un SET "<prefix>idx:<parent>" con los nombres de
// los hijos directos de cada path (incluye ancestros intermedios sin documento).
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellomail/internal/kv"
)

// maxTxRetries acota los reintentos de Update ante conflictos de WATCH.
const maxTxRetries = 16

// Config configura la conexión.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store implementa kv.Store.
type Store struct {
	client *redis.Client
	prefix string
	owned  bool
}

var _ kv.Store = (*Store)(nil)

// New conecta y verifica con un PING.
func New(cfg Config) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("kv: redis ping failed: %w", err)
	}
	return &Store{client: rdb, prefix: cfg.Prefix, owned: true}, nil
}

// NewWithClient reutiliza un cliente existente (no lo cierra en Close).
func NewWithClient(c *redis.Client, prefix string) *Store {
	return &Store{client: c, prefix: prefix}
}

// Client expone el cliente subyacente (lo comparte el rate limiter).
func (s *Store) Client() *redis.Client { return s.client }

func (s *Store) docKey(path string) string { return s.prefix + "doc:" + path }
func (s *Store) idxKey(path string) string { return s.prefix + "idx:" + path }

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	p, err := kv.Clean(path)
	if err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, s.docKey(p)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(val), nil
}

// indexAncestors agrega en pipe los SADD que registran p en la cadena de padres.
func (s *Store) indexAncestors(ctx context.Context, pipe redis.Pipeliner, p string) {
	for cur := p; ; {
		parent, key := kv.Split(cur)
		pipe.SAdd(ctx, s.idxKey(parent), key)
		if parent == "" {
			return
		}
		cur = parent
	}
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
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(p), []byte(raw), 0)
		s.indexAncestors(ctx, pipe, p)
		return nil
	})
	return err
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	p, err := kv.Clean(path)
	if err != nil {
		return err
	}
	key := s.docKey(p)

	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		merged, err := kv.Merge(cur, fields)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, []byte(merged), 0)
			s.indexAncestors(ctx, pipe, p)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("kv: update %s: too much contention", p)
}

func (s *Store) Remove(ctx context.Context, path string) error {
	p, err := kv.Clean(path)
	if err != nil {
		return err
	}
	var keys []string
	if err := s.collect(ctx, p, &keys); err != nil {
		return err
	}
	parent, key := kv.Split(p)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		pipe.SRem(ctx, s.idxKey(parent), key)
		return nil
	})
	return err
}

// collect junta las claves (doc + idx) de p y todos sus descendientes.
func (s *Store) collect(ctx context.Context, p string, out *[]string) error {
	*out = append(*out, s.docKey(p), s.idxKey(p))
	children, err := s.client.SMembers(ctx, s.idxKey(p)).Result()
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := s.collect(ctx, p+"/"+c, out); err != nil {
			return err
		}
	}
	return nil
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
	names, err := s.client.SMembers(ctx, s.idxKey(p)).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.docKey(p + "/" + n)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]kv.Entry, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// hijo intermedio sin documento propio
			continue
		}
		entries = append(entries, kv.Entry{Key: names[i], Value: json.RawMessage(str)})
	}
	return kv.SortByChild(entries, child, limitLast), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
