// Package memory implementa kv.Store en proceso. Pensado para dev, tests y
// despliegues de una sola instancia.
package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/dropDatabas3/hellomail/internal/kv"
)

// Store guarda los documentos en un map protegido por un RWMutex.
type Store struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

var _ kv.Store = (*Store)(nil)

// New crea un Store vacío.
func New() *Store {
	return &Store{docs: make(map[string]json.RawMessage)}
}

func (s *Store) Get(_ context.Context, path string) (json.RawMessage, error) {
	p, err := kv.Clean(path)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[p]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (s *Store) Set(_ context.Context, path string, v any) error {
	p, err := kv.Clean(path)
	if err != nil {
		return err
	}
	raw, err := kv.Encode(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[p] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) Update(_ context.Context, path string, fields map[string]any) error {
	p, err := kv.Clean(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := kv.Merge(s.docs[p], fields)
	if err != nil {
		return err
	}
	s.docs[p] = merged
	return nil
}

func (s *Store) Remove(_ context.Context, path string) error {
	p, err := kv.Clean(path)
	if err != nil {
		return err
	}
	prefix := p + "/"
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, p)
	for k := range s.docs {
		if strings.HasPrefix(k, prefix) {
			delete(s.docs, k)
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

func (s *Store) RangeByChild(_ context.Context, path, child string, limitLast int) ([]kv.Entry, error) {
	p, err := kv.Clean(path)
	if err != nil {
		return nil, err
	}
	prefix := p + "/"
	s.mu.RLock()
	var entries []kv.Entry
	for k, v := range s.docs {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, kv.Entry{Key: rest, Value: append(json.RawMessage(nil), v...)})
	}
	s.mu.RUnlock()
	return kv.SortByChild(entries, child, limitLast), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Len devuelve la cantidad de documentos (útil en tests).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
