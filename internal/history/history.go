// Package history registra los envíos hechos por Gmail en
// users/<userId>/emailHistory/<pushId> (append-only).
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellomail/internal/kv"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var ErrInvalidInput = errors.New("history: invalid input")

type Record struct {
	ID         string `json:"id,omitempty"`
	To         string `json:"to"`
	Cc         string `json:"cc,omitempty"`
	Subject    string `json:"subject"`
	TemplateID string `json:"templateId,omitempty"`
	SentAt     int64  `json:"sentAt"`
	MessageID  string `json:"messageId"`
}

type Log struct {
	store        kv.Store
	defaultLimit int
	maxLimit     int
}

func NewLog(store kv.Store) *Log {
	return &Log{store: store, defaultLimit: DefaultLimit, maxLimit: MaxLimit}
}

// WithLimits ajusta default y máximo de List. Valores <= 0 conservan los actuales.
func (l *Log) WithLimits(def, max int) *Log {
	if def > 0 {
		l.defaultLimit = def
	}
	if max > 0 {
		l.maxLimit = max
	}
	if l.defaultLimit > l.maxLimit {
		l.defaultLimit = l.maxLimit
	}
	return l
}

func root(userID string) (string, error) {
	p, err := kv.Join("users", userID, "emailHistory")
	if err != nil {
		return "", fmt.Errorf("%w: userId", ErrInvalidInput)
	}
	return p, nil
}

// Append guarda rec y devuelve el id generado.
func (l *Log) Append(ctx context.Context, userID string, rec Record) (string, error) {
	p, err := root(userID)
	if err != nil {
		return "", err
	}
	rec.ID = ""
	return l.store.Push(ctx, p, rec)
}

// ClampLimit aplica DefaultLimit y MaxLimit al limit pedido.
func ClampLimit(n int) int { return clamp(n, DefaultLimit, MaxLimit) }

// Clamp aplica los límites configurados del log.
func (l *Log) Clamp(n int) int { return clamp(n, l.defaultLimit, l.maxLimit) }

func clamp(n, def, max int) int {
	switch {
	case n <= 0:
		return def
	case n > max:
		return max
	}
	return n
}

// List devuelve los últimos limit envíos, el más reciente primero.
func (l *Log) List(ctx context.Context, userID string, limit int) ([]Record, error) {
	p, err := root(userID)
	if err != nil {
		return nil, err
	}
	entries, err := l.store.RangeByChild(ctx, p, "sentAt", l.Clamp(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		var rec Record
		if err := kv.Decode(entries[i].Value, &rec); err != nil {
			continue
		}
		rec.ID = entries[i].Key
		out = append(out, rec)
	}
	return out, nil
}
