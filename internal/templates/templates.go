// Package templates guarda los templates de email de cada usuario en
// users/<userId>/templates/<templateId>.
package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dropDatabas3/hellomail/internal/kv"
)

var (
	ErrNotFound     = errors.New("templates: not found")
	ErrInvalidInput = errors.New("templates: invalid input")
)

type Template struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Input son los campos editables.
type Input struct {
	Name    string
	Subject string
	Body    string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Subject) == "" || in.Body == "" {
		return fmt.Errorf("%w: name, subject and body are required", ErrInvalidInput)
	}
	if strings.ContainsAny(in.Subject, "\r\n") {
		return fmt.Errorf("%w: subject must be a single line", ErrInvalidInput)
	}
	return nil
}

type Repository struct {
	store kv.Store
	now   func() time.Time
}

func NewRepository(store kv.Store, now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{store: store, now: now}
}

func (r *Repository) root(userID string) (string, error) {
	p, err := kv.Join("users", userID, "templates")
	if err != nil {
		return "", fmt.Errorf("%w: userId", ErrInvalidInput)
	}
	return p, nil
}

func (r *Repository) path(userID, id string) (string, error) {
	root, err := r.root(userID)
	if err != nil {
		return "", err
	}
	if !kv.ValidSegment(id) {
		return "", fmt.Errorf("%w: templateId", ErrInvalidInput)
	}
	return root + "/" + id, nil
}

// List devuelve los templates del usuario, los más viejos primero.
func (r *Repository) List(ctx context.Context, userID string) ([]Template, error) {
	root, err := r.root(userID)
	if err != nil {
		return nil, err
	}
	entries, err := r.store.RangeByChild(ctx, root, "createdAt", 0)
	if err != nil {
		return nil, err
	}
	out := make([]Template, 0, len(entries))
	for _, e := range entries {
		var t Template
		if err := kv.Decode(e.Value, &t); err != nil {
			continue
		}
		t.ID = e.Key
		out = append(out, t)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, userID, id string) (*Template, error) {
	p, err := r.path(userID, id)
	if err != nil {
		return nil, err
	}
	var t Template
	if err := kv.GetJSON(ctx, r.store, p, &t); err != nil {
		if kv.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.ID = id
	return &t, nil
}

func (r *Repository) Create(ctx context.Context, userID string, in Input) (*Template, error) {
	root, err := r.root(userID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := r.now().UnixMilli()
	t := Template{Name: in.Name, Subject: in.Subject, Body: in.Body, CreatedAt: now, UpdatedAt: now}
	id, err := r.store.Push(ctx, root, t)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return &t, nil
}

// Update reemplaza los campos editables de un template existente.
func (r *Repository) Update(ctx context.Context, userID, id string, in Input) (*Template, error) {
	cur, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, _ := r.path(userID, id)
	now := r.now().UnixMilli()
	if err := r.store.Update(ctx, p, map[string]any{
		"name":      in.Name,
		"subject":   in.Subject,
		"body":      in.Body,
		"updatedAt": now,
	}); err != nil {
		return nil, err
	}
	cur.Name, cur.Subject, cur.Body, cur.UpdatedAt = in.Name, in.Subject, in.Body, now
	return cur, nil
}

func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.Get(ctx, userID, id); err != nil {
		return err
	}
	p, _ := r.path(userID, id)
	return r.store.Remove(ctx, p)
}

// Render reemplaza literalmente cada {{clave}} provista en subject y body.
// Los placeholders sin variable quedan tal cual. Es una sola pasada: un valor
// que contenga "{{otra}}" no se vuelve a expandir.
func Render(t Template, vars map[string]any) (subject, body string) {
	if len(vars) == 0 {
		return t.Subject, t.Body
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", stringify(vars[k]))
	}
	rep := strings.NewReplacer(pairs...)
	return rep.Replace(t.Subject), rep.Replace(t.Body)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
