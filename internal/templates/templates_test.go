package templates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellomail/internal/kv/memory"
)

func newRepo() (*Repository, *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRepository(memory.New(), func() time.Time { return now })
	return r, &now
}

func TestRender(t *testing.T) {
	t.Parallel()
	tpl := Template{Subject: "Hola {{name}}", Body: "Load {{load}} from {{origin}} to {{dest}}. {{name}}!"}

	subject, body := Render(tpl, map[string]any{"name": "Ana", "load": 42.0, "origin": "{{dest}}"})
	require.Equal(t, "Hola Ana", subject)
	// {{dest}} sin variable queda literal; el valor de origin no se re-expande
	require.Equal(t, "Load 42 from {{dest}} to {{dest}}. Ana!", body)

	subject, body = Render(tpl, nil)
	require.Equal(t, tpl.Subject, subject)
	require.Equal(t, tpl.Body, body)
}

func TestRepositoryCRUD(t *testing.T) {
	t.Parallel()
	r, now := newRepo()
	ctx := context.Background()

	a, err := r.Create(ctx, "u1", Input{Name: "A", Subject: "S {{x}}", Body: "B"})
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	require.Equal(t, now.UnixMilli(), a.CreatedAt)

	*now = now.Add(time.Second)
	b, err := r.Create(ctx, "u1", Input{Name: "B", Subject: "S", Body: "B"})
	require.NoError(t, err)

	list, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, a.ID, list[0].ID)
	require.Equal(t, b.ID, list[1].ID)

	*now = now.Add(time.Second)
	upd, err := r.Update(ctx, "u1", a.ID, Input{Name: "A2", Subject: "S2", Body: "B2"})
	require.NoError(t, err)
	require.Equal(t, "A2", upd.Name)
	require.Equal(t, a.CreatedAt, upd.CreatedAt)
	require.Equal(t, now.UnixMilli(), upd.UpdatedAt)

	got, err := r.Get(ctx, "u1", a.ID)
	require.NoError(t, err)
	require.Equal(t, "B2", got.Body)

	require.NoError(t, r.Delete(ctx, "u1", a.ID))
	_, err = r.Get(ctx, "u1", a.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, "u1", a.ID), ErrNotFound)

	// otro usuario no ve los templates de u1
	other, err := r.List(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestRepositoryValidation(t *testing.T) {
	t.Parallel()
	r, _ := newRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, "u1", Input{Name: "", Subject: "S", Body: "B"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = r.Create(ctx, "u1", Input{Name: "N", Subject: "S\r\nBcc: x@y.com", Body: "B"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = r.Create(ctx, "bad/user", Input{Name: "N", Subject: "S", Body: "B"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = r.Get(ctx, "u1", "../x")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = r.Update(ctx, "u1", "missing", Input{Name: "N", Subject: "S", Body: "B"})
	require.ErrorIs(t, err, ErrNotFound)
}
