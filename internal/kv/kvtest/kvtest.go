// Package kvtest contiene la batería de tests compartida por todos los adapters de kv.
package kvtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellomail/internal/kv"
)

// Factory crea un Store vacío y aislado para un test.
type Factory func(t *testing.T) kv.Store

// Run ejecuta la batería contra el adapter que construye newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "otpCodes/nobody")
		require.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("SetGetOverwrite", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "otpCodes/a", map[string]any{"code": "123456", "attempts": 0}))
		require.NoError(t, s.Set(ctx, "otpCodes/a", map[string]any{"code": "654321"}))

		raw, err := s.Get(ctx, "otpCodes/a")
		require.NoError(t, err)
		require.JSONEq(t, `{"code":"654321"}`, string(raw))
	})

	t.Run("UpdateMerges", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "users/u1/gmail", map[string]any{"email": "a@b.com", "accessToken": "old"}))
		require.NoError(t, s.Update(ctx, "users/u1/gmail", map[string]any{"accessToken": "new", "expiresAt": 42}))

		raw, err := s.Get(ctx, "users/u1/gmail")
		require.NoError(t, err)
		require.JSONEq(t, `{"email":"a@b.com","accessToken":"new","expiresAt":42}`, string(raw))
	})

	t.Run("UpdateCreates", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Update(ctx, "a/b", map[string]any{"x": 1}))
		raw, err := s.Get(ctx, "a/b")
		require.NoError(t, err)
		require.JSONEq(t, `{"x":1}`, string(raw))
	})

	t.Run("RemoveIsRecursive", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "users/u1/gmail", map[string]any{"email": "a"}))
		require.NoError(t, s.Set(ctx, "users/u1/templates/t1", map[string]any{"name": "n"}))
		require.NoError(t, s.Set(ctx, "users/u10/gmail", map[string]any{"email": "keep"}))

		require.NoError(t, s.Remove(ctx, "users/u1"))
		require.NoError(t, s.Remove(ctx, "users/u1"), "remove de algo inexistente no falla")

		_, err := s.Get(ctx, "users/u1/gmail")
		require.ErrorIs(t, err, kv.ErrNotFound)
		_, err = s.Get(ctx, "users/u1/templates/t1")
		require.ErrorIs(t, err, kv.ErrNotFound)

		// un prefijo textual no es un ancestro
		_, err = s.Get(ctx, "users/u10/gmail")
		require.NoError(t, err)
	})

	t.Run("PushAndRange", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		var ids []string
		for i := 1; i <= 5; i++ {
			id, err := s.Push(ctx, "users/u1/emailHistory", map[string]any{"sentAt": i * 100, "subject": fmt.Sprintf("s%d", i)})
			require.NoError(t, err)
			ids = append(ids, id)
		}
		// un nieto no debe aparecer como hijo directo
		require.NoError(t, s.Set(ctx, "users/u1/emailHistory/"+ids[0]+"/meta", map[string]any{"sentAt": 1}))

		all, err := s.RangeByChild(ctx, "users/u1/emailHistory", "sentAt", 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i, e := range all {
			require.Equal(t, ids[i], e.Key)
		}

		last, err := s.RangeByChild(ctx, "users/u1/emailHistory", "sentAt", 2)
		require.NoError(t, err)
		require.Len(t, last, 2)

		var rec struct {
			Subject string `json:"subject"`
		}
		require.NoError(t, json.Unmarshal(last[1].Value, &rec))
		require.Equal(t, "s5", rec.Subject)

		empty, err := s.RangeByChild(ctx, "users/nobody/emailHistory", "sentAt", 10)
		require.NoError(t, err)
		require.Empty(t, empty)
	})

	t.Run("ConcurrentUpdatesKeepAllFields", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				require.NoError(t, s.Update(ctx, "conc/doc", map[string]any{fmt.Sprintf("f%d", i): i}))
			}(i)
		}
		wg.Wait()

		var m map[string]int
		require.NoError(t, kv.GetJSON(ctx, s, "conc/doc", &m))
		require.Len(t, m, 10)
	})

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
}
