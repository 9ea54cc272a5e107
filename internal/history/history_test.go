package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellomail/internal/kv/memory"
)

func TestClampLimit(t *testing.T) {
	t.Parallel()
	require.Equal(t, 50, ClampLimit(0))
	require.Equal(t, 50, ClampLimit(-3))
	require.Equal(t, 10, ClampLimit(10))
	require.Equal(t, 200, ClampLimit(500))
}

func TestListMostRecentFirst(t *testing.T) {
	t.Parallel()
	l := NewLog(memory.New())
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := l.Append(ctx, "u1", Record{To: "x@y.com", Subject: fmt.Sprintf("s%d", i), SentAt: int64(i * 1000), MessageID: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	recs, err := l.List(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "s5", recs[0].Subject)
	require.Equal(t, "s4", recs[1].Subject)
	require.Equal(t, "s3", recs[2].Subject)
	require.NotEmpty(t, recs[0].ID)

	all, err := l.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)

	_, err = l.List(ctx, "a/b", 1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogWithLimits(t *testing.T) {
	l := NewLog(nil).WithLimits(10, 20)
	require.Equal(t, 10, l.Clamp(0))
	require.Equal(t, 20, l.Clamp(99))
	require.Equal(t, 15, l.Clamp(15))

	l = NewLog(nil).WithLimits(300, 0)
	require.Equal(t, MaxLimit, l.Clamp(0))
}
