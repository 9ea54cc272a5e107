package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSweepExpired(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "111111", "222222", "333333")
	ctx := context.Background()

	require.NoError(t, f.engine.RequestChallenge(ctx, "old1@x.com"))
	require.NoError(t, f.engine.RequestChallenge(ctx, "old2@x.com"))
	f.clock.Advance(4 * time.Minute)
	require.NoError(t, f.engine.RequestChallenge(ctx, "fresh@x.com"))
	f.clock.Advance(2 * time.Minute)

	n, err := f.engine.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = f.challenge(t, "old1@x.com")
	require.Error(t, err)
	_, err = f.challenge(t, "fresh@x.com")
	require.NoError(t, err)

	n, err = f.engine.SweepExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestStartSweeper(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := StartSweeper(context.Background(), f.engine, "not a schedule")
	require.Error(t, err)

	c, err := StartSweeper(context.Background(), f.engine, "@every 1h")
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
