package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellomail/internal/kv"
	"github.com/dropDatabas3/hellomail/internal/kv/memory"
)

// ─── fakes ───

type sentMail struct {
	To, Subject, HTML, Text string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, html, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, html, text})
	return nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	engine *Engine
	store  *memory.Store
	sender *fakeSender
	clock  *clock
	codes  []string
}

func newFixture(t *testing.T, codes ...string) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.New(),
		sender: &fakeSender{},
		clock:  &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		codes:  codes,
	}
	var mu sync.Mutex
	gen := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(f.codes) == 0 {
			return RandomCode()
		}
		c := f.codes[0]
		f.codes = f.codes[1:]
		return c, nil
	}
	e, err := NewEngine(Config{Brand: "Load Radar AI"}, Deps{
		Store:  f.store,
		Sender: f.sender,
		Now:    f.clock.Now,
		Codes:  gen,
	})
	require.NoError(t, err)
	f.engine = e
	return f
}

func (f *fixture) challenge(t *testing.T, address string) (Challenge, error) {
	t.Helper()
	var ch Challenge
	err := kv.GetJSON(context.Background(), f.store, RootPath+"/"+Normalize(address), &ch)
	return ch, err
}

// ─── tests ───

func TestNormalize(t *testing.T) {
	t.Parallel()
	require.Equal(t, "john_doe_at_example_com", Normalize(" John.Doe@Example.com "))
	require.Equal(t, "a_b_c_d_e_f", Normalize("a/b#c$d[e]f"))
	require.Equal(t, Normalize("a.b@x.com"), Normalize("A.B@X.COM"))
	// distintos separadores reservados colisionan en la misma clave
	require.Equal(t, Normalize("a.b@x.com"), Normalize("a/b@x#com"))
	require.True(t, kv.ValidSegment(Normalize("x.y@z.io")))
}

func TestRandomCodeRange(t *testing.T) {
	t.Parallel()
	for i := 0; i < 2000; i++ {
		c, err := RandomCode()
		require.NoError(t, err)
		require.Len(t, c, 6)
		require.GreaterOrEqual(t, c, "100000")
		require.LessOrEqual(t, c, "999999")
	}
}

func TestRequestChallenge_StoresAndSends(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "123456")
	ctx := context.Background()

	require.NoError(t, f.engine.RequestChallenge(ctx, "User@Example.com"))

	ch, err := f.challenge(t, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, "123456", ch.Code)
	require.Equal(t, 0, ch.Attempts)
	require.Equal(t, f.clock.Now().UnixMilli(), ch.CreatedAt)
	require.Equal(t, f.clock.Now().Add(5*time.Minute).UnixMilli(), ch.ExpiresAt)

	require.Len(t, f.sender.sent, 1)
	m := f.sender.sent[0]
	require.Equal(t, "User@Example.com", m.To)
	require.Equal(t, "Your verification code", m.Subject)
	require.Contains(t, m.HTML, "123456")
	require.Contains(t, m.Text, "5 minutes")
}

func TestRequestChallenge_OverwritesPrevious(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "111111", "222222")
	ctx := context.Background()

	require.NoError(t, f.engine.RequestChallenge(ctx, "a@b.com"))
	var mm *MismatchError
	require.ErrorAs(t, f.engine.VerifyChallenge(ctx, "a@b.com", "000000"), &mm)

	require.NoError(t, f.engine.RequestChallenge(ctx, "a@b.com"))
	ch, err := f.challenge(t, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, "222222", ch.Code)
	require.Equal(t, 0, ch.Attempts)

	require.ErrorAs(t, f.engine.VerifyChallenge(ctx, "a@b.com", "111111"), &mm, "el código viejo ya no sirve")
	require.NoError(t, f.engine.VerifyChallenge(ctx, "a@b.com", "222222"))
}

func TestRequestChallenge_DispatchFailureKeepsChallenge(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "654321")
	f.sender.err = errors.New("dial tcp: connection refused")
	ctx := context.Background()

	err := f.engine.RequestChallenge(ctx, "a@b.com")
	require.ErrorIs(t, err, ErrDispatch)

	_, err = f.challenge(t, "a@b.com")
	require.NoError(t, err)
	require.NoError(t, f.engine.VerifyChallenge(ctx, "a@b.com", "654321"))
}

func TestRequestChallenge_InvalidAddress(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.ErrorIs(t, f.engine.RequestChallenge(context.Background(), "   "), ErrInvalidInput)
	require.ErrorIs(t, f.engine.VerifyChallenge(context.Background(), "a@b.com", " "), ErrInvalidInput)
	require.Empty(t, f.sender.sent)
}

func TestVerifyChallenge_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.ErrorIs(t, f.engine.VerifyChallenge(context.Background(), "nobody@x.com", "123456"), ErrChallengeNotFound)
}

func TestVerifyChallenge_SuccessConsumes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "123456")
	ctx := context.Background()
	require.NoError(t, f.engine.RequestChallenge(ctx, "A.B@x.com"))

	require.NoError(t, f.engine.VerifyChallenge(ctx, " a.b@X.COM ", " 123456 "))
	require.ErrorIs(t, f.engine.VerifyChallenge(ctx, "a.b@x.com", "123456"), ErrChallengeNotFound)
}

func TestVerifyChallenge_AttemptsSequence(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "123456")
	ctx := context.Background()
	require.NoError(t, f.engine.RequestChallenge(ctx, "a@b.com"))

	for want := 4; want >= 0; want-- {
		err := f.engine.VerifyChallenge(ctx, "a@b.com", "999999")
		var mm *MismatchError
		require.ErrorAs(t, err, &mm)
		require.ErrorIs(t, err, ErrCodeMismatch)
		require.Equal(t, want, mm.Remaining)
	}

	// el quinto fallo deja el challenge guardado con attempts=5
	ch, err := f.challenge(t, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, 5, ch.Attempts)

	// incluso con el código correcto: agotado y borrado
	require.ErrorIs(t, f.engine.VerifyChallenge(ctx, "a@b.com", "123456"), ErrAttemptsExhausted)
	require.ErrorIs(t, f.engine.VerifyChallenge(ctx, "a@b.com", "123456"), ErrChallengeNotFound)
}

func TestVerifyChallenge_Expiry(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "123456", "222222")
	ctx := context.Background()

	require.NoError(t, f.engine.RequestChallenge(ctx, "a@b.com"))
	f.clock.Advance(5 * time.Minute) // justo en expiresAt sigue vigente
	require.NoError(t, f.engine.VerifyChallenge(ctx, "a@b.com", "123456"))

	require.NoError(t, f.engine.RequestChallenge(ctx, "a@b.com"))
	f.clock.Advance(5*time.Minute + time.Millisecond)
	require.ErrorIs(t, f.engine.VerifyChallenge(ctx, "a@b.com", "222222"), ErrExpired)
	require.ErrorIs(t, f.engine.VerifyChallenge(ctx, "a@b.com", "222222"), ErrChallengeNotFound)
}

func TestVerifyChallenge_ExhaustedCheckedBeforeExpiry(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "123456")
	ctx := context.Background()
	require.NoError(t, f.engine.RequestChallenge(ctx, "a@b.com"))
	for i := 0; i < 5; i++ {
		_ = f.engine.VerifyChallenge(ctx, "a@b.com", "000000")
	}
	f.clock.Advance(time.Hour)
	require.ErrorIs(t, f.engine.VerifyChallenge(ctx, "a@b.com", "123456"), ErrAttemptsExhausted)
}

func TestVerifyChallenge_ConcurrentGuessesAreCounted(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "123456")
	ctx := context.Background()
	require.NoError(t, f.engine.RequestChallenge(ctx, "a@b.com"))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.engine.VerifyChallenge(ctx, "a@b.com", "000000")
		}()
	}
	wg.Wait()
	close(errs)

	var mismatches, exhausted, notFound int
	for err := range errs {
		switch {
		case errors.Is(err, ErrCodeMismatch):
			mismatches++
		case errors.Is(err, ErrAttemptsExhausted):
			exhausted++
		case errors.Is(err, ErrChallengeNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 5, mismatches)
	require.Equal(t, 1, exhausted)
	require.Equal(t, n-6, notFound)
	require.Zero(t, f.engine.locks.size())
}

func TestNewEngine_RequiresDeps(t *testing.T) {
	t.Parallel()
	_, err := NewEngine(Config{}, Deps{Store: memory.New()})
	require.Error(t, err)
}
