package rate

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryLimiter es el equivalente en proceso de RedisLimiter. Los contadores
// expiran solos con la ventana; go-cache limpia los vencidos periódicamente.
type MemoryLimiter struct {
	c      *cache.Cache
	Max    int64
	Window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      cache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	k, left := windowKey("", key, l.Window, l.now().UTC())

	// Add falla si ya existe: en ese caso el contador ya tiene su TTL.
	_ = l.c.Add(k, int64(0), left)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment: arranca ventana nueva
		l.c.Set(k, int64(1), left)
		hits = 1
	}
	return newResult(hits, l.Max, left), nil
}
