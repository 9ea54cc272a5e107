package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellomail/internal/kv"
	"github.com/dropDatabas3/hellomail/internal/kv/kvtest"
)

// Requiere un Redis real: TEST_REDIS_ADDR=127.0.0.1:6379
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR no configurado")
	}

	kvtest.Run(t, func(t *testing.T) kv.Store {
		prefix := fmt.Sprintf("hellomail-test:%d:", time.Now().UnixNano())
		s, err := New(Config{Addr: addr, Prefix: prefix})
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx := context.Background()
			iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
			for iter.Next(ctx) {
				s.client.Del(ctx, iter.Val())
			}
			_ = s.Close()
		})
		return s
	})
}
