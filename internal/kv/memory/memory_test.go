package memory

import (
	"testing"

	"github.com/dropDatabas3/hellomail/internal/kv"
	"github.com/dropDatabas3/hellomail/internal/kv/kvtest"
)

func TestMemoryStore(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store { return New() })
}
