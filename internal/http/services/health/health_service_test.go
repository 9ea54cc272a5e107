package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("down") }

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		deps     Deps
		expected string
	}{
		{"all ok", Deps{Critical: map[string]Checker{"store": ok}, Optional: map[string]Checker{"redis": ok}}, "ready"},
		{"optional down", Deps{Critical: map[string]Checker{"store": ok}, Optional: map[string]Checker{"redis": fail}}, "degraded"},
		{"critical down", Deps{Critical: map[string]Checker{"store": fail}, Optional: map[string]Checker{"redis": fail}}, "unavailable"},
		{"disabled", Deps{Critical: map[string]Checker{"store": ok}, Optional: map[string]Checker{"redis": nil}}, "ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewHealthService(tt.deps).Check(context.Background())
			assert.Equal(t, tt.expected, resp.Status)
			assert.Len(t, resp.Components, len(tt.deps.Critical)+len(tt.deps.Optional))
		})
	}

	resp := NewHealthService(Deps{Optional: map[string]Checker{"redis": nil}}).Check(context.Background())
	assert.Equal(t, "disabled", resp.Components["redis"].Status)
}
