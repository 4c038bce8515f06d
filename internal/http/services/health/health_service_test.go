package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("connection refused") }

func TestCheck(t *testing.T) {
	cases := []struct {
		name   string
		deps   Deps
		status string
		redis  string
	}{
		{"all ok", Deps{StoreName: "memory", StoreCheck: ok, RedisCheck: ok}, "ready", "ok"},
		{"redis disabled", Deps{StoreName: "memory", StoreCheck: ok}, "ready", "disabled"},
		{"redis down", Deps{StoreName: "memory", StoreCheck: ok, RedisCheck: fail}, "degraded", "error"},
		{"store down", Deps{StoreName: "memory", StoreCheck: fail, RedisCheck: ok}, "unavailable", "ok"},
		{"no store", Deps{StoreName: "memory"}, "unavailable", "disabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := NewHealthService(tc.deps).Check(context.Background())
			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, tc.redis, resp.Components["redis"].Status)
			assert.Contains(t, resp.Components, "store_memory")
		})
	}
}

func TestCheck_PingHasDeadline(t *testing.T) {
	var hasDeadline bool
	NewHealthService(Deps{StoreCheck: func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}}).Check(context.Background())
	assert.True(t, hasDeadline)
}

func TestCheck_HidesDriverErrors(t *testing.T) {
	leak := func(context.Context) error { return errors.New("dial tcp 10.0.0.5:5432: connection refused") }
	resp := NewHealthService(Deps{StoreName: "postgres", StoreCheck: leak, RedisCheck: leak}).Check(context.Background())

	assert.Equal(t, "unavailable", resp.Status)
	for name, c := range resp.Components {
		assert.Equal(t, "unavailable", c.Message, name)
		assert.NotContains(t, c.Message, "10.0.0.5", name)
	}
}
