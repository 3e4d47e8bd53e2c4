package ratelimit

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func get(t *testing.T, app *fiber.App, userID string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestLocalBucketLimitsPerClient(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2})
	defer rl.Stop()
	app := newApp(rl)

	assert.Equal(t, 200, get(t, app, "alice"))
	assert.Equal(t, 200, get(t, app, "alice"))
	assert.Equal(t, 429, get(t, app, "alice"))
}

func TestRotatingUserHeaderSharesTheBudget(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2})
	defer rl.Stop()
	app := newApp(rl)

	assert.Equal(t, 200, get(t, app, "user-1"))
	assert.Equal(t, 200, get(t, app, "user-2"))
	assert.Equal(t, 429, get(t, app, "user-3"))
	assert.Equal(t, 429, get(t, app, ""))
}

type fakeCounter struct {
	counts map[string]int64
	err    error
}

func (f *fakeCounter) IncrementWindow(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func TestSharedCounterIsAuthoritative(t *testing.T) {
	// app.Test connections report 0.0.0.0 as the client IP.
	counter := &fakeCounter{counts: map[string]int64{"0.0.0.0": 5}}
	rl := New(Config{MaxRequestsPerMinute: 5, Shared: counter})
	defer rl.Stop()

	assert.Equal(t, 429, get(t, newApp(rl), "alice"))
}

func TestSharedCounterFailureFallsBackToLocal(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1, Shared: &fakeCounter{err: errors.New("redis down")}})
	defer rl.Stop()
	app := newApp(rl)

	assert.Equal(t, 200, get(t, app, "alice"))
	assert.Equal(t, 429, get(t, app, "alice"))
}

func TestStopIsIdempotent(t *testing.T) {
	rl := New(Config{})
	rl.Stop()
	rl.Stop()
}
