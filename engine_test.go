package goMFA

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	// Whole seconds so expiry timestamps round-trip through unix encoding.
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type mockDelivery struct {
	mu    sync.Mutex
	codes []string
	dests []string
	fail  bool
}

func (d *mockDelivery) Send(_ context.Context, code, destination string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fail {
		return errors.New("smtp connection refused")
	}
	d.codes = append(d.codes, code)
	d.dests = append(d.dests, destination)
	return nil
}

func (d *mockDelivery) lastCode(t *testing.T) string {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.codes) == 0 {
		t.Fatal("no code was delivered")
	}
	return d.codes[len(d.codes)-1]
}

func (d *mockDelivery) sendCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.codes)
}

func (d *mockDelivery) setFail(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

func newTestEngine(t *testing.T, rdb *redis.Client, delivery DeliveryChannel, clock Clock, cfg Config) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDelivery(delivery).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine
}

func TestBuilderRequiresDependencies(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	if _, err := New().WithDelivery(&mockDelivery{}).Build(); err == nil {
		t.Fatal("Build without redis should fail")
	}
	if _, err := New().WithRedis(rdb).Build(); err == nil {
		t.Fatal("Build without delivery channel should fail")
	}

	builder := New().WithRedis(rdb).WithDelivery(&mockDelivery{})
	if _, err := builder.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := builder.Build(); err == nil {
		t.Fatal("reusing a builder should fail")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := defaultConfig()
	cfg.Code.Digits = 4

	if _, err := New().WithConfig(cfg).WithRedis(rdb).WithDelivery(&mockDelivery{}).Build(); err == nil {
		t.Fatal("Build with invalid config should fail")
	}
}

func TestEngineNotReady(t *testing.T) {
	var engine *Engine

	if _, err := engine.Issue(context.Background(), "m1", "alice@example.com"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := engine.Validate(context.Background(), "m1", "000000"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
