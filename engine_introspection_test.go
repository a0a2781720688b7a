package goMFA

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInspectMethodStates(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	delivery := &mockDelivery{}
	clock := newFakeClock()
	engine := newTestEngine(t, rdb, delivery, clock, defaultConfig())

	snapshot, err := engine.InspectMethod(ctx, "m1")
	if err != nil {
		t.Fatalf("InspectMethod failed: %v", err)
	}
	if snapshot.State != StateEmpty {
		t.Fatalf("expected StateEmpty, got %v", snapshot.State)
	}

	result, err := engine.Issue(ctx, "m1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	snapshot, err = engine.InspectMethod(ctx, "m1")
	if err != nil {
		t.Fatalf("InspectMethod failed: %v", err)
	}
	if snapshot.State != StatePending {
		t.Fatalf("expected StatePending, got %v", snapshot.State)
	}
	if !snapshot.ExpiresAt.Equal(result.ExpiresAt) {
		t.Fatalf("snapshot expiry %v does not match issue result %v",
			snapshot.ExpiresAt, result.ExpiresAt)
	}
	if snapshot.FailureCount != 0 {
		t.Fatalf("fresh record must have zero failures, got %d", snapshot.FailureCount)
	}

	clock.Set(result.ExpiresAt.Add(time.Second))
	snapshot, err = engine.InspectMethod(ctx, "m1")
	if err != nil {
		t.Fatalf("InspectMethod failed: %v", err)
	}
	if snapshot.State != StateExpired {
		t.Fatalf("expected StateExpired, got %v", snapshot.State)
	}
}

func TestInspectMethodLockedBeatsExpired(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	delivery := &mockDelivery{}
	clock := newFakeClock()
	engine := newTestEngine(t, rdb, delivery, clock, defaultConfig())

	result, err := engine.Issue(ctx, "m1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	for i := 0; i < defaultConfig().Code.MaxFailures; i++ {
		if err := engine.Validate(ctx, "m1", wrongCode); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected ErrInvalidCode, got %v", err)
		}
	}

	// A record can be both past expiry and over its failure budget; the
	// lockout is what the caller must see.
	clock.Set(result.ExpiresAt.Add(time.Second))
	snapshot, err := engine.InspectMethod(ctx, "m1")
	if err != nil {
		t.Fatalf("InspectMethod failed: %v", err)
	}
	if snapshot.State != StateLocked {
		t.Fatalf("expected StateLocked, got %v", snapshot.State)
	}
}

func TestInspectMethodDoesNotMutate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	delivery := &mockDelivery{}
	clock := newFakeClock()
	engine := newTestEngine(t, rdb, delivery, clock, defaultConfig())

	result, err := engine.Issue(ctx, "m1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Observing an expired record must not clear it; only Validate does.
	clock.Set(result.ExpiresAt.Add(time.Second))
	for i := 0; i < 3; i++ {
		if _, err := engine.InspectMethod(ctx, "m1"); err != nil {
			t.Fatalf("InspectMethod failed: %v", err)
		}
	}
	if rdb.Exists(ctx, "mft:0:m1").Val() != 1 {
		t.Fatal("InspectMethod must not delete the record")
	}
}

func TestInspectMethodRejectsEmptyMethodID(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, &mockDelivery{}, newFakeClock(), defaultConfig())

	if _, err := engine.InspectMethod(context.Background(), ""); !errors.Is(err, ErrInvalidMethodID) {
		t.Fatalf("expected ErrInvalidMethodID, got %v", err)
	}
}
