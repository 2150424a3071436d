package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type recordingStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (r *recordingStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (r *recordingStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	r.lastKey = key
	r.lastTTL = ttl
	return r.setNXResult, r.setNXError
}

func (r *recordingStore) IdempotencyKey(scope, id string) string {
	return "lp:idempotency:" + scope + ":" + id
}

func (r *recordingStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		r.lastDeleted = keys[0]
	}
	return nil
}

func newTestManager(t *testing.T, store *recordingStore, ttl time.Duration) *Manager {
	t.Helper()
	manager, err := NewManager(store, ttl)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager
}

func TestCheckAndMarkProcessedClaimsNewEvent(t *testing.T) {
	store := &recordingStore{setNXResult: true}
	manager := newTestManager(t, store, 24*time.Hour)

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "orders-worker", eventID)
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if already {
		t.Fatalf("first claim must report not yet processed")
	}
	if want := "lp:idempotency:evt:processed:orders-worker:" + eventID.String(); store.lastKey != want {
		t.Fatalf("key = %q, want %q", store.lastKey, want)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("ttl = %v, want 24h", store.lastTTL)
	}
}

func TestCheckAndMarkProcessedDetectsDuplicate(t *testing.T) {
	manager := newTestManager(t, &recordingStore{setNXResult: false}, 12*time.Hour)

	already, err := manager.CheckAndMarkProcessed(context.Background(), "orders-worker", uuid.New())
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if !already {
		t.Fatalf("duplicate claim must report already processed")
	}
}

func TestCheckAndMarkProcessedPropagatesStoreError(t *testing.T) {
	manager := newTestManager(t, &recordingStore{setNXError: errors.New("boom")}, time.Hour)

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "orders-worker", uuid.New()); err == nil {
		t.Fatal("expected error from store")
	}
}

func TestDeleteReleasesClaim(t *testing.T) {
	store := &recordingStore{}
	manager := newTestManager(t, store, time.Hour)

	eventID := uuid.New()
	if err := manager.Delete(context.Background(), "orders-worker", eventID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if want := "lp:idempotency:evt:processed:orders-worker:" + eventID.String(); store.lastDeleted != want {
		t.Fatalf("deleted key = %q, want %q", store.lastDeleted, want)
	}
}
