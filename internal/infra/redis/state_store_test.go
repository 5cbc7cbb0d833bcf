package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-progression-service/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStateStoreRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewStateStore(client, "qp:")
	ctx := context.Background()

	if _, err := store.Load(ctx, "ledger"); !errors.Is(err, domain.ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}

	if err := store.Save(ctx, "ledger", []byte(`{"totalPoints":50}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("qp:ledger") {
		t.Fatalf("expected prefixed key to be set")
	}
	if ttl := mr.TTL("qp:ledger"); ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}

	raw, err := store.Load(ctx, "ledger")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(raw) != `{"totalPoints":50}` {
		t.Fatalf("unexpected blob %s", raw)
	}

	if err := store.Remove(ctx, "ledger"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mr.Exists("qp:ledger") {
		t.Fatalf("expected key to be removed")
	}
}

func TestStateStoreSurfacesConnectionErrors(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewStateStore(client, "qp:")
	mr.Close()

	if err := store.Save(context.Background(), "ledger", []byte("{}")); err == nil {
		t.Fatalf("expected error with redis down")
	}
	if _, err := store.Load(context.Background(), "ledger"); err == nil || errors.Is(err, domain.ErrStateNotFound) {
		t.Fatalf("expected connection error, got %v", err)
	}
}
