package crm

import (
	"context"
	"testing"
	"time"

	"github.com/peterbiondo/solar-calculator-proxy/internal/domain"
)

func TestMemoryStoreGetBeforeExpiry(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(base)
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	store.Set(ctx, domain.AccessToken{Value: "tok-1", ExpiresAt: base.Add(time.Hour)})

	token, ok := store.Get(ctx)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if token.Value != "tok-1" {
		t.Fatalf("got token %q, want tok-1", token.Value)
	}
}

func TestMemoryStoreGetAfterExpiry(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(base)
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	store.Set(ctx, domain.AccessToken{Value: "tok-1", ExpiresAt: base.Add(time.Hour)})
	clock.Advance(time.Hour)

	if _, ok := store.Get(ctx); ok {
		t.Fatal("expected cache miss after expiry")
	}
}

func TestMemoryStoreClear(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(base)
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	store.Set(ctx, domain.AccessToken{Value: "tok-1", ExpiresAt: base.Add(time.Hour)})
	store.Clear(ctx)

	if _, ok := store.Get(ctx); ok {
		t.Fatal("expected cache miss after clear")
	}
}

func TestMemoryStoreEmptySlotMisses(t *testing.T) {
	store := NewMemoryStore()
	if _, ok := store.Get(context.Background()); ok {
		t.Fatal("expected miss on empty slot")
	}
}
