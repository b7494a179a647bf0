package cache

import (
	"context"
	"testing"
	"time"

	"minibar/backend/internal/domain"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	snap := domain.CartSnapshot{
		CustomerPhone: "5511999999999",
		Items: []domain.CartItem{
			{ProductID: "1", ProductName: "Água Mineral", UnitPriceCents: 350, Quantity: 2},
		},
	}
	if err := c.Set(ctx, "kiosk", snap, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "kiosk")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.CustomerPhone != snap.CustomerPhone || len(got.Items) != 1 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	if _, ok, _ := c.Get(ctx, "other-session"); ok {
		t.Fatal("sessions must not share carts")
	}

	if err := c.Delete(ctx, "kiosk"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "kiosk"); ok {
		t.Fatal("expected deleted entry to be gone")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if err := c.Set(ctx, "kiosk", domain.CartSnapshot{}, time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "kiosk"); ok {
		t.Fatal("expected expired entry to be gone")
	}
}
