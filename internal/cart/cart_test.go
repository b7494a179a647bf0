package cart

import (
	"errors"
	"testing"

	"minibar/backend/internal/domain"
	"minibar/backend/internal/store"
)

var water = domain.Product{ID: "1", Name: "Água Mineral", PriceCents: 350, Stock: 5}
var soda = domain.Product{ID: "2", Name: "Coca-Cola Lata", PriceCents: 600, Stock: 30}

func TestAddItemMergesQuantities(t *testing.T) {
	c := New()

	if err := c.AddItem(water, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddItem(water, 1); err != nil {
		t.Fatalf("add again: %v", err)
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", items[0].Quantity)
	}
	if got := c.TotalCents(); got != 1050 {
		t.Fatalf("total = %d, want 1050", got)
	}
}

func TestAddItemRefusesExceedingStock(t *testing.T) {
	c := New()

	if err := c.AddItem(water, 4); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := c.AddItem(water, 2)
	var exceeded *store.StockExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected StockExceededError, got %v", err)
	}
	if exceeded.Available != 5 {
		t.Fatalf("available = %d, want 5", exceeded.Available)
	}

	// The refused add leaves the cart untouched.
	if c.Items()[0].Quantity != 4 {
		t.Fatalf("quantity after refusal = %d, want 4", c.Items()[0].Quantity)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	c := New()
	for _, qty := range []int{0, -1} {
		if err := c.AddItem(water, qty); !errors.Is(err, store.ErrInvalid) {
			t.Fatalf("quantity %d: expected ErrInvalid, got %v", qty, err)
		}
	}
	if !c.IsEmpty() {
		t.Fatal("expected cart to stay empty")
	}
}

func TestRemoveItemDropsWholeLine(t *testing.T) {
	c := New()
	if err := c.AddItem(water, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddItem(soda, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	c.RemoveItem(water.ID)
	items := c.Items()
	if len(items) != 1 || items[0].ProductID != soda.ID {
		t.Fatalf("unexpected items after removal: %+v", items)
	}

	// Removing an absent product is a no-op.
	c.RemoveItem("missing")
	if len(c.Items()) != 1 {
		t.Fatal("no-op removal changed the cart")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := New()
	c.SetCustomer("5511999999999", "João Silva")
	if err := c.AddItem(water, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	restored := FromSnapshot(c.Snapshot())
	phone, name := restored.Customer()
	if phone != "5511999999999" || name != "João Silva" {
		t.Fatalf("customer = %q/%q", phone, name)
	}
	if restored.TotalCents() != 700 {
		t.Fatalf("total = %d, want 700", restored.TotalCents())
	}

	// Mutating the restored cart does not leak into the snapshot source.
	restored.Clear()
	if c.IsEmpty() {
		t.Fatal("clearing a copy emptied the original")
	}
}

func TestClearResetsCustomerAndItems(t *testing.T) {
	c := New()
	c.SetCustomer("5511888888888", "Maria Souza")
	if err := c.AddItem(soda, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	c.Clear()
	if !c.IsEmpty() {
		t.Fatal("expected empty cart")
	}
	if phone, _ := c.Customer(); phone != "" {
		t.Fatalf("customer survived clear: %q", phone)
	}

	view := c.View()
	if view.TotalCents != 0 || len(view.Items) != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}
}
