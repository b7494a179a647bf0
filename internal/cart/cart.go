// Package cart holds the in-progress purchase for one kiosk session. A
// cart is a plain value owned by a single caller; persistence across
// requests goes through snapshots handed to the cache layer.
package cart

import (
	"fmt"

	"minibar/backend/internal/domain"
	"minibar/backend/internal/store"
)

type Cart struct {
	customerPhone string
	customerName  string
	items         []domain.CartItem
}

func New() *Cart {
	return &Cart{}
}

func FromSnapshot(snap domain.CartSnapshot) *Cart {
	c := &Cart{
		customerPhone: snap.CustomerPhone,
		customerName:  snap.CustomerName,
	}
	c.items = append(c.items, snap.Items...)
	return c
}

func (c *Cart) Snapshot() domain.CartSnapshot {
	snap := domain.CartSnapshot{
		CustomerPhone: c.customerPhone,
		CustomerName:  c.customerName,
	}
	snap.Items = append(snap.Items, c.items...)
	return snap
}

func (c *Cart) SetCustomer(phone string, name string) {
	c.customerPhone = phone
	c.customerName = name
}

func (c *Cart) Customer() (phone string, name string) {
	return c.customerPhone, c.customerName
}

// AddItem merges the requested quantity into the cart, refusing to let the
// combined quantity for the product exceed its current stock. On refusal
// the cart keeps its previous contents.
func (c *Cart) AddItem(product domain.Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalid)
	}

	existing := 0
	for _, item := range c.items {
		if item.ProductID == product.ID {
			existing = item.Quantity
			break
		}
	}
	if existing+quantity > product.Stock {
		return &store.StockExceededError{ProductID: product.ID, Available: product.Stock}
	}

	for i, item := range c.items {
		if item.ProductID == product.ID {
			c.items[i].Quantity += quantity
			return nil
		}
	}
	c.items = append(c.items, domain.CartItem{
		ProductID:      product.ID,
		ProductName:    product.Name,
		UnitPriceCents: product.PriceCents,
		Quantity:       quantity,
	})
	return nil
}

// RemoveItem drops the product's line entirely. Removing an absent product
// is a no-op.
func (c *Cart) RemoveItem(productID string) {
	for i, item := range c.items {
		if item.ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.items = nil
	c.customerPhone = ""
	c.customerName = ""
}

func (c *Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) TotalCents() int64 {
	var total int64
	for _, item := range c.items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	return total
}

// View renders the cart for the API layer with per-line and grand totals.
func (c *Cart) View() domain.CartView {
	view := domain.CartView{
		CustomerPhone: c.customerPhone,
		CustomerName:  c.customerName,
		TotalCents:    c.TotalCents(),
	}
	view.Items = append(view.Items, c.items...)
	return view
}
