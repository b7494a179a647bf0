package memory

import (
	"context"
	"errors"
	"testing"

	"minibar/backend/internal/domain"
	"minibar/backend/internal/store"
)

func TestListProductsCollatedOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, name := range []string{"Coca-Cola Lata", "Água Mineral", "chocolate", "Áçaí"} {
		if _, err := s.CreateProduct(ctx, domain.Product{Name: name, PriceCents: 100, Stock: 1}); err != nil {
			t.Fatalf("create product %q: %v", name, err)
		}
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}

	got := make([]string, 0, len(products))
	for _, p := range products {
		got = append(got, p.Name)
	}
	// Accent- and case-aware pt-BR ordering: Áçaí < Água < chocolate < Coca.
	want := []string{"Áçaí", "Água Mineral", "chocolate", "Coca-Cola Lata"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("collated order mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}

func TestCreateCustomerRejectsDuplicatePhone(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.CreateCustomer(ctx, domain.Customer{Name: "Outro João", Phone: "5511999999999"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateSaleDeductsStockAndIndexesRequestID(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	sale := domain.Sale{
		CustomerPhone: "5511999999999",
		CustomerName:  "João Silva",
		Status:        domain.SaleStatusPending,
		RequestID:     "req-1",
		Items: []domain.SaleItem{
			{ProductID: "1", ProductName: "Água Mineral", UnitPriceCents: 350, Quantity: 3, SubtotalCents: 1050},
		},
	}

	created, err := s.CreateSale(ctx, sale)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", created)
	}

	product, err := s.GetProductByID(ctx, "1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 47 {
		t.Fatalf("stock after sale = %d, want 47", product.Stock)
	}

	if _, err := s.CreateSale(ctx, sale); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate request id to be rejected, got %v", err)
	}

	found, err := s.FindSaleByRequestID(ctx, "req-1")
	if err != nil {
		t.Fatalf("find by request id: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("request id resolves to %s, want %s", found.ID, created.ID)
	}
}

func TestDeleteSaleRestoresStockAndSkipsMissingProducts(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	created, err := s.CreateSale(ctx, domain.Sale{
		CustomerPhone: "5511999999999",
		Status:        domain.SaleStatusPending,
		RequestID:     "req-del",
		Items: []domain.SaleItem{
			{ProductID: "1", ProductName: "Água Mineral", UnitPriceCents: 350, Quantity: 3, SubtotalCents: 1050},
			{ProductID: "4", ProductName: "Chocolate", UnitPriceCents: 450, Quantity: 2, SubtotalCents: 900},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if err := s.DeleteProduct(ctx, "4"); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	result, err := s.DeleteSale(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if len(result.Restorations) != 2 {
		t.Fatalf("expected 2 restorations, got %d", len(result.Restorations))
	}
	if !result.Restorations[0].Restored {
		t.Fatalf("expected first line restored: %+v", result.Restorations[0])
	}
	if result.Restorations[1].Restored {
		t.Fatalf("expected deleted product's line skipped: %+v", result.Restorations[1])
	}

	product, err := s.GetProductByID(ctx, "1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 50 {
		t.Fatalf("stock after restore = %d, want 50", product.Stock)
	}

	if _, err := s.GetSaleByID(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected deleted sale to be gone, got %v", err)
	}
	// The request id is released with the sale.
	if _, err := s.FindSaleByRequestID(ctx, "req-del"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected request id to be released, got %v", err)
	}
}

func TestListSalesByPhoneNewestFirst(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	for i, req := range []string{"req-a", "req-b", "req-c"} {
		_, err := s.CreateSale(ctx, domain.Sale{
			CustomerPhone: "5511999999999",
			Status:        domain.SaleStatusPending,
			RequestID:     req,
			Items: []domain.SaleItem{
				{ProductID: "1", ProductName: "Água Mineral", UnitPriceCents: 350, Quantity: i + 1, SubtotalCents: int64(i+1) * 350},
			},
		})
		if err != nil {
			t.Fatalf("create sale %s: %v", req, err)
		}
	}

	history, err := s.ListSalesByPhone(ctx, "5511999999999")
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 sales, got %d", len(history))
	}
	if history[0].RequestID != "req-c" || history[2].RequestID != "req-a" {
		t.Fatalf("expected newest-first order, got %s..%s", history[0].RequestID, history[2].RequestID)
	}

	other, err := s.ListSalesByPhone(ctx, "5511888888888")
	if err != nil {
		t.Fatalf("list sales other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty history for other phone, got %d", len(other))
	}
}

func TestMarkSalePaidIsIdempotent(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	created, err := s.CreateSale(ctx, domain.Sale{
		CustomerPhone: "5511999999999",
		Status:        domain.SaleStatusPending,
		RequestID:     "req-pay",
		Items: []domain.SaleItem{
			{ProductID: "1", ProductName: "Água Mineral", UnitPriceCents: 350, Quantity: 1, SubtotalCents: 350},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	for i := 0; i < 2; i++ {
		paid, err := s.MarkSalePaid(ctx, created.ID)
		if err != nil {
			t.Fatalf("mark paid attempt %d: %v", i+1, err)
		}
		if paid.Status != domain.SaleStatusPaid {
			t.Fatalf("attempt %d: status = %s, want Paid", i+1, paid.Status)
		}
	}

	if _, err := s.MarkSalePaid(ctx, "sale-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown sale, got %v", err)
	}
}

func TestAdjustStockAllowsAbsoluteOverwrite(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.SetStock(ctx, "1", 7); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	product, err := s.GetProductByID(ctx, "1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 7 {
		t.Fatalf("stock = %d, want 7", product.Stock)
	}

	if err := s.AddStock(ctx, "1", 0); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected non-positive entry to be rejected, got %v", err)
	}
	if err := s.AddStock(ctx, "missing", 5); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestReceiptOutboxRecordsRequests(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.SendReceiptEmail(ctx, "5511999999999", "joao@example.com"); err != nil {
		t.Fatalf("send receipt: %v", err)
	}
	outbox := s.ReceiptOutbox()
	if len(outbox) != 1 || outbox[0].Email != "joao@example.com" {
		t.Fatalf("unexpected outbox contents: %+v", outbox)
	}
}
