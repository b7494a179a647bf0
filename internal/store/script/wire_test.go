package script

import (
	"testing"
	"time"

	"minibar/backend/internal/domain"
)

func TestReaisToCentsRounds(t *testing.T) {
	cases := []struct {
		reais float64
		cents int64
	}{
		{3.50, 350},
		{4.555, 456},
		{0.1 + 0.2, 30}, // float noise must not leak into cents
		{0, 0},
	}
	for _, tc := range cases {
		if got := reaisToCents(tc.reais); got != tc.cents {
			t.Errorf("reaisToCents(%v) = %d, want %d", tc.reais, got, tc.cents)
		}
	}
}

func TestToSaleBuildsCompositeID(t *testing.T) {
	row := wireHistoryRow{
		Data:          "2026-08-30T14:05:00Z",
		Telefone:      "5511999999999",
		Nome:          "João Silva",
		Produto:       "Água Mineral",
		ValorUnitario: 3.5,
		Quantidade:    2,
		Subtotal:      7.0,
		Status:        "Pendente",
	}

	sale := toSale(row, 3)
	if sale.ID != "2026-08-30T14:05:00Z|5511999999999|3" {
		t.Fatalf("composite id = %q", sale.ID)
	}
	if sale.CreatedAt != time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC) {
		t.Fatalf("created at = %v", sale.CreatedAt)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected single line, got %d", len(sale.Items))
	}
	item := sale.Items[0]
	if item.UnitPriceCents != 350 || item.SubtotalCents != 700 || item.Quantity != 2 {
		t.Fatalf("unexpected line: %+v", item)
	}
	if sale.Status != domain.SaleStatusPending {
		t.Fatalf("status = %s, want Pending", sale.Status)
	}
}

func TestStatusFromWire(t *testing.T) {
	if got := statusFromWire("Pago"); got != domain.SaleStatusPaid {
		t.Fatalf("Pago = %s", got)
	}
	if got := statusFromWire("Pendente"); got != domain.SaleStatusPending {
		t.Fatalf("Pendente = %s", got)
	}
	if got := statusFromWire(""); got != domain.SaleStatusPending {
		t.Fatalf("empty = %s", got)
	}
}

func TestToSaleAcceptsDateOnlyTimestamps(t *testing.T) {
	sale := toSale(wireHistoryRow{Data: "2026-08-30", Telefone: "5511888888888"}, 0)
	if sale.CreatedAt != time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("created at = %v", sale.CreatedAt)
	}
}

func TestSplitSaleID(t *testing.T) {
	dateISO, phone, err := splitSaleID("2026-08-30T14:05:00Z|5511999999999|0")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if dateISO != "2026-08-30T14:05:00Z" || phone != "5511999999999" {
		t.Fatalf("split = %q, %q", dateISO, phone)
	}

	for _, bad := range []string{"", "just-an-id", "|5511999999999|0", "2026-08-30||0"} {
		if _, _, err := splitSaleID(bad); err == nil {
			t.Errorf("expected malformed id %q to be rejected", bad)
		}
	}
}

func TestProductTranslationKeepsCents(t *testing.T) {
	p := toProduct(wireProduct{ID: "2", Nome: "Coca-Cola Lata", Valor: 6.0, Estoque: 30})
	if p.PriceCents != 600 || p.Stock != 30 {
		t.Fatalf("unexpected product: %+v", p)
	}

	back := fromProduct(p)
	if back.Valor != 6.0 || back.Nome != "Coca-Cola Lata" {
		t.Fatalf("unexpected wire product: %+v", back)
	}
}

func TestCustomerKeyedByPhone(t *testing.T) {
	c := toCustomer(wireCustomer{Nome: "Maria Souza", Telefone: "5511888888888"})
	if c.ID != c.Phone || c.ID != "5511888888888" {
		t.Fatalf("unexpected customer: %+v", c)
	}
}

func TestFromSaleItemCarriesSubtotal(t *testing.T) {
	w := fromSaleItem(domain.SaleItem{
		ProductID:      "3",
		ProductName:    "Salgadinho",
		UnitPriceCents: 500,
		Quantity:       2,
		SubtotalCents:  1000,
	})
	if w.UnitPrice != 5.0 || w.Subtotal != 10.0 || w.Quantity != 2 {
		t.Fatalf("unexpected wire item: %+v", w)
	}
}
