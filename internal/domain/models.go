package domain

import "time"

// Customer is identified by its normalized phone number. The phone doubles as
// the record ID and is immutable after creation; only the name may change.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type CustomerUpdateRequest struct {
	Name *string `json:"name,omitempty"`
}

type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
}

type ProductCreateRequest struct {
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	InitialStock int    `json:"initial_stock"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
}

type StockEntryRequest struct {
	Quantity int `json:"quantity"`
}

type StockAdjustRequest struct {
	NewStock int `json:"new_stock"`
}

// CartItem is a pre-commit line item. Name and price are snapshotted at
// add-time so later catalog edits do not retroactively alter an open cart.
type CartItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// CartSnapshot is the persisted shape of an in-progress cart, keyed by a
// kiosk session id so a page reload restores the cart.
type CartSnapshot struct {
	CustomerPhone string     `json:"customer_phone"`
	CustomerName  string     `json:"customer_name"`
	Items         []CartItem `json:"items"`
}

type CartView struct {
	CustomerPhone string     `json:"customer_phone"`
	CustomerName  string     `json:"customer_name"`
	Items         []CartItem `json:"items"`
	TotalCents    int64      `json:"total_cents"`
}

type SaleStatus string

const (
	SaleStatusPaid    SaleStatus = "Paid"
	SaleStatusPending SaleStatus = "Pending"
)

type SaleItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// Sale is a finalized ledger entry. RequestID is the caller-generated
// idempotency token; it is unique across the ledger.
type Sale struct {
	ID            string     `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Items         []SaleItem `json:"items"`
	Status        SaleStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	RequestID     string     `json:"request_id"`
}

func (s Sale) TotalCents() int64 {
	total := int64(0)
	for _, item := range s.Items {
		total += item.SubtotalCents
	}
	return total
}

type RegisterSaleRequest struct {
	CustomerPhone string     `json:"customer_phone"`
	CustomerName  string     `json:"customer_name"`
	Items         []CartItem `json:"items"`
	Paid          bool       `json:"paid"`
	RequestID     string     `json:"request_id"`
}

type RegisterSaleResponse struct {
	Sale      Sale `json:"sale"`
	Duplicate bool `json:"duplicate"`
}

// SettleOutcome reports the result for one sale id inside a batch settlement.
// Failures are collected per id rather than aborting the batch.
type SettleOutcome struct {
	SaleID string `json:"sale_id"`
	Paid   bool   `json:"paid"`
	Error  string `json:"error,omitempty"`
}

type SettlementResult struct {
	Outcomes []SettleOutcome `json:"outcomes"`
}

func (r SettlementResult) FailedCount() int {
	failed := 0
	for _, outcome := range r.Outcomes {
		if !outcome.Paid {
			failed++
		}
	}
	return failed
}

// StockRestoration records one line's stock give-back during sale deletion.
// Restored=false means the referenced product no longer exists and the
// restoration was skipped, which does not block the deletion itself.
type StockRestoration struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Restored  bool   `json:"restored"`
	Reason    string `json:"reason,omitempty"`
}

type SaleDeletionResult struct {
	SaleID       string             `json:"sale_id"`
	Restorations []StockRestoration `json:"restorations"`
}

type SalesReport struct {
	TotalPaidCents    int64  `json:"total_paid_cents"`
	TotalPendingCents int64  `json:"total_pending_cents"`
	TotalOverallCents int64  `json:"total_overall_cents"`
	Sales             []Sale `json:"sales"`
}

type ProductSummaryItem struct {
	ProductName       string `json:"product_name"`
	TotalQuantity     int    `json:"total_quantity"`
	TotalRevenueCents int64  `json:"total_revenue_cents"`
	TransactionsCount int    `json:"transactions_count"`
}

type InventoryReportItem struct {
	ProductName    string `json:"product_name"`
	Entries        int    `json:"entries"`
	Exits          int    `json:"exits"`
	InitialBalance int    `json:"initial_balance"`
	CurrentBalance int    `json:"current_balance"`
}

// Settings is the single mutable configuration value consumed by the
// persistence collaborator. ScriptURL, when set, overrides the
// environment-provided default.
type Settings struct {
	ScriptURL string `json:"script_url"`
}

type ReceiptEmailRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ReceiptEmail is an outbox record for a fire-and-forget receipt notification.
type ReceiptEmail struct {
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
}
