package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minibar/backend/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid input")
	ErrDuplicate = errors.New("already exists")
	ErrTransport = errors.New("persistence unavailable")
)

// StockExceededError is returned when a cart admission would exceed the
// available stock. It carries the available quantity for display.
type StockExceededError struct {
	ProductID string
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("quantity exceeds available stock (%d)", e.Available)
}

// Repository is the narrow persistence contract the core depends on. It is
// implemented by the in-memory store, the postgres store and the remote
// script client; callers never see backend-specific shapes or field names.
//
// CreateSale deducts stock for every line item as part of the commit;
// DeleteSale restores it. No other caller mutates stock as a sale side
// effect.
type Repository interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomerName(ctx context.Context, phone string, name string) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, phone string) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AddStock(ctx context.Context, id string, quantity int) error
	SetStock(ctx context.Context, id string, newStock int) error

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	FindSaleByRequestID(ctx context.Context, requestID string) (*domain.Sale, error)
	ListSalesByPhone(ctx context.Context, phone string) ([]domain.Sale, error)
	MarkSalePaid(ctx context.Context, id string) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) (*domain.SaleDeletionResult, error)

	GetSalesReport(ctx context.Context, from time.Time, to time.Time) (domain.SalesReport, error)
	GetProductSummary(ctx context.Context, from time.Time, to time.Time) ([]domain.ProductSummaryItem, error)
	GetInventoryReport(ctx context.Context, from time.Time, to time.Time) ([]domain.InventoryReportItem, error)

	GetSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error

	SendReceiptEmail(ctx context.Context, phone string, email string) error
}
