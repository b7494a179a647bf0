// Package service implements the application core: customer and catalog
// management, cart sessions, the sale ledger and reporting, all on top of
// the Repository contract.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"minibar/backend/internal/cache"
	"minibar/backend/internal/cart"
	"minibar/backend/internal/domain"
	"minibar/backend/internal/format"
	"minibar/backend/internal/ids"
	"minibar/backend/internal/phone"
	"minibar/backend/internal/store"
)

// ErrCustomerHasHistory blocks customer deletion while sales reference the
// phone, keeping historical reports attributable.
var ErrCustomerHasHistory = errors.New("customer has sale history")

const defaultCartTTL = 12 * time.Hour

type Service struct {
	repo    store.Repository
	carts   cache.CartCache
	cartTTL time.Duration
	logger  *log.Logger
}

func New(repo store.Repository, carts cache.CartCache, cartTTL time.Duration, logger *log.Logger) *Service {
	if cartTTL <= 0 {
		cartTTL = defaultCartTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, carts: carts, cartTTL: cartTTL, logger: logger}
}

// ---- customers ----

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, rawPhone string) (*domain.Customer, error) {
	normalized := phone.Normalize(rawPhone)
	if !phone.IsValid(normalized) {
		return nil, fmt.Errorf("%w: invalid phone number", store.ErrInvalid)
	}
	return s.repo.GetCustomerByPhone(ctx, normalized)
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (*domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrInvalid)
	}
	normalized := phone.Normalize(req.Phone)
	if !phone.IsValid(normalized) {
		return nil, fmt.Errorf("%w: invalid phone number", store.ErrInvalid)
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{Name: name, Phone: normalized})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[service] customer created phone=%s", created.Phone)
	return created, nil
}

// UpdateCustomer changes the name only; the phone is the identity and
// cannot be edited in place.
func (s *Service) UpdateCustomer(ctx context.Context, rawPhone string, req domain.CustomerUpdateRequest) (*domain.Customer, error) {
	normalized := phone.Normalize(rawPhone)
	if !phone.IsValid(normalized) {
		return nil, fmt.Errorf("%w: invalid phone number", store.ErrInvalid)
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrInvalid)
	}
	return s.repo.UpdateCustomerName(ctx, normalized, strings.TrimSpace(*req.Name))
}

func (s *Service) DeleteCustomer(ctx context.Context, rawPhone string) error {
	normalized := phone.Normalize(rawPhone)
	if !phone.IsValid(normalized) {
		return fmt.Errorf("%w: invalid phone number", store.ErrInvalid)
	}

	history, err := s.repo.ListSalesByPhone(ctx, normalized)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		return ErrCustomerHasHistory
	}
	return s.repo.DeleteCustomer(ctx, normalized)
}

// ---- catalog ----

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product id is required", store.ErrInvalid)
	}
	return s.repo.GetProductByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrInvalid)
	}
	if req.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", store.ErrInvalid)
	}
	if req.InitialStock < 0 {
		return nil, fmt.Errorf("%w: initial stock cannot be negative", store.ErrInvalid)
	}
	return s.repo.CreateProduct(ctx, domain.Product{
		Name:       name,
		PriceCents: req.PriceCents,
		Stock:      req.InitialStock,
	})
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	current, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", store.ErrInvalid)
		}
		current.Name = name
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", store.ErrInvalid)
		}
		current.PriceCents = *req.PriceCents
	}
	return s.repo.UpdateProduct(ctx, *current)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: product id is required", store.ErrInvalid)
	}
	return s.repo.DeleteProduct(ctx, id)
}

// RegisterStockEntry adds a positive received quantity to the product.
func (s *Service) RegisterStockEntry(ctx context.Context, id string, req domain.StockEntryRequest) (*domain.Product, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalid)
	}
	if err := s.repo.AddStock(ctx, id, req.Quantity); err != nil {
		return nil, err
	}
	return s.repo.GetProductByID(ctx, id)
}

// AdjustStock overwrites the stock with an absolute count, e.g. after a
// physical recount. Zero is allowed; negative is not.
func (s *Service) AdjustStock(ctx context.Context, id string, req domain.StockAdjustRequest) (*domain.Product, error) {
	if req.NewStock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", store.ErrInvalid)
	}
	if err := s.repo.SetStock(ctx, id, req.NewStock); err != nil {
		return nil, err
	}
	return s.repo.GetProductByID(ctx, id)
}

// ---- cart sessions ----

func (s *Service) loadCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	snap, ok, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return cart.New(), nil
	}
	return cart.FromSnapshot(*snap), nil
}

func (s *Service) saveCart(ctx context.Context, sessionID string, c *cart.Cart) error {
	return s.carts.Set(ctx, sessionID, c.Snapshot(), s.cartTTL)
}

func (s *Service) Cart(ctx context.Context, sessionID string) (domain.CartView, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, err
	}
	return c.View(), nil
}

func (s *Service) SetCartCustomer(ctx context.Context, sessionID string, rawPhone string) (domain.CartView, error) {
	normalized := phone.Normalize(rawPhone)
	if !phone.IsValid(normalized) {
		return domain.CartView{}, fmt.Errorf("%w: invalid phone number", store.ErrInvalid)
	}
	customer, err := s.repo.GetCustomerByPhone(ctx, normalized)
	if err != nil {
		return domain.CartView{}, err
	}

	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, err
	}
	c.SetCustomer(customer.Phone, customer.Name)
	if err := s.saveCart(ctx, sessionID, c); err != nil {
		return domain.CartView{}, err
	}
	return c.View(), nil
}

// AddToCart verifies the product and its stock at admission time; the
// quantity already in the cart counts against the available stock.
func (s *Service) AddToCart(ctx context.Context, sessionID string, productID string, quantity int) (domain.CartView, error) {
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return domain.CartView{}, err
	}

	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := c.AddItem(*product, quantity); err != nil {
		return domain.CartView{}, err
	}
	if err := s.saveCart(ctx, sessionID, c); err != nil {
		return domain.CartView{}, err
	}
	return c.View(), nil
}

func (s *Service) RemoveFromCart(ctx context.Context, sessionID string, productID string) (domain.CartView, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, err
	}
	c.RemoveItem(productID)
	if err := s.saveCart(ctx, sessionID, c); err != nil {
		return domain.CartView{}, err
	}
	return c.View(), nil
}

func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	return s.carts.Delete(ctx, sessionID)
}

// ---- sale ledger ----

// RegisterSale commits a sale with request-id idempotency: replaying the
// same request id returns the already-recorded sale without a second stock
// deduction.
func (s *Service) RegisterSale(ctx context.Context, req domain.RegisterSaleRequest) (*domain.RegisterSaleResponse, error) {
	normalized := phone.Normalize(req.CustomerPhone)
	if !phone.IsValid(normalized) {
		return nil, fmt.Errorf("%w: invalid phone number", store.ErrInvalid)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: sale has no items", store.ErrInvalid)
	}

	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = ids.NewRequestID()
	}

	if existing, err := s.repo.FindSaleByRequestID(ctx, requestID); err == nil {
		s.logger.Printf("[service] duplicate sale request id=%s sale=%s", requestID, existing.ID)
		return &domain.RegisterSaleResponse{Sale: *existing, Duplicate: true}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" {
		if customer, err := s.repo.GetCustomerByPhone(ctx, normalized); err == nil {
			customerName = customer.Name
		}
	}

	status := domain.SaleStatusPending
	if req.Paid {
		status = domain.SaleStatusPaid
	}

	sale := domain.Sale{
		CustomerPhone: normalized,
		CustomerName:  customerName,
		Status:        status,
		RequestID:     requestID,
		CreatedAt:     time.Now().UTC(),
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalid)
		}
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			SubtotalCents:  item.UnitPriceCents * int64(item.Quantity),
		})
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost the race against a concurrent replay; surface the winner.
		if existing, findErr := s.repo.FindSaleByRequestID(ctx, requestID); findErr == nil {
			return &domain.RegisterSaleResponse{Sale: *existing, Duplicate: true}, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	s.logger.Printf("[service] sale registered id=%s phone=%s total=%s status=%s",
		created.ID, created.CustomerPhone, format.CentsBRL(created.TotalCents()), created.Status)
	return &domain.RegisterSaleResponse{Sale: *created, Duplicate: false}, nil
}

// Checkout registers the session's cart as a sale and clears the cart on
// success.
func (s *Service) Checkout(ctx context.Context, sessionID string, paid bool, requestID string) (*domain.RegisterSaleResponse, error) {
	c, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, fmt.Errorf("%w: cart is empty", store.ErrInvalid)
	}
	custPhone, custName := c.Customer()
	if custPhone == "" {
		return nil, fmt.Errorf("%w: no customer selected", store.ErrInvalid)
	}

	resp, err := s.RegisterSale(ctx, domain.RegisterSaleRequest{
		CustomerPhone: custPhone,
		CustomerName:  custName,
		Items:         c.Items(),
		Paid:          paid,
		RequestID:     requestID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		s.logger.Printf("[service] clearing cart after checkout session=%s: %v", sessionID, err)
	}
	return resp, nil
}

func (s *Service) GetHistory(ctx context.Context, rawPhone string) ([]domain.Sale, error) {
	normalized := phone.Normalize(rawPhone)
	if !phone.IsValid(normalized) {
		return nil, fmt.Errorf("%w: invalid phone number", store.ErrInvalid)
	}
	return s.repo.ListSalesByPhone(ctx, normalized)
}

func (s *Service) MarkAsPaid(ctx context.Context, saleID string) (*domain.Sale, error) {
	if saleID == "" {
		return nil, fmt.Errorf("%w: sale id is required", store.ErrInvalid)
	}
	return s.repo.MarkSalePaid(ctx, saleID)
}

// MarkManyAsPaid settles each sale independently and reports per-id
// outcomes; one failure never aborts the rest of the batch.
func (s *Service) MarkManyAsPaid(ctx context.Context, saleIDs []string) (domain.SettlementResult, error) {
	if len(saleIDs) == 0 {
		return domain.SettlementResult{}, fmt.Errorf("%w: no sale ids given", store.ErrInvalid)
	}

	result := domain.SettlementResult{Outcomes: make([]domain.SettleOutcome, 0, len(saleIDs))}
	for _, id := range saleIDs {
		outcome := domain.SettleOutcome{SaleID: id}
		if _, err := s.repo.MarkSalePaid(ctx, id); err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Paid = true
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	if failed := result.FailedCount(); failed > 0 {
		s.logger.Printf("[service] settlement finished with %d/%d failures", failed, len(saleIDs))
	}
	return result, nil
}

func (s *Service) DeleteSale(ctx context.Context, saleID string) (*domain.SaleDeletionResult, error) {
	if saleID == "" {
		return nil, fmt.Errorf("%w: sale id is required", store.ErrInvalid)
	}
	result, err := s.repo.DeleteSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	for _, restoration := range result.Restorations {
		if !restoration.Restored {
			s.logger.Printf("[service] sale %s: stock for product %s not restored: %s",
				saleID, restoration.ProductID, restoration.Reason)
		}
	}
	return result, nil
}

// ---- reporting ----

func validateRange(from time.Time, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: report range is required", store.ErrInvalid)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: end date precedes start date", store.ErrInvalid)
	}
	return nil
}

func (s *Service) SalesReport(ctx context.Context, from time.Time, to time.Time) (domain.SalesReport, error) {
	if err := validateRange(from, to); err != nil {
		return domain.SalesReport{}, err
	}
	return s.repo.GetSalesReport(ctx, from, to)
}

func (s *Service) ProductSummary(ctx context.Context, from time.Time, to time.Time) ([]domain.ProductSummaryItem, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.repo.GetProductSummary(ctx, from, to)
}

func (s *Service) InventoryReport(ctx context.Context, from time.Time, to time.Time) ([]domain.InventoryReportItem, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return s.repo.GetInventoryReport(ctx, from, to)
}

// ---- settings and receipts ----

func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.repo.GetSettings(ctx)
}

func (s *Service) SaveSettings(ctx context.Context, settings domain.Settings) error {
	settings.ScriptURL = strings.TrimSpace(settings.ScriptURL)
	return s.repo.SaveSettings(ctx, settings)
}

func (s *Service) SendReceiptEmail(ctx context.Context, req domain.ReceiptEmailRequest) error {
	normalized := phone.Normalize(req.Phone)
	if !phone.IsValid(normalized) {
		return fmt.Errorf("%w: invalid phone number", store.ErrInvalid)
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email address", store.ErrInvalid)
	}
	if err := s.repo.SendReceiptEmail(ctx, normalized, email); err != nil {
		return err
	}
	s.logger.Printf("[service] receipt queued for %s", phone.FormatDisplay(normalized))
	return nil
}
