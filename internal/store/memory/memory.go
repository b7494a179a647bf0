package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"minibar/backend/internal/collation"
	"minibar/backend/internal/domain"
	"minibar/backend/internal/ids"
	"minibar/backend/internal/report"
	"minibar/backend/internal/store"
)

// Store keeps the whole dataset in process memory. It is the default
// repository for development and tests, and the reference implementation for
// the Repository contract. The mutex guards against accidental in-process
// concurrency; cross-device races are out of scope.
type Store struct {
	mu               sync.RWMutex
	customersByPhone map[string]domain.Customer
	productsByID     map[string]domain.Product
	sales            []domain.Sale
	saleIDByRequest  map[string]string
	settings         domain.Settings
	receiptOutbox    []domain.ReceiptEmail
}

func New() *Store {
	return &Store{
		customersByPhone: make(map[string]domain.Customer),
		productsByID:     make(map[string]domain.Product),
		sales:            make([]domain.Sale, 0, 64),
		saleIDByRequest:  make(map[string]string),
	}
}

// NewSeeded returns a store preloaded with the demo kiosk dataset.
func NewSeeded() *Store {
	s := New()

	for _, c := range []domain.Customer{
		{ID: "5511999999999", Name: "João Silva", Phone: "5511999999999"},
		{ID: "5511888888888", Name: "Maria Souza", Phone: "5511888888888"},
	} {
		s.customersByPhone[c.Phone] = c
	}

	for _, p := range []domain.Product{
		{ID: "1", Name: "Água Mineral", PriceCents: 350, Stock: 50},
		{ID: "2", Name: "Coca-Cola Lata", PriceCents: 600, Stock: 30},
		{ID: "3", Name: "Salgadinho", PriceCents: 500, Stock: 20},
		{ID: "4", Name: "Chocolate", PriceCents: 450, Stock: 15},
	} {
		s.productsByID[p.ID] = p
	}

	return s
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByPhone))
	for _, c := range s.customersByPhone {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return collation.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomerByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByPhone[phone]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := customer
	return &found, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Phone == "" || strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customersByPhone[customer.Phone]; exists {
		return nil, store.ErrDuplicate
	}
	customer.ID = customer.Phone
	s.customersByPhone[customer.Phone] = customer
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomerName(_ context.Context, phone string, name string) (*domain.Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	customer, exists := s.customersByPhone[phone]
	if !exists {
		return nil, store.ErrNotFound
	}
	customer.Name = name
	s.customersByPhone[phone] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) DeleteCustomer(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customersByPhone[phone]; !exists {
		return store.ErrNotFound
	}
	delete(s.customersByPhone, phone)
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return collation.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := product
	return &found, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.PriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = ids.New("prod")
	}
	if _, exists := s.productsByID[product.ID]; exists {
		return nil, store.ErrDuplicate
	}
	s.productsByID[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.PriceCents < 0 {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.productsByID[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	existing.Name = product.Name
	existing.PriceCents = product.PriceCents
	s.productsByID[product.ID] = existing
	updated := existing
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.productsByID, id)
	return nil
}

func (s *Store) AddStock(_ context.Context, id string, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.productsByID[id]
	if !exists {
		return store.ErrNotFound
	}
	product.Stock += quantity
	s.productsByID[id] = product
	return nil
}

func (s *Store) SetStock(_ context.Context, id string, newStock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.productsByID[id]
	if !exists {
		return store.ErrNotFound
	}
	product.Stock = newStock
	s.productsByID[id] = product
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.RequestID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, applied := s.saleIDByRequest[sale.RequestID]; applied {
		return nil, store.ErrDuplicate
	}

	if sale.ID == "" {
		sale.ID = ids.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	// Stock deduction is best-effort: the cart pre-validated availability,
	// and a product deleted in the meantime must not block the sale.
	for _, item := range sale.Items {
		product, exists := s.productsByID[item.ProductID]
		if !exists {
			continue
		}
		product.Stock -= item.Quantity
		s.productsByID[item.ProductID] = product
	}

	// Newest-first so history queries need no extra sort.
	s.sales = append([]domain.Sale{cloneSale(sale)}, s.sales...)
	s.saleIDByRequest[sale.RequestID] = sale.ID
	created := cloneSale(sale)
	return &created, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sale := range s.sales {
		if sale.ID == id {
			found := cloneSale(sale)
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindSaleByRequestID(_ context.Context, requestID string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saleID, applied := s.saleIDByRequest[requestID]
	if !applied {
		return nil, store.ErrNotFound
	}
	for _, sale := range s.sales {
		if sale.ID == saleID {
			found := cloneSale(sale)
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListSalesByPhone(_ context.Context, phone string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]domain.Sale, 0, 16)
	for _, sale := range s.sales {
		if sale.CustomerPhone == phone {
			history = append(history, cloneSale(sale))
		}
	}
	return history, nil
}

func (s *Store) MarkSalePaid(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sale := range s.sales {
		if sale.ID != id {
			continue
		}
		// Marking an already-paid sale again is a no-op, not an error.
		s.sales[i].Status = domain.SaleStatusPaid
		paid := cloneSale(s.sales[i])
		return &paid, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteSale(_ context.Context, id string) (*domain.SaleDeletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sale := range s.sales {
		if sale.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, store.ErrNotFound
	}

	sale := s.sales[idx]
	result := &domain.SaleDeletionResult{
		SaleID:       sale.ID,
		Restorations: make([]domain.StockRestoration, 0, len(sale.Items)),
	}
	for _, item := range sale.Items {
		restoration := domain.StockRestoration{ProductID: item.ProductID, Quantity: item.Quantity}
		product, exists := s.productsByID[item.ProductID]
		if !exists {
			restoration.Reason = "product no longer exists"
			result.Restorations = append(result.Restorations, restoration)
			continue
		}
		product.Stock += item.Quantity
		s.productsByID[item.ProductID] = product
		restoration.Restored = true
		result.Restorations = append(result.Restorations, restoration)
	}

	s.sales = append(s.sales[:idx], s.sales[idx+1:]...)
	delete(s.saleIDByRequest, sale.RequestID)
	return result, nil
}

func (s *Store) GetSalesReport(_ context.Context, from time.Time, to time.Time) (domain.SalesReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.Sales(s.cloneSales(), from, to), nil
}

func (s *Store) GetProductSummary(_ context.Context, from time.Time, to time.Time) ([]domain.ProductSummaryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return report.ProductSummary(s.cloneSales(), from, to), nil
}

func (s *Store) GetInventoryReport(_ context.Context, from time.Time, to time.Time) ([]domain.InventoryReportItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		products = append(products, p)
	}
	return report.Inventory(s.cloneSales(), products, from, to), nil
}

func (s *Store) GetSettings(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func (s *Store) SendReceiptEmail(_ context.Context, phone string, email string) error {
	if phone == "" || email == "" {
		return store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.receiptOutbox = append(s.receiptOutbox, domain.ReceiptEmail{
		Phone:       phone,
		Email:       email,
		RequestedAt: time.Now().UTC(),
	})
	return nil
}

// ReceiptOutbox exposes the recorded receipt requests for inspection in tests.
func (s *Store) ReceiptOutbox() []domain.ReceiptEmail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outbox := make([]domain.ReceiptEmail, len(s.receiptOutbox))
	copy(outbox, s.receiptOutbox)
	return outbox
}

func (s *Store) cloneSales() []domain.Sale {
	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, cloneSale(sale))
	}
	return sales
}

func cloneSale(sale domain.Sale) domain.Sale {
	cloned := sale
	cloned.Items = make([]domain.SaleItem, len(sale.Items))
	copy(cloned.Items, sale.Items)
	return cloned
}
