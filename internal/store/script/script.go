// Package script is the Repository implementation backed by the remote
// spreadsheet script endpoint. Every operation is a POST of
// {"action": ..., ...payload}; the response envelope is
// {"success": bool, "message": string, ...}.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"minibar/backend/internal/collation"
	"minibar/backend/internal/domain"
	"minibar/backend/internal/store"
)

type Store struct {
	client     *http.Client
	defaultURL string

	// Settings live client-side, mirroring the original deployment where
	// the script URL override is a local configuration value. The override
	// is re-resolved on every call: explicit override > configured default.
	mu       sync.RWMutex
	settings domain.Settings
}

func New(defaultURL string) *Store {
	return &Store{
		client:     &http.Client{Timeout: 15 * time.Second},
		defaultURL: strings.TrimSpace(defaultURL),
	}
}

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func (s *Store) scriptURL() string {
	s.mu.RLock()
	override := strings.TrimSpace(s.settings.ScriptURL)
	s.mu.RUnlock()

	if override != "" {
		return override
	}
	return s.defaultURL
}

// call posts an action to the script endpoint and returns the raw response
// body after envelope validation. A non-JSON response or an unreachable
// endpoint is a transport error; success=false is an application error
// surfaced with the remote message.
func (s *Store) call(ctx context.Context, action string, payload map[string]any) ([]byte, error) {
	url := s.scriptURL()
	if url == "" {
		return nil, fmt.Errorf("%w: script URL not configured", store.ErrTransport)
	}

	body := make(map[string]any, len(payload)+1)
	body["action"] = action
	for key, value := range payload {
		body[key] = value
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	// The script endpoint only accepts simple CORS requests.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrTransport, action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrTransport, action, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %s returned a non-JSON response", store.ErrTransport, action)
	}
	if env.Success != nil && !*env.Success {
		message := env.Message
		if message == "" {
			message = "unknown remote error"
		}
		return nil, errors.New(message)
	}
	return raw, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	raw, err := s.call(ctx, "getCustomers", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []wireCustomer `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: getCustomers: %v", store.ErrTransport, err)
	}

	customers := make([]domain.Customer, 0, len(resp.Data))
	for _, w := range resp.Data {
		customers = append(customers, toCustomer(w))
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return collation.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	raw, err := s.call(ctx, "getCustomerByPhone", map[string]any{"telefone": phone})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data *wireCustomer `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: getCustomerByPhone: %v", store.ErrTransport, err)
	}
	if resp.Data == nil {
		return nil, store.ErrNotFound
	}
	customer := toCustomer(*resp.Data)
	return &customer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	w := fromCustomer(customer)
	_, err := s.call(ctx, "addCustomer", map[string]any{"nome": w.Nome, "telefone": w.Telefone})
	if err != nil {
		return nil, err
	}
	customer.ID = customer.Phone
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomerName(ctx context.Context, phone string, name string) (*domain.Customer, error) {
	_, err := s.call(ctx, "updateCustomer", map[string]any{"nome": name, "telefone": phone})
	if err != nil {
		return nil, err
	}
	return &domain.Customer{ID: phone, Phone: phone, Name: name}, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, phone string) error {
	_, err := s.call(ctx, "deleteCustomer", map[string]any{"telefone": phone})
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.call(ctx, "getProducts", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []wireProduct `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: getProducts: %v", store.ErrTransport, err)
	}

	products := make([]domain.Product, 0, len(resp.Data))
	for _, w := range resp.Data {
		products = append(products, toProduct(w))
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return collation.Compare(a.Name, b.Name)
	})
	return products, nil
}

// GetProductByID scans the full catalog; the script has no by-id lookup.
func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		if product.ID == id {
			found := product
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	w := fromProduct(product)
	_, err := s.call(ctx, "addProduct", map[string]any{
		"nome":    w.Nome,
		"valor":   w.Valor,
		"estoque": w.Estoque,
	})
	if err != nil {
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	w := fromProduct(product)
	_, err := s.call(ctx, "updateProduct", map[string]any{
		"id":    w.ID,
		"nome":  w.Nome,
		"valor": w.Valor,
	})
	if err != nil {
		return nil, err
	}
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	_, err := s.call(ctx, "deleteProduct", map[string]any{"id": id})
	return err
}

func (s *Store) AddStock(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalid
	}
	_, err := s.call(ctx, "registerStockEntry", map[string]any{"productId": id, "quantidade": quantity})
	return err
}

func (s *Store) SetStock(ctx context.Context, id string, newStock int) error {
	_, err := s.call(ctx, "adjustStock", map[string]any{"productId": id, "novoEstoque": newStock})
	return err
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.RequestID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalid
	}

	items := make([]wireSaleItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, fromSaleItem(item))
	}

	_, err := s.call(ctx, "registerPurchase", map[string]any{
		"telefone":  sale.CustomerPhone,
		"pago":      sale.Status == domain.SaleStatusPaid,
		"requestId": sale.RequestID,
		"items":     items,
	})
	if err != nil {
		return nil, err
	}

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	_, phone, err := splitSaleID(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	history, err := s.ListSalesByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	for _, sale := range history {
		if sale.ID == id {
			found := sale
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

// FindSaleByRequestID always misses: the script endpoint deduplicates
// request ids server-side during registerPurchase, so the local dedup
// pre-check has nothing to consult.
func (s *Store) FindSaleByRequestID(_ context.Context, _ string) (*domain.Sale, error) {
	return nil, store.ErrNotFound
}

func (s *Store) ListSalesByPhone(ctx context.Context, phone string) ([]domain.Sale, error) {
	raw, err := s.call(ctx, "getPurchaseHistory", map[string]any{"telefone": phone})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []wireHistoryRow `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: getPurchaseHistory: %v", store.ErrTransport, err)
	}

	sales := make([]domain.Sale, 0, len(resp.Data))
	for i, row := range resp.Data {
		sales = append(sales, toSale(row, i))
	}
	return sales, nil
}

func (s *Store) MarkSalePaid(ctx context.Context, id string) (*domain.Sale, error) {
	dateISO, phone, err := splitSaleID(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	_, err = s.call(ctx, "markPurchaseAsPaid", map[string]any{"dataISO": dateISO, "telefone": phone})
	if err != nil {
		return nil, err
	}
	// The script keys rows by date+phone and does not echo the row back.
	return &domain.Sale{ID: id, CustomerPhone: phone, Status: domain.SaleStatusPaid}, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) (*domain.SaleDeletionResult, error) {
	dateISO, phone, err := splitSaleID(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	result := &domain.SaleDeletionResult{SaleID: id}
	if sale, err := s.GetSaleByID(ctx, id); err == nil {
		for _, item := range sale.Items {
			result.Restorations = append(result.Restorations, domain.StockRestoration{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Restored:  true,
			})
		}
	}

	if _, err := s.call(ctx, "deletePurchase", map[string]any{"dataISO": dateISO, "telefone": phone}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetSalesReport(ctx context.Context, from time.Time, to time.Time) (domain.SalesReport, error) {
	raw, err := s.call(ctx, "getSalesReport", map[string]any{
		"startDate": from.UTC().Format("2006-01-02"),
		"endDate":   to.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return domain.SalesReport{}, err
	}
	var resp struct {
		TotalPago     float64          `json:"totalPago"`
		TotalPendente float64          `json:"totalPendente"`
		TotalGeral    float64          `json:"totalGeral"`
		Vendas        []wireHistoryRow `json:"vendas"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.SalesReport{}, fmt.Errorf("%w: getSalesReport: %v", store.ErrTransport, err)
	}

	rep := domain.SalesReport{
		TotalPaidCents:    reaisToCents(resp.TotalPago),
		TotalPendingCents: reaisToCents(resp.TotalPendente),
		TotalOverallCents: reaisToCents(resp.TotalGeral),
		Sales:             make([]domain.Sale, 0, len(resp.Vendas)),
	}
	for i, row := range resp.Vendas {
		rep.Sales = append(rep.Sales, toSale(row, i))
	}
	return rep, nil
}

func (s *Store) GetProductSummary(ctx context.Context, from time.Time, to time.Time) ([]domain.ProductSummaryItem, error) {
	raw, err := s.call(ctx, "getProductSalesSummary", map[string]any{
		"startDate": from.UTC().Format("2006-01-02"),
		"endDate":   to.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Produtos []wireProductSummaryRow `json:"produtos"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: getProductSalesSummary: %v", store.ErrTransport, err)
	}

	items := make([]domain.ProductSummaryItem, 0, len(resp.Produtos))
	for _, row := range resp.Produtos {
		items = append(items, toProductSummaryItem(row))
	}
	return items, nil
}

func (s *Store) GetInventoryReport(ctx context.Context, from time.Time, to time.Time) ([]domain.InventoryReportItem, error) {
	raw, err := s.call(ctx, "getInventoryReport", map[string]any{
		"startDate": from.UTC().Format("2006-01-02"),
		"endDate":   to.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Itens []wireInventoryRow `json:"itens"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: getInventoryReport: %v", store.ErrTransport, err)
	}

	items := make([]domain.InventoryReportItem, 0, len(resp.Itens))
	for _, row := range resp.Itens {
		items = append(items, toInventoryReportItem(row))
	}
	return items, nil
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

func (s *Store) SendReceiptEmail(ctx context.Context, phone string, email string) error {
	if phone == "" || email == "" {
		return store.ErrInvalid
	}
	_, err := s.call(ctx, "sendPurchaseHistoryEmail", map[string]any{
		"phone":          phone,
		"recipientEmail": email,
	})
	return err
}
