package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"minibar/backend/internal/collation"
	"minibar/backend/internal/domain"
	"minibar/backend/internal/ids"
	"minibar/backend/internal/report"
	"minibar/backend/internal/store"
)

// Store is the durable repository on PostgreSQL. Sale line items are stored
// as a JSONB document per sale; they are immutable once the sale is
// registered, so there is nothing to join on.
//
// Listings are collated in Go (internal/collation) rather than in SQL so the
// user-facing ordering contract is identical across store implementations.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			phone      TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			price_cents BIGINT NOT NULL,
			stock       INTEGER NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id             TEXT PRIMARY KEY,
			request_id     TEXT NOT NULL UNIQUE,
			customer_phone TEXT NOT NULL,
			customer_name  TEXT NOT NULL,
			status         TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			items          JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_customer_phone ON sales (customer_phone, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			script_url TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS receipt_outbox (
			id           TEXT PRIMARY KEY,
			phone        TEXT NOT NULL,
			email        TEXT NOT NULL,
			requested_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT phone, name
		FROM customers
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.Phone, &c.Name); err != nil {
			return nil, err
		}
		c.ID = c.Phone
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return collation.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT phone, name
		FROM customers
		WHERE phone = $1
	`, phone).Scan(&c.Phone, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.ID = c.Phone
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Phone == "" || strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrInvalid
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (phone, name, created_at)
		VALUES ($1, $2, now())
	`, customer.Phone, customer.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	customer.ID = customer.Phone
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomerName(ctx context.Context, phone string, name string) (*domain.Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, store.ErrInvalid
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE customers SET name = $2 WHERE phone = $1
	`, phone, name)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return &domain.Customer{ID: phone, Phone: phone, Name: name}, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, phone string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE phone = $1`, phone)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price_cents, stock
		FROM products
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		return collation.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price_cents, stock
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.PriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalid
	}
	if product.ID == "" {
		product.ID = ids.New("prod")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price_cents, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`, product.ID, product.Name, product.PriceCents, product.Stock)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.PriceCents < 0 {
		return nil, store.ErrInvalid
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, price_cents = $3, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.PriceCents)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetProductByID(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddStock(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return store.ErrInvalid
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1
	`, id, quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetStock(ctx context.Context, id string, newStock int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = $2, updated_at = now() WHERE id = $1
	`, id, newStock)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.RequestID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalid
	}
	if sale.ID == "" {
		sale.ID = ids.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	itemsJSON, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, request_id, customer_phone, customer_name, status, created_at, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sale.ID, sale.RequestID, sale.CustomerPhone, sale.CustomerName, string(sale.Status), sale.CreatedAt, itemsJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}

	// Best-effort deduction: a line whose product has vanished is skipped,
	// not fatal.
	for _, item := range sale.Items {
		_, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1
		`, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	return s.scanSale(s.db.QueryRowContext(ctx, `
		SELECT id, request_id, customer_phone, customer_name, status, created_at, items
		FROM sales
		WHERE id = $1
	`, id))
}

func (s *Store) FindSaleByRequestID(ctx context.Context, requestID string) (*domain.Sale, error) {
	return s.scanSale(s.db.QueryRowContext(ctx, `
		SELECT id, request_id, customer_phone, customer_name, status, created_at, items
		FROM sales
		WHERE request_id = $1
	`, requestID))
}

func (s *Store) ListSalesByPhone(ctx context.Context, phone string) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, customer_phone, customer_name, status, created_at, items
		FROM sales
		WHERE customer_phone = $1
		ORDER BY created_at DESC, id DESC
	`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSales(rows)
}

func (s *Store) MarkSalePaid(ctx context.Context, id string) (*domain.Sale, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sales SET status = $2 WHERE id = $1
	`, id, string(domain.SaleStatusPaid))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetSaleByID(ctx, id)
}

func (s *Store) DeleteSale(ctx context.Context, id string) (*domain.SaleDeletionResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	sale, err := s.scanSale(tx.QueryRowContext(ctx, `
		SELECT id, request_id, customer_phone, customer_name, status, created_at, items
		FROM sales
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	result := &domain.SaleDeletionResult{
		SaleID:       sale.ID,
		Restorations: make([]domain.StockRestoration, 0, len(sale.Items)),
	}
	for _, item := range sale.Items {
		restoration := domain.StockRestoration{ProductID: item.ProductID, Quantity: item.Quantity}
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1
		`, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			restoration.Reason = "product no longer exists"
		} else {
			restoration.Restored = true
		}
		result.Restorations = append(result.Restorations, restoration)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetSalesReport(ctx context.Context, from time.Time, to time.Time) (domain.SalesReport, error) {
	sales, err := s.listSalesBetween(ctx, from, to)
	if err != nil {
		return domain.SalesReport{}, err
	}
	return report.Sales(sales, from, to), nil
}

func (s *Store) GetProductSummary(ctx context.Context, from time.Time, to time.Time) ([]domain.ProductSummaryItem, error) {
	sales, err := s.listSalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return report.ProductSummary(sales, from, to), nil
}

func (s *Store) GetInventoryReport(ctx context.Context, from time.Time, to time.Time) ([]domain.InventoryReportItem, error) {
	sales, err := s.listSalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.Inventory(sales, products, from, to), nil
}

// listSalesBetween over-fetches by a day on each side; the report package
// applies the exact calendar-date filter.
func (s *Store) listSalesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, customer_phone, customer_name, status, created_at, items
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC
	`, from.UTC().AddDate(0, 0, -1), to.UTC().AddDate(0, 0, 2))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSales(rows)
}

func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT script_url FROM settings WHERE id = 1
	`).Scan(&settings.ScriptURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Absence of settings means defaults, never an error.
			return domain.Settings{}, nil
		}
		return domain.Settings{}, err
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, script_url, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id)
		DO UPDATE SET script_url = EXCLUDED.script_url, updated_at = now()
	`, settings.ScriptURL)
	return err
}

func (s *Store) SendReceiptEmail(ctx context.Context, phone string, email string) error {
	if phone == "" || email == "" {
		return store.ErrInvalid
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receipt_outbox (id, phone, email, requested_at)
		VALUES ($1, $2, $3, now())
	`, ids.New("receipt"), phone, email)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSale(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	var status string
	var itemsJSON []byte
	err := row.Scan(&sale.ID, &sale.RequestID, &sale.CustomerPhone, &sale.CustomerName, &status, &sale.CreatedAt, &itemsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.Status = domain.SaleStatus(status)
	sale.CreatedAt = sale.CreatedAt.UTC()
	if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
		return nil, err
	}
	return &sale, nil
}

func scanSales(rows *sql.Rows) ([]domain.Sale, error) {
	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var sale domain.Sale
		var status string
		var itemsJSON []byte
		if err := rows.Scan(&sale.ID, &sale.RequestID, &sale.CustomerPhone, &sale.CustomerName, &status, &sale.CreatedAt, &itemsJSON); err != nil {
			return nil, err
		}
		sale.Status = domain.SaleStatus(status)
		sale.CreatedAt = sale.CreatedAt.UTC()
		if err := json.Unmarshal(itemsJSON, &sale.Items); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
