package script

import (
	"fmt"
	"math"
	"strings"
	"time"

	"minibar/backend/internal/domain"
)

// The spreadsheet script speaks localized (Portuguese) field names and prices
// in reais. This file is the bidirectional translation layer between that
// wire shape and the internal model; nothing outside this package ever sees
// the wire names.

type wireCustomer struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
}

type wireProduct struct {
	ID      string  `json:"id"`
	Nome    string  `json:"nome"`
	Valor   float64 `json:"valor"`
	Estoque int     `json:"estoque"`
}

// Line items inside a registerPurchase call keep the script's own mixed
// naming; prices travel in reais.
type wireSaleItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

// wireHistoryRow is one flattened purchase row as returned by
// getPurchaseHistory and getSalesReport: one row per sale line.
type wireHistoryRow struct {
	Data          string  `json:"data"`
	Telefone      string  `json:"telefone"`
	Nome          string  `json:"nome"`
	Produto       string  `json:"produto"`
	ValorUnitario float64 `json:"valorUnitario"`
	Quantidade    int     `json:"quantidade"`
	Subtotal      float64 `json:"subtotal"`
	Status        string  `json:"status"`
}

type wireProductSummaryRow struct {
	Produto          string  `json:"produto"`
	QuantidadeTotal  int     `json:"quantidadeTotal"`
	FaturamentoTotal float64 `json:"faturamentoTotal"`
	Transacoes       int     `json:"transacoes"`
}

type wireInventoryRow struct {
	Produto              string `json:"produto"`
	Entradas             int    `json:"entradas"`
	Saidas               int    `json:"saidas"`
	SaldoInicialEstimado int    `json:"saldoInicialEstimado"`
	SaldoAtual           int    `json:"saldoAtual"`
}

func centsToReais(cents int64) float64 {
	return float64(cents) / 100
}

func reaisToCents(reais float64) int64 {
	return int64(math.Round(reais * 100))
}

func toCustomer(w wireCustomer) domain.Customer {
	// The spreadsheet keys customers by phone; it doubles as the id.
	return domain.Customer{ID: w.Telefone, Name: w.Nome, Phone: w.Telefone}
}

func fromCustomer(c domain.Customer) wireCustomer {
	return wireCustomer{Nome: c.Name, Telefone: c.Phone}
}

func toProduct(w wireProduct) domain.Product {
	return domain.Product{
		ID:         w.ID,
		Name:       w.Nome,
		PriceCents: reaisToCents(w.Valor),
		Stock:      w.Estoque,
	}
}

func fromProduct(p domain.Product) wireProduct {
	return wireProduct{
		ID:      p.ID,
		Nome:    p.Name,
		Valor:   centsToReais(p.PriceCents),
		Estoque: p.Stock,
	}
}

func fromSaleItem(item domain.SaleItem) wireSaleItem {
	return wireSaleItem{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   centsToReais(item.UnitPriceCents),
		Subtotal:    centsToReais(item.SubtotalCents),
	}
}

// toSale lifts one flattened history row into a single-line sale. The
// composite id (date|phone|index) is what the script accepts back for
// mark-as-paid and delete.
func toSale(row wireHistoryRow, index int) domain.Sale {
	createdAt, err := time.Parse(time.RFC3339, row.Data)
	if err != nil {
		if parsed, dateErr := time.Parse("2006-01-02", row.Data); dateErr == nil {
			createdAt = parsed
		}
	}
	return domain.Sale{
		ID:            compositeSaleID(row.Data, row.Telefone, index),
		CustomerName:  row.Nome,
		CustomerPhone: row.Telefone,
		Status:        statusFromWire(row.Status),
		CreatedAt:     createdAt.UTC(),
		Items: []domain.SaleItem{{
			ProductID:      "0",
			ProductName:    row.Produto,
			UnitPriceCents: reaisToCents(row.ValorUnitario),
			Quantity:       row.Quantidade,
			SubtotalCents:  reaisToCents(row.Subtotal),
		}},
	}
}

func toProductSummaryItem(row wireProductSummaryRow) domain.ProductSummaryItem {
	return domain.ProductSummaryItem{
		ProductName:       row.Produto,
		TotalQuantity:     row.QuantidadeTotal,
		TotalRevenueCents: reaisToCents(row.FaturamentoTotal),
		TransactionsCount: row.Transacoes,
	}
}

func toInventoryReportItem(row wireInventoryRow) domain.InventoryReportItem {
	return domain.InventoryReportItem{
		ProductName:    row.Produto,
		Entries:        row.Entradas,
		Exits:          row.Saidas,
		InitialBalance: row.SaldoInicialEstimado,
		CurrentBalance: row.SaldoAtual,
	}
}

// statusFromWire maps the script's localized status column. Anything that
// is not explicitly paid is treated as pending.
func statusFromWire(status string) domain.SaleStatus {
	switch strings.TrimSpace(status) {
	case "Pago", "Paga", "Paid":
		return domain.SaleStatusPaid
	default:
		return domain.SaleStatusPending
	}
}

func compositeSaleID(dateISO string, phone string, index int) string {
	return fmt.Sprintf("%s|%s|%d", dateISO, phone, index)
}

func splitSaleID(id string) (dateISO string, phone string, err error) {
	parts := strings.SplitN(id, "|", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed sale id %q", id)
	}
	return parts[0], parts[1], nil
}
