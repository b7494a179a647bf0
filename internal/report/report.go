// Package report derives date-ranged summaries by replaying the sale ledger
// and the product catalog. Everything here is pure: no store access, no
// independent state.
package report

import (
	"slices"
	"time"

	"minibar/backend/internal/collation"
	"minibar/backend/internal/domain"
)

// InRange reports whether the sale's calendar date (UTC) falls inside the
// inclusive [from, to] range. Time-of-day on the bounds is ignored.
func InRange(at, from, to time.Time) bool {
	day := truncateToDay(at)
	return !day.Before(truncateToDay(from)) && !day.After(truncateToDay(to))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Sales filters the ledger to [from, to] and totals paid, pending and
// overall amounts. Input order is preserved in the filtered list.
func Sales(sales []domain.Sale, from, to time.Time) domain.SalesReport {
	rep := domain.SalesReport{Sales: make([]domain.Sale, 0, len(sales))}
	for _, sale := range sales {
		if !InRange(sale.CreatedAt, from, to) {
			continue
		}
		total := sale.TotalCents()
		if sale.Status == domain.SaleStatusPaid {
			rep.TotalPaidCents += total
		} else {
			rep.TotalPendingCents += total
		}
		rep.Sales = append(rep.Sales, sale)
	}
	rep.TotalOverallCents = rep.TotalPaidCents + rep.TotalPendingCents
	return rep
}

// ProductSummary groups line items of in-range sales by product name.
// TransactionsCount increments once per line item occurrence, not per sale.
func ProductSummary(sales []domain.Sale, from, to time.Time) []domain.ProductSummaryItem {
	byName := make(map[string]*domain.ProductSummaryItem)
	for _, sale := range sales {
		if !InRange(sale.CreatedAt, from, to) {
			continue
		}
		for _, item := range sale.Items {
			entry, ok := byName[item.ProductName]
			if !ok {
				entry = &domain.ProductSummaryItem{ProductName: item.ProductName}
				byName[item.ProductName] = entry
			}
			entry.TotalQuantity += item.Quantity
			entry.TotalRevenueCents += item.SubtotalCents
			entry.TransactionsCount++
		}
	}

	result := make([]domain.ProductSummaryItem, 0, len(byName))
	for _, entry := range byName {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b domain.ProductSummaryItem) int {
		return collation.Compare(a.ProductName, b.ProductName)
	})
	return result
}

// Inventory reconstructs per-product inventory movement over the range.
// Entries are not tracked in this model, so the initial balance is an
// approximation: current live stock plus everything sold in range.
func Inventory(sales []domain.Sale, products []domain.Product, from, to time.Time) []domain.InventoryReportItem {
	exitsByName := make(map[string]int)
	for _, sale := range sales {
		if !InRange(sale.CreatedAt, from, to) {
			continue
		}
		for _, item := range sale.Items {
			exitsByName[item.ProductName] += item.Quantity
		}
	}

	result := make([]domain.InventoryReportItem, 0, len(products))
	for _, product := range products {
		exits := exitsByName[product.Name]
		result = append(result, domain.InventoryReportItem{
			ProductName:    product.Name,
			Entries:        0,
			Exits:          exits,
			InitialBalance: product.Stock + exits,
			CurrentBalance: product.Stock,
		})
	}
	slices.SortFunc(result, func(a, b domain.InventoryReportItem) int {
		return collation.Compare(a.ProductName, b.ProductName)
	})
	return result
}
