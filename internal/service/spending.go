package service

import (
	"cliq_go/internal/domain"

	"github.com/shopspring/decimal"
)

// SpendingSummary is the spending overview built from purchase history
type SpendingSummary struct {
	TotalSpent     decimal.Decimal            `json:"total_spent"`
	PurchaseCount  int                        `json:"purchase_count"`
	ByCategory     map[string]decimal.Decimal `json:"by_category"`
	WatchlistCount int                        `json:"watchlist_count"`
}

// SummarizeSpending totals purchases overall and per category, rounded to cents
func SummarizeSpending(purchases []domain.PurchaseRecord, watchlistCount int) SpendingSummary {
	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, p := range purchases {
		total = total.Add(p.Price)
		byCategory[p.Category] = byCategory[p.Category].Add(p.Price)
	}
	for k, v := range byCategory {
		byCategory[k] = v.Round(2)
	}

	return SpendingSummary{
		TotalSpent:     total.Round(2),
		PurchaseCount:  len(purchases),
		ByCategory:     byCategory,
		WatchlistCount: watchlistCount,
	}
}
