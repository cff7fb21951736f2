package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertLevel is the severity of a watchlist price drop
type AlertLevel string

const (
	AlertLow    AlertLevel = "low"
	AlertMedium AlertLevel = "medium"
	AlertHigh   AlertLevel = "high"
)

var (
	highDropPercent   = decimal.NewFromInt(15)
	mediumDropPercent = decimal.NewFromInt(5)
)

// ClassifyDrop returns the alert level for a drop percentage.
// Hitting the target price always escalates to high.
func ClassifyDrop(dropPercent decimal.Decimal, hitTarget bool) AlertLevel {
	switch {
	case hitTarget || dropPercent.GreaterThanOrEqual(highDropPercent):
		return AlertHigh
	case dropPercent.GreaterThanOrEqual(mediumDropPercent):
		return AlertMedium
	default:
		return AlertLow
	}
}

// PriceDrop describes a watchlist item whose latest observation is below the previous one
type PriceDrop struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PreviousPrice decimal.Decimal `json:"previous_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DropAmount    decimal.Decimal `json:"drop_amount"`
	DropPercent   decimal.Decimal `json:"drop_percent"`
	TotalSavings  decimal.Decimal `json:"total_savings"`
	// TotalSavingsPercent is TotalSavings relative to the price at watch-add time
	TotalSavingsPercent decimal.Decimal  `json:"total_savings_percent"`
	TargetPrice         *decimal.Decimal `json:"target_price"`
	HitTarget           bool             `json:"hit_target"`
	Brand               string           `json:"brand"`
	Category            string           `json:"category"`
	AlertLevel          AlertLevel       `json:"alert_level"`
}

// PriceDropReport is the ranked result of a detection pass over a watchlist
type PriceDropReport struct {
	Drops                 []PriceDrop     `json:"drops"`
	TotalPotentialSavings decimal.Decimal `json:"total_potential_savings"`
	ItemsWithDrops        int             `json:"items_with_drops"`
	WatchlistSize         int             `json:"watchlist_size"`
}

// PriceAlert signals that a purchased product is now cheaper than what was paid.
// At most one alert exists per ProductID.
type PriceAlert struct {
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	PurchasedPrice     decimal.Decimal `json:"purchased_price"`
	CurrentMarketPrice decimal.Decimal `json:"current_market_price"`
	Savings            decimal.Decimal `json:"savings"`
	DropPercent        decimal.Decimal `json:"drop_percent"`
	Timestamp          time.Time       `json:"timestamp"`
}
