package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType enumerates the tracking log entries
type EventType string

const (
	EventWatchlistChecked     EventType = "watchlist_checked"
	EventWatchlistPriceUpdate EventType = "watchlist_price_update"
	EventWatchlistPaused      EventType = "watchlist_paused"
	EventPurchaseChecked      EventType = "purchase_checked"
	EventPurchasePriceDrop    EventType = "purchase_price_drop"
	EventPurchasePaused       EventType = "purchase_paused"
)

// PausedReason is attached to paused events
const PausedReason = "User inactive for 24+ hours"

// TrackingEvent is one entry of the tracking activity log.
// Optional fields are nil when they do not apply to the event type.
type TrackingEvent struct {
	Type               EventType        `json:"type"`
	ProductID          string           `json:"product_id,omitempty"`
	ProductName        string           `json:"product_name,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	OldPrice           *decimal.Decimal `json:"old_price,omitempty"`
	NewPrice           *decimal.Decimal `json:"new_price,omitempty"`
	Change             *decimal.Decimal `json:"change,omitempty"`
	PurchasedAt        *decimal.Decimal `json:"purchased_at,omitempty"`
	CurrentMarketPrice *decimal.Decimal `json:"current_market_price,omitempty"`
	Savings            *decimal.Decimal `json:"savings,omitempty"`
	Reason             string           `json:"reason,omitempty"`
	Timestamp          time.Time        `json:"timestamp"`
}

// IsPaused reports whether the event records a skipped tick
func (e TrackingEvent) IsPaused() bool {
	return e.Type == EventWatchlistPaused || e.Type == EventPurchasePaused
}

// Money returns a pointer to a copy of d, for the optional event fields
func Money(d decimal.Decimal) *decimal.Decimal {
	return &d
}
