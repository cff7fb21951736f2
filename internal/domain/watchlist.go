package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a single price observation for a watched product
type PricePoint struct {
	Price decimal.Decimal `json:"price"`
	Date  time.Time       `json:"date"`
}

// WatchlistItem represents a product the user asked to be price-monitored.
// PriceHistory is chronological; the first entry is the price at watch-add time
// and Price always mirrors the last entry.
type WatchlistItem struct {
	ProductID    string           `json:"product_id" validate:"required,max=128"`
	ProductName  string           `json:"product_name" validate:"required,max=512"`
	Price        decimal.Decimal  `json:"price"`
	TargetPrice  *decimal.Decimal `json:"target_price,omitempty"`
	Brand        string           `json:"brand" validate:"max=256"`
	SourceURL    string           `json:"source_url" validate:"omitempty,url"`
	Category     string           `json:"category" validate:"max=128"`
	PriceHistory []PricePoint     `json:"price_history"`
}

// Validate checks the monetary fields that struct tags cannot express
func (w *WatchlistItem) Validate() error {
	if !w.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if w.TargetPrice != nil && w.TargetPrice.IsNegative() {
		return ErrInvalidPrice
	}
	for _, p := range w.PriceHistory {
		if !p.Price.IsPositive() {
			return ErrInvalidPrice
		}
	}
	return nil
}

// SeedHistory records the watch-add observation. A supplied history that does
// not end at the current price gets the current price appended, so the last
// entry always matches Price.
func (w *WatchlistItem) SeedHistory(now time.Time) {
	n := len(w.PriceHistory)
	if n > 0 && w.PriceHistory[n-1].Price.Equal(w.Price) {
		return
	}
	w.RecordPrice(w.Price, now)
}

// RecordPrice appends a new observation and makes it the current price.
// Timestamps never go backwards: an observation older than the last one is
// stamped with the last one's time.
func (w *WatchlistItem) RecordPrice(price decimal.Decimal, now time.Time) {
	if n := len(w.PriceHistory); n > 0 && now.Before(w.PriceHistory[n-1].Date) {
		now = w.PriceHistory[n-1].Date
	}
	w.PriceHistory = append(w.PriceHistory, PricePoint{Price: price, Date: now})
	w.Price = price
}

// Clone returns a deep copy so snapshots handed to callers never alias store state
func (w WatchlistItem) Clone() WatchlistItem {
	out := w
	if w.TargetPrice != nil {
		tp := *w.TargetPrice
		out.TargetPrice = &tp
	}
	out.PriceHistory = append([]PricePoint(nil), w.PriceHistory...)
	return out
}
