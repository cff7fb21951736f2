package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingStatus is the simulated delivery stage of a purchase
type ShippingStatus string

const (
	ShippingProcessing     ShippingStatus = "processing"
	ShippingConfirmed      ShippingStatus = "confirmed"
	ShippingShipped        ShippingStatus = "shipped"
	ShippingInTransit      ShippingStatus = "in_transit"
	ShippingOutForDelivery ShippingStatus = "out_for_delivery"
	ShippingDelivered      ShippingStatus = "delivered"
)

// shippingStages maps elapsed time since purchase to a status.
// The last stage has no upper bound.
var shippingStages = []struct {
	before time.Duration
	status ShippingStatus
}{
	{1 * time.Minute, ShippingProcessing},
	{5 * time.Minute, ShippingConfirmed},
	{30 * time.Minute, ShippingShipped},
	{2 * time.Hour, ShippingInTransit},
	{6 * time.Hour, ShippingOutForDelivery},
}

// ShippingStatusAt derives the shipping status from the time elapsed since purchase
func ShippingStatusAt(purchasedAt, now time.Time) ShippingStatus {
	elapsed := now.Sub(purchasedAt)
	for _, stage := range shippingStages {
		if elapsed < stage.before {
			return stage.status
		}
	}
	return ShippingDelivered
}

// PurchaseRecord is an immutable record of a confirmed purchase.
// ShippingStatus is recomputed on every read.
type PurchaseRecord struct {
	OrderID        string          `json:"order_id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Price          decimal.Decimal `json:"price"`
	Brand          string          `json:"brand"`
	Category       string          `json:"category"`
	CardNickname   string          `json:"card_nickname"`
	Timestamp      time.Time       `json:"timestamp"`
	ShippingStatus ShippingStatus  `json:"shipping_status"`
}

// WithShippingStatus returns a copy with the status computed for now
func (p PurchaseRecord) WithShippingStatus(now time.Time) PurchaseRecord {
	p.ShippingStatus = ShippingStatusAt(p.Timestamp, now)
	return p
}

// PurchaseRequest is the payload for confirming a simulated purchase
type PurchaseRequest struct {
	ProductID    string          `json:"product_id" validate:"required,max=128"`
	ProductName  string          `json:"product_name" validate:"required,max=512"`
	Price        decimal.Decimal `json:"price"`
	Brand        string          `json:"brand" validate:"required,max=256"`
	Category     string          `json:"category" validate:"required,max=128"`
	CardNickname string          `json:"card_nickname" validate:"required,max=128"`
}

// Validate rejects non-positive prices
func (r *PurchaseRequest) Validate() error {
	if !r.Price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}
