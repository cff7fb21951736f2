package tracking

import (
	"sort"

	"cliq_go/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DetectPriceDrop inspects one item's history. ok is false when the item has
// fewer than two observations or its latest observation is not a drop.
func DetectPriceDrop(item domain.WatchlistItem) (drop domain.PriceDrop, ok bool) {
	h := item.PriceHistory
	if len(h) < 2 {
		return drop, false
	}

	current := h[len(h)-1].Price
	previous := h[len(h)-2].Price
	original := h[0].Price
	if !current.LessThan(previous) {
		return drop, false
	}

	amount := previous.Sub(current)
	// severity is judged on the unrounded percentage
	percent := decimal.Zero
	if !previous.IsZero() {
		percent = amount.Div(previous).Mul(hundred)
	}

	savings := original.Sub(current)
	if savings.IsNegative() {
		savings = decimal.Zero
	}

	savingsPercent := decimal.Zero
	if original.IsPositive() {
		savingsPercent = savings.Div(original).Mul(hundred).Round(1)
	}

	hitTarget := item.TargetPrice != nil && current.LessThanOrEqual(*item.TargetPrice)

	return domain.PriceDrop{
		ProductID:           item.ProductID,
		ProductName:         item.ProductName,
		CurrentPrice:        current,
		PreviousPrice:       previous,
		OriginalPrice:       original,
		DropAmount:          amount.Round(2),
		DropPercent:         percent.Round(1),
		TotalSavings:        savings.Round(2),
		TotalSavingsPercent: savingsPercent,
		TargetPrice:         item.TargetPrice,
		HitTarget:           hitTarget,
		Brand:               item.Brand,
		Category:            item.Category,
		AlertLevel:          domain.ClassifyDrop(percent, hitTarget),
	}, true
}

// DetectPriceDrops runs the detector over a watchlist snapshot and ranks the
// drops by percentage, largest first.
func DetectPriceDrops(items []domain.WatchlistItem) domain.PriceDropReport {
	drops := make([]domain.PriceDrop, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		d, ok := DetectPriceDrop(item)
		if !ok {
			continue
		}
		drops = append(drops, d)
		total = total.Add(d.DropAmount)
	}

	sort.SliceStable(drops, func(i, j int) bool {
		return drops[i].DropPercent.GreaterThan(drops[j].DropPercent)
	})

	return domain.PriceDropReport{
		Drops:                 drops,
		TotalPotentialSavings: total.Round(2),
		ItemsWithDrops:        len(drops),
		WatchlistSize:         len(items),
	}
}
