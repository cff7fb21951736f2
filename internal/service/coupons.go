package service

import "cliq_go/internal/domain"

var couponCatalog = map[string][]domain.Coupon{
	"wj-001": {
		{Code: "WINTER20", Discount: "20% off", Source: "RetailMeNot"},
	},
	"wj-002": {
		{Code: "SAVE15", Discount: "15% off", Source: "Honey"},
		{Code: "FREESHIP", Discount: "Free shipping", Source: "Deal Finder"},
	},
	"mon-001": {
		{Code: "TECH10", Discount: "$10 off", Source: "Honey"},
	},
	"hp-003": {
		{Code: "AUDIO20", Discount: "20% off", Source: "RetailMeNot"},
	},
}

// CouponsFor returns the known coupons for a product, never nil
func CouponsFor(productID string) []domain.Coupon {
	src := couponCatalog[productID]
	out := make([]domain.Coupon, len(src))
	copy(out, src)
	return out
}
