package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// WatchlistSource is what the watchlist tracking loop needs from storage.
// ListWatchlist returns a snapshot; UpdateWatchlistPrice is the only mutator
// of watchlist price state.
type WatchlistSource interface {
	ListWatchlist() ([]WatchlistItem, error)
	UpdateWatchlistPrice(productID string, price decimal.Decimal) error
}

// PurchaseSource is what the purchase tracking loop needs from storage
type PurchaseSource interface {
	ListPurchases() ([]PurchaseRecord, error)
}

// Store is the purchase/watchlist/profile repository shared by handlers and loops
type Store interface {
	WatchlistSource
	PurchaseSource

	AddWatchlistItem(item WatchlistItem) error
	RemoveWatchlistItem(productID string) error
	AddPurchase(record PurchaseRecord) error

	Profile() (UserProfile, error)
	SaveProfile(profile UserProfile) error

	Close() error
}

// QueryInterpreter turns a natural-language query into recommendations
type QueryInterpreter interface {
	Interpret(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// ImageScraper finds a product image on a retailer page.
// ok is false when nothing usable was found.
type ImageScraper interface {
	ScrapeImage(ctx context.Context, sourceURL string) (imageURL string, ok bool)
}
