package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cliq_go/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	_ domain.Store = (*MemoryStore)(nil)
	_ domain.Store = (*SQLiteStore)(nil)
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func newStores(t *testing.T) map[string]func(now func() time.Time) domain.Store {
	return map[string]func(now func() time.Time) domain.Store{
		"memory": func(now func() time.Time) domain.Store {
			s := NewMemoryStore()
			s.now = now
			return s
		},
		"sqlite": func(now func() time.Time) domain.Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "test.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore failed: %v", err)
			}
			s.now = now
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStore_Watchlist(t *testing.T) {
	for name, open := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			clock := &fixedClock{t: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
			s := open(clock.Now)

			target := dec("80")
			err := s.AddWatchlistItem(domain.WatchlistItem{
				ProductID: "mon-001", ProductName: "Monitor", Price: dec("100"),
				TargetPrice: &target, Brand: "Dell", Category: "monitors",
			})
			if err != nil {
				t.Fatalf("AddWatchlistItem failed: %v", err)
			}
			if err := s.AddWatchlistItem(domain.WatchlistItem{ProductID: "hp-001", ProductName: "Headphones", Price: dec("50")}); err != nil {
				t.Fatal(err)
			}

			// 1. Seeded history
			items, err := s.ListWatchlist()
			if err != nil {
				t.Fatalf("ListWatchlist failed: %v", err)
			}
			if len(items) != 2 || items[0].ProductID != "mon-001" || items[1].ProductID != "hp-001" {
				t.Fatalf("unexpected watchlist order: %+v", items)
			}
			if len(items[0].PriceHistory) != 1 || !items[0].PriceHistory[0].Price.Equal(dec("100")) {
				t.Errorf("history not seeded: %+v", items[0].PriceHistory)
			}
			if items[0].TargetPrice == nil || !items[0].TargetPrice.Equal(target) {
				t.Errorf("target price lost: %v", items[0].TargetPrice)
			}

			// 2. Price update appends
			clock.t = clock.t.Add(5 * time.Minute)
			if err := s.UpdateWatchlistPrice("mon-001", dec("92.50")); err != nil {
				t.Fatalf("UpdateWatchlistPrice failed: %v", err)
			}
			items, _ = s.ListWatchlist()
			got := items[0]
			if !got.Price.Equal(dec("92.5")) || len(got.PriceHistory) != 2 {
				t.Errorf("update not applied: %+v", got)
			}
			if !got.PriceHistory[1].Date.Equal(clock.t) {
				t.Errorf("observation date = %s, want %s", got.PriceHistory[1].Date, clock.t)
			}

			// 3. Snapshots are isolated
			items[0].PriceHistory[0].Price = dec("1")
			again, _ := s.ListWatchlist()
			if again[0].PriceHistory[0].Price.Equal(dec("1")) {
				t.Error("snapshot aliases store state")
			}

			// 4. Unknown ids
			if err := s.UpdateWatchlistPrice("nope", dec("1")); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("UpdateWatchlistPrice(unknown) = %v, want ErrNotFound", err)
			}
			if err := s.RemoveWatchlistItem("nope"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("RemoveWatchlistItem(unknown) = %v, want ErrNotFound", err)
			}

			// 5. Re-adding replaces
			if err := s.AddWatchlistItem(domain.WatchlistItem{ProductID: "hp-001", ProductName: "Headphones v2", Price: dec("45")}); err != nil {
				t.Fatal(err)
			}
			items, _ = s.ListWatchlist()
			if len(items) != 2 {
				t.Fatalf("re-add duplicated item: %d items", len(items))
			}

			// 6. Remove
			if err := s.RemoveWatchlistItem("mon-001"); err != nil {
				t.Fatalf("RemoveWatchlistItem failed: %v", err)
			}
			items, _ = s.ListWatchlist()
			if len(items) != 1 || items[0].ProductName != "Headphones v2" {
				t.Errorf("unexpected watchlist after remove: %+v", items)
			}
		})
	}
}

func TestStore_WatchlistRejectsBadPrice(t *testing.T) {
	for name, open := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(time.Now)
			err := s.AddWatchlistItem(domain.WatchlistItem{ProductID: "x", ProductName: "x", Price: decimal.Zero})
			if !errors.Is(err, domain.ErrInvalidPrice) {
				t.Errorf("err = %v, want ErrInvalidPrice", err)
			}
		})
	}
}

func TestStore_WatchlistSuppliedHistory(t *testing.T) {
	for name, open := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			clock := &fixedClock{t: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
			s := open(clock.Now)
			t0 := clock.t.Add(-2 * time.Hour)

			// 1. History ending elsewhere gets the current price appended
			err := s.AddWatchlistItem(domain.WatchlistItem{
				ProductID: "lt-001", ProductName: "Laptop", Price: dec("50"),
				PriceHistory: []domain.PricePoint{
					{Price: dec("100"), Date: t0},
					{Price: dec("80"), Date: t0.Add(time.Hour)},
				},
			})
			if err != nil {
				t.Fatalf("AddWatchlistItem failed: %v", err)
			}
			items, _ := s.ListWatchlist()
			h := items[0].PriceHistory
			if len(h) != 3 {
				t.Fatalf("history len = %d, want 3", len(h))
			}
			if !h[2].Price.Equal(items[0].Price) || !items[0].Price.Equal(dec("50")) {
				t.Errorf("last entry %s does not match price %s", h[2].Price, items[0].Price)
			}
			if !h[2].Date.Equal(clock.t) {
				t.Errorf("appended date = %s, want %s", h[2].Date, clock.t)
			}

			// 2. History already ending at the price is kept as is
			err = s.AddWatchlistItem(domain.WatchlistItem{
				ProductID: "lt-002", ProductName: "Laptop 2", Price: dec("80"),
				PriceHistory: []domain.PricePoint{
					{Price: dec("100"), Date: t0},
					{Price: dec("80"), Date: t0.Add(time.Hour)},
				},
			})
			if err != nil {
				t.Fatal(err)
			}
			items, _ = s.ListWatchlist()
			if len(items[1].PriceHistory) != 2 {
				t.Errorf("history len = %d, want 2", len(items[1].PriceHistory))
			}

			// 3. Non-positive history prices are rejected
			for _, bad := range []string{"0", "-5"} {
				err = s.AddWatchlistItem(domain.WatchlistItem{
					ProductID: "lt-003", ProductName: "Laptop 3", Price: dec("80"),
					PriceHistory: []domain.PricePoint{{Price: dec(bad), Date: t0}, {Price: dec("80"), Date: t0}},
				})
				if !errors.Is(err, domain.ErrInvalidPrice) {
					t.Errorf("history price %s: err = %v, want ErrInvalidPrice", bad, err)
				}
			}
			items, _ = s.ListWatchlist()
			if len(items) != 2 {
				t.Errorf("rejected item stored: %d items", len(items))
			}
		})
	}
}

func TestStore_Purchases(t *testing.T) {
	for name, open := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			bought := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
			clock := &fixedClock{t: bought}
			s := open(clock.Now)

			rec := domain.PurchaseRecord{
				OrderID: "o-1", ProductID: "wj-001", ProductName: "Parka", Price: dec("199.99"),
				Brand: "North", Category: "winter_jackets", CardNickname: "Visa", Timestamp: bought,
			}
			if err := s.AddPurchase(rec); err != nil {
				t.Fatalf("AddPurchase failed: %v", err)
			}

			list, err := s.ListPurchases()
			if err != nil {
				t.Fatalf("ListPurchases failed: %v", err)
			}
			if len(list) != 1 || list[0].ShippingStatus != domain.ShippingProcessing {
				t.Fatalf("unexpected purchases: %+v", list)
			}
			if !list[0].Price.Equal(dec("199.99")) {
				t.Errorf("price = %s, want 199.99", list[0].Price)
			}

			clock.t = bought.Add(3 * time.Hour)
			list, _ = s.ListPurchases()
			if list[0].ShippingStatus != domain.ShippingOutForDelivery {
				t.Errorf("status = %s, want out_for_delivery", list[0].ShippingStatus)
			}

			if err := s.AddPurchase(domain.PurchaseRecord{OrderID: "o-2", Price: decimal.Zero}); !errors.Is(err, domain.ErrInvalidPrice) {
				t.Errorf("zero price purchase err = %v", err)
			}
		})
	}
}

func TestStore_Profile(t *testing.T) {
	for name, open := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(time.Now)

			p, err := s.Profile()
			if err != nil {
				t.Fatalf("Profile failed: %v", err)
			}
			if p.PriceSensitivity != domain.QualityBalanced || p.ShippingPreference != domain.ShippingNormal {
				t.Errorf("unexpected default profile: %+v", p)
			}

			p.PriceSensitivity = domain.QualityBudget
			p.PreferredBrands = []string{"Patagonia"}
			p.Learned.Climate = "cold"
			p.Learned.Sizes = map[string]string{"shoe": "10"}
			if err := s.SaveProfile(p); err != nil {
				t.Fatalf("SaveProfile failed: %v", err)
			}

			got, _ := s.Profile()
			if got.PriceSensitivity != domain.QualityBudget || got.Learned.Climate != "cold" ||
				len(got.PreferredBrands) != 1 || got.Learned.Sizes["shoe"] != "10" {
				t.Errorf("profile not persisted: %+v", got)
			}
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cliq.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddWatchlistItem(domain.WatchlistItem{ProductID: "a", ProductName: "A", Price: dec("10.10")}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	items, _ := s.ListWatchlist()
	if len(items) != 1 || !items[0].Price.Equal(dec("10.10")) {
		t.Errorf("data not persisted across reopen: %+v", items)
	}
}
