package storage

import (
	"sync"
	"time"

	"cliq_go/internal/domain"

	"github.com/shopspring/decimal"
)

// MemoryStore keeps purchases, the watchlist and the profile in process memory.
// Everything is lost on restart. Reads return deep copies.
type MemoryStore struct {
	mu        sync.RWMutex
	profile   domain.UserProfile
	purchases []domain.PurchaseRecord
	watchlist []domain.WatchlistItem
	now       func() time.Time
}

// NewMemoryStore creates an empty store with the default profile
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profile: domain.DefaultUserProfile(),
		now:     time.Now,
	}
}

// ListWatchlist returns a snapshot of the watchlist in insertion order
func (s *MemoryStore) ListWatchlist() ([]domain.WatchlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WatchlistItem, len(s.watchlist))
	for i := range s.watchlist {
		out[i] = s.watchlist[i].Clone()
	}
	return out, nil
}

// AddWatchlistItem starts watching an item. An item already watched under the
// same product id is replaced.
func (s *MemoryStore) AddWatchlistItem(item domain.WatchlistItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	item = item.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	item.SeedHistory(s.now())
	for i := range s.watchlist {
		if s.watchlist[i].ProductID == item.ProductID {
			s.watchlist[i] = item
			return nil
		}
	}
	s.watchlist = append(s.watchlist, item)
	return nil
}

// RemoveWatchlistItem stops watching productID
func (s *MemoryStore) RemoveWatchlistItem(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.watchlist {
		if s.watchlist[i].ProductID == productID {
			s.watchlist = append(s.watchlist[:i], s.watchlist[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// UpdateWatchlistPrice appends a price observation for productID
func (s *MemoryStore) UpdateWatchlistPrice(productID string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.watchlist {
		if s.watchlist[i].ProductID == productID {
			s.watchlist[i].RecordPrice(price, s.now())
			return nil
		}
	}
	return domain.ErrNotFound
}

// AddPurchase appends a purchase record
func (s *MemoryStore) AddPurchase(record domain.PurchaseRecord) error {
	if !record.Price.IsPositive() {
		return domain.ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append(s.purchases, record)
	return nil
}

// ListPurchases returns purchases with their shipping status computed for now
func (s *MemoryStore) ListPurchases() ([]domain.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]domain.PurchaseRecord, len(s.purchases))
	for i, p := range s.purchases {
		out[i] = p.WithShippingStatus(now)
	}
	return out, nil
}

// Profile returns the current user profile
func (s *MemoryStore) Profile() (domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, nil
}

// SaveProfile replaces the user profile
func (s *MemoryStore) SaveProfile(profile domain.UserProfile) error {
	profile.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
