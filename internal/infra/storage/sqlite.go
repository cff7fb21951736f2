package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cliq_go/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Row models. Money columns are TEXT so decimals round-trip exactly.

type watchlistRow struct {
	ID          uint                `gorm:"primaryKey;autoIncrement"`
	ProductID   string              `gorm:"uniqueIndex;not null"`
	ProductName string              `gorm:"not null"`
	Price       decimal.Decimal     `gorm:"type:text;not null"`
	TargetPrice decimal.NullDecimal `gorm:"type:text"`
	Brand       string
	SourceURL   string
	Category    string
}

func (watchlistRow) TableName() string { return "watchlist" }

type pricePointRow struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	ProductID string          `gorm:"index;not null"`
	Price     decimal.Decimal `gorm:"type:text;not null"`
	Date      time.Time       `gorm:"not null"`
}

func (pricePointRow) TableName() string { return "price_history" }

type purchaseRow struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	OrderID      string `gorm:"uniqueIndex;not null"`
	ProductID    string `gorm:"index;not null"`
	ProductName  string
	Price        decimal.Decimal `gorm:"type:text;not null"`
	Brand        string
	Category     string
	CardNickname string
	Timestamp    time.Time `gorm:"not null"`
}

func (purchaseRow) TableName() string { return "purchases" }

// profileRow holds the single user profile as a JSON document
type profileRow struct {
	ID   uint   `gorm:"primaryKey"`
	Data string `gorm:"type:text;not null"`
}

func (profileRow) TableName() string { return "profile" }

const profileRowID = 1

// SQLiteStore persists the store in a pure-Go SQLite database
type SQLiteStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// single writer; sqlite serializes anyway
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&watchlistRow{}, &pricePointRow{}, &purchaseRow{}, &profileRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// ======================================================================================
// Watchlist Operations
// ======================================================================================

// ListWatchlist returns all watched items with their history, in insertion order
func (s *SQLiteStore) ListWatchlist() ([]domain.WatchlistItem, error) {
	var rows []watchlistRow
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	var points []pricePointRow
	if err := s.db.Order("id").Find(&points).Error; err != nil {
		return nil, err
	}

	history := make(map[string][]domain.PricePoint, len(rows))
	for _, p := range points {
		history[p.ProductID] = append(history[p.ProductID], domain.PricePoint{Price: p.Price, Date: p.Date})
	}

	items := make([]domain.WatchlistItem, 0, len(rows))
	for _, r := range rows {
		item := domain.WatchlistItem{
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			Price:        r.Price,
			Brand:        r.Brand,
			SourceURL:    r.SourceURL,
			Category:     r.Category,
			PriceHistory: history[r.ProductID],
		}
		if r.TargetPrice.Valid {
			tp := r.TargetPrice.Decimal
			item.TargetPrice = &tp
		}
		items = append(items, item)
	}
	return items, nil
}

// AddWatchlistItem starts watching an item, replacing any item with the same product id
func (s *SQLiteStore) AddWatchlistItem(item domain.WatchlistItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	item = item.Clone()
	item.SeedHistory(s.now())

	row := watchlistRow{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Price:       item.Price,
		Brand:       item.Brand,
		SourceURL:   item.SourceURL,
		Category:    item.Category,
	}
	if item.TargetPrice != nil {
		row.TargetPrice = decimal.NewNullDecimal(*item.TargetPrice)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// keep the original position when re-adding
		var existing watchlistRow
		err := tx.First(&existing, "product_id = ?", item.ProductID).Error
		switch {
		case err == nil:
			row.ID = existing.ID
			if err := tx.Where("product_id = ?", item.ProductID).Delete(&pricePointRow{}).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		points := make([]pricePointRow, len(item.PriceHistory))
		for i, p := range item.PriceHistory {
			points[i] = pricePointRow{ProductID: item.ProductID, Price: p.Price, Date: p.Date}
		}
		return tx.Create(&points).Error
	})
}

// RemoveWatchlistItem stops watching productID
func (s *SQLiteStore) RemoveWatchlistItem(productID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("product_id = ?", productID).Delete(&watchlistRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return tx.Where("product_id = ?", productID).Delete(&pricePointRow{}).Error
	})
}

// UpdateWatchlistPrice appends a price observation and updates the current price
func (s *SQLiteStore) UpdateWatchlistPrice(productID string, price decimal.Decimal) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row watchlistRow
		err := tx.First(&row, "product_id = ?", productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		now := s.now()
		var last pricePointRow
		err = tx.Where("product_id = ?", productID).Order("id desc").First(&last).Error
		if err == nil && now.Before(last.Date) {
			now = last.Date
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&pricePointRow{ProductID: productID, Price: price, Date: now}).Error; err != nil {
			return err
		}
		return tx.Model(&row).Update("price", price).Error
	})
}

// ======================================================================================
// Purchase Operations
// ======================================================================================

// AddPurchase appends a purchase record
func (s *SQLiteStore) AddPurchase(record domain.PurchaseRecord) error {
	if !record.Price.IsPositive() {
		return domain.ErrInvalidPrice
	}
	return s.db.Create(&purchaseRow{
		OrderID:      record.OrderID,
		ProductID:    record.ProductID,
		ProductName:  record.ProductName,
		Price:        record.Price,
		Brand:        record.Brand,
		Category:     record.Category,
		CardNickname: record.CardNickname,
		Timestamp:    record.Timestamp,
	}).Error
}

// ListPurchases returns purchases oldest first with shipping status computed for now
func (s *SQLiteStore) ListPurchases() ([]domain.PurchaseRecord, error) {
	var rows []purchaseRow
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]domain.PurchaseRecord, len(rows))
	for i, r := range rows {
		out[i] = domain.PurchaseRecord{
			OrderID:      r.OrderID,
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			Price:        r.Price,
			Brand:        r.Brand,
			Category:     r.Category,
			CardNickname: r.CardNickname,
			Timestamp:    r.Timestamp,
		}.WithShippingStatus(now)
	}
	return out, nil
}

// ======================================================================================
// Profile Operations
// ======================================================================================

// Profile loads the stored profile, or the default one when none was saved
func (s *SQLiteStore) Profile() (domain.UserProfile, error) {
	var row profileRow
	err := s.db.First(&row, profileRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultUserProfile(), nil // Not found is not an error
	}
	if err != nil {
		return domain.UserProfile{}, err
	}

	var profile domain.UserProfile
	if err := json.Unmarshal([]byte(row.Data), &profile); err != nil {
		return domain.UserProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	profile.Normalize()
	return profile, nil
}

// SaveProfile replaces the stored profile
func (s *SQLiteStore) SaveProfile(profile domain.UserProfile) error {
	profile.Normalize()
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return s.db.Save(&profileRow{ID: profileRowID, Data: string(data)}).Error
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
