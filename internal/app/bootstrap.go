package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cliq_go/internal/api"
	"cliq_go/internal/domain"
	"cliq_go/internal/engine"
	"cliq_go/internal/infra"
	"cliq_go/internal/infra/llm"
	"cliq_go/internal/infra/scraper"
	"cliq_go/internal/infra/storage"
	"cliq_go/internal/service"
	"cliq_go/internal/strategy"
	"cliq_go/internal/tracking"

	"github.com/shopspring/decimal"
)

// DefaultConfigPath is where the config file is looked up
const DefaultConfigPath = "configs/config.yaml"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Store      domain.Store
	Dispatcher *engine.Dispatcher
	Tracker    *tracking.Tracker
	Search     *service.SearchService
	Server     *api.Server
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires every component
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping Cliq...")

	// money serialises as JSON numbers for API clients
	decimal.MarshalJSONWithoutQuotes = true

	// 1. Load Config
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))

	// 3. Initialize Storage
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	b.Store = store
	slog.Info("✅ Storage initialized", slog.String("driver", cfg.Storage.Driver))

	// 4. Tracking core
	b.Dispatcher = engine.NewDispatcher(1024)
	sim := strategy.NewRandomDrift(cfg.Tracking.Drift, nil)
	b.Tracker = tracking.NewTracker(tracking.Config{
		InactiveThreshold:   cfg.InactiveThreshold(),
		WatchlistInterval:   cfg.WatchlistInterval(),
		PurchaseInterval:    cfg.PurchaseInterval(),
		RecentActivityLimit: cfg.Tracking.RecentActivityLimit,
		LogCapacity:         cfg.Tracking.LogCapacity,
	}, sim, store, store, b.Dispatcher.Publish)
	slog.Info("✅ Tracker ready",
		slog.Duration("watchlist_interval", cfg.WatchlistInterval()),
		slog.Duration("purchase_interval", cfg.PurchaseInterval()))

	// 5. Query interpretation
	var completer service.Completer
	if cfg.LLMEnabled() {
		client, err := llm.NewClient(llm.ConfigFrom(cfg))
		if err != nil {
			return fmt.Errorf("llm client: %w", err)
		}
		completer = client
		slog.Info("✅ LLM client ready", slog.String("model", client.Model()))
	} else {
		slog.Warn("⚠️ No OpenRouter API key, search uses keyword fallback")
	}

	var imageScraper domain.ImageScraper
	if cfg.Scraper.Enabled {
		imageScraper = scraper.NewImageScraper(scraper.Config{
			Timeout:    time.Duration(cfg.Scraper.TimeoutSec) * time.Second,
			MinImagePx: cfg.Scraper.MinImagePx,
		})
		slog.Info("✅ Image scraper ready")
	}
	b.Search = service.NewSearchService(completer, imageScraper, store, cfg.Scraper.MaxConcurrency)

	// 6. HTTP surface
	b.Server = api.NewServer(store, b.Tracker, b.Search, b.Dispatcher, api.Options{
		AllowedOrigins:      cfg.HTTP.AllowedOrigins,
		SearchRatePerMinute: cfg.HTTP.SearchRatePerMinute,
	})

	return nil
}

// Start launches the background loops
func (b *Bootstrap) Start(ctx context.Context) error {
	go b.Dispatcher.Run(ctx)
	if err := b.Tracker.Start(ctx); err != nil {
		return err
	}
	slog.Info("✅ Tracking loops started")
	return nil
}

// Handler returns the HTTP handler
func (b *Bootstrap) Handler() http.Handler {
	return b.Server.Routes()
}

// Shutdown stops the loops and releases storage
func (b *Bootstrap) Shutdown() {
	if b.Tracker != nil {
		b.Tracker.Stop()
	}
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			slog.Error("Failed to close storage", slog.Any("error", err))
		}
	}
}

// loadConfig reads the config file; a missing file means defaults plus env
func loadConfig(path string) (*infra.Config, error) {
	cfg, err := infra.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Config file not found, using defaults", slog.String("path", path))
		return infra.ParseConfig(nil)
	}
	return cfg, err
}

func openStore(cfg *infra.Config) (domain.Store, error) {
	if cfg.Storage.Driver != infra.StorageSQLite {
		return storage.NewMemoryStore(), nil
	}
	if dir := filepath.Dir(cfg.Storage.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return storage.NewSQLiteStore(cfg.Storage.SQLitePath)
}
