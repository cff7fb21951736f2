package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cliq_go/internal/domain"
	"cliq_go/internal/infra"
	"cliq_go/internal/strategy"

	"github.com/shopspring/decimal"
)

const (
	DefaultWatchlistInterval   = 5 * time.Minute
	DefaultPurchaseInterval    = 30 * time.Minute
	DefaultRecentActivityLimit = 20
)

// Config holds the tracker timings
type Config struct {
	InactiveThreshold   time.Duration
	WatchlistInterval   time.Duration
	PurchaseInterval    time.Duration
	RecentActivityLimit int
	LogCapacity         int
}

// DefaultConfig returns the production timings
func DefaultConfig() Config {
	return Config{
		InactiveThreshold:   DefaultInactiveThreshold,
		WatchlistInterval:   DefaultWatchlistInterval,
		PurchaseInterval:    DefaultPurchaseInterval,
		RecentActivityLimit: DefaultRecentActivityLimit,
		LogCapacity:         DefaultLogCapacity,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InactiveThreshold <= 0 {
		c.InactiveThreshold = d.InactiveThreshold
	}
	if c.WatchlistInterval <= 0 {
		c.WatchlistInterval = d.WatchlistInterval
	}
	if c.PurchaseInterval <= 0 {
		c.PurchaseInterval = d.PurchaseInterval
	}
	if c.RecentActivityLimit <= 0 {
		c.RecentActivityLimit = d.RecentActivityLimit
	}
	if c.LogCapacity <= 0 {
		c.LogCapacity = d.LogCapacity
	}
	return c
}

// Status is the snapshot served by the tracking status endpoint
type Status struct {
	UserActive               bool                   `json:"user_active"`
	TrackingRunning          bool                   `json:"tracking_running"`
	LastActive               time.Time              `json:"last_active"`
	InactiveThresholdHours   float64                `json:"inactive_threshold_hours"`
	HoursUntilPause          float64                `json:"hours_until_pause"`
	WatchlistIntervalMinutes float64                `json:"watchlist_interval_minutes"`
	PurchaseIntervalMinutes  float64                `json:"purchase_interval_minutes"`
	RecentActivity           []domain.TrackingEvent `json:"recent_activity"`
	PurchaseAlerts           []domain.PriceAlert    `json:"purchase_alerts"`
}

// Tracker owns the two background price loops, the activity log and the
// purchase alerts they produce.
type Tracker struct {
	cfg       Config
	gate      *ActivityGate
	sim       strategy.PriceSimulator
	watchlist domain.WatchlistSource
	purchases domain.PurchaseSource
	log       *ActivityLog
	metrics   *infra.Metrics
	now       func() time.Time

	// Boundary: used to push tracking events to live subscribers
	onEvent func(domain.TrackingEvent)

	mu           sync.Mutex
	alerts       []domain.PriceAlert // insertion order, one per product id
	marketPrices map[string]decimal.Decimal

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTracker wires a tracker. onEvent may be nil.
func NewTracker(
	cfg Config,
	sim strategy.PriceSimulator,
	watchlist domain.WatchlistSource,
	purchases domain.PurchaseSource,
	onEvent func(domain.TrackingEvent),
) *Tracker {
	cfg = cfg.withDefaults()
	return &Tracker{
		cfg:          cfg,
		gate:         NewActivityGate(cfg.InactiveThreshold),
		sim:          sim,
		watchlist:    watchlist,
		purchases:    purchases,
		log:          NewActivityLog(cfg.LogCapacity),
		metrics:      infra.GlobalMetrics,
		now:          time.Now,
		onEvent:      onEvent,
		marketPrices: make(map[string]decimal.Decimal),
	}
}

// Gate exposes the activity gate, e.g. for request middleware
func (t *Tracker) Gate() *ActivityGate {
	return t.gate
}

// RecordActivity keeps tracking alive; called for every inbound request
func (t *Tracker) RecordActivity() {
	t.gate.RecordActivity()
}

// Start launches both loops. They stop when ctx is cancelled or Stop is called.
func (t *Tracker) Start(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return fmt.Errorf("tracker already running")
	}
	ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(2)
	go t.loop(ctx, "watchlist", t.cfg.WatchlistInterval, t.TickWatchlist)
	go t.loop(ctx, "purchase", t.cfg.PurchaseInterval, t.TickPurchases)

	slog.Info("Price tracking started",
		slog.Duration("watchlist_interval", t.cfg.WatchlistInterval),
		slog.Duration("purchase_interval", t.cfg.PurchaseInterval),
	)
	return nil
}

// Stop cancels both loops and waits for them to return
func (t *Tracker) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	t.running.Store(false)
}

// Running reports whether the loops have been started and not stopped
func (t *Tracker) Running() bool {
	return t.running.Load()
}

// loop sleeps a full interval before every tick and exits at the sleep point on cancellation
func (t *Tracker) loop(ctx context.Context, name string, interval time.Duration, tick func()) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Tracking loop stopped", slog.String("loop", name))
			return
		case <-ticker.C:
			t.safeTick(name, tick)
		}
	}
}

// safeTick keeps the loop alive when a tick panics
func (t *Tracker) safeTick(name string, tick func()) {
	defer func() {
		if r := recover(); r != nil {
			t.metrics.RecordError()
			slog.Error("Tracking tick panic recovered",
				slog.String("loop", name),
				slog.Any("panic", r),
			)
		}
	}()
	tick()
}

// TickWatchlist runs one watchlist check
func (t *Tracker) TickWatchlist() {
	if !t.gate.IsActive() {
		t.metrics.RecordPausedTick()
		t.record(domain.TrackingEvent{Type: domain.EventWatchlistPaused, Reason: domain.PausedReason})
		return
	}
	t.metrics.RecordWatchlistTick()

	items, err := t.watchlist.ListWatchlist()
	if err != nil {
		t.metrics.RecordError()
		slog.Error("Failed to list watchlist", slog.Any("error", err))
		return
	}

	for _, item := range items {
		if err := t.checkWatchlistItem(item); err != nil {
			t.metrics.RecordItemFault()
			slog.Warn("Skipping watchlist item",
				slog.String("product_id", item.ProductID),
				slog.Any("error", err),
			)
		}
	}
}

func (t *Tracker) checkWatchlistItem(item domain.WatchlistItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if !item.Price.IsPositive() {
		return domain.ErrInvalidPrice
	}

	old := item.Price
	next := t.sim.Simulate(old)
	if next.Equal(old) {
		t.record(domain.TrackingEvent{
			Type:        domain.EventWatchlistChecked,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       domain.Money(old),
		})
		return nil
	}

	if err := t.watchlist.UpdateWatchlistPrice(item.ProductID, next); err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	t.metrics.RecordPriceUpdate()
	t.record(domain.TrackingEvent{
		Type:        domain.EventWatchlistPriceUpdate,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		OldPrice:    domain.Money(old),
		NewPrice:    domain.Money(next),
		Change:      domain.Money(next.Sub(old).Round(2)),
	})
	return nil
}

// TickPurchases runs one purchase check
func (t *Tracker) TickPurchases() {
	if !t.gate.IsActive() {
		t.metrics.RecordPausedTick()
		t.record(domain.TrackingEvent{Type: domain.EventPurchasePaused, Reason: domain.PausedReason})
		return
	}
	t.metrics.RecordPurchaseTick()

	purchases, err := t.purchases.ListPurchases()
	if err != nil {
		t.metrics.RecordError()
		slog.Error("Failed to list purchases", slog.Any("error", err))
		return
	}

	for _, p := range purchases {
		if err := t.checkPurchase(p); err != nil {
			t.metrics.RecordItemFault()
			slog.Warn("Skipping purchase",
				slog.String("product_id", p.ProductID),
				slog.Any("error", err),
			)
		}
	}
}

func (t *Tracker) checkPurchase(p domain.PurchaseRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if !p.Price.IsPositive() {
		return domain.ErrInvalidPrice
	}

	t.mu.Lock()
	market, ok := t.marketPrices[p.ProductID]
	if !ok {
		market = p.Price
	}
	t.mu.Unlock()

	next := t.sim.Simulate(market)

	t.mu.Lock()
	t.marketPrices[p.ProductID] = next
	t.mu.Unlock()

	if !next.LessThan(p.Price) {
		t.record(domain.TrackingEvent{
			Type:               domain.EventPurchaseChecked,
			ProductID:          p.ProductID,
			ProductName:        p.ProductName,
			PurchasedAt:        domain.Money(p.Price),
			CurrentMarketPrice: domain.Money(next),
		})
		return nil
	}

	savings := p.Price.Sub(next).Round(2)
	alert := domain.PriceAlert{
		ProductID:          p.ProductID,
		ProductName:        p.ProductName,
		PurchasedPrice:     p.Price,
		CurrentMarketPrice: next,
		Savings:            savings,
		DropPercent:        savings.Div(p.Price).Mul(hundred).Round(1),
		Timestamp:          t.now(),
	}
	t.upsertAlert(alert)
	t.metrics.RecordAlertRaised()

	t.record(domain.TrackingEvent{
		Type:               domain.EventPurchasePriceDrop,
		ProductID:          p.ProductID,
		ProductName:        p.ProductName,
		PurchasedAt:        domain.Money(p.Price),
		CurrentMarketPrice: domain.Money(next),
		Savings:            domain.Money(savings),
	})
	return nil
}

func (t *Tracker) upsertAlert(alert domain.PriceAlert) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.alerts {
		if t.alerts[i].ProductID == alert.ProductID {
			t.alerts[i] = alert
			return
		}
	}
	t.alerts = append(t.alerts, alert)
}

// MarketPrice returns the simulated market price for a purchased product
func (t *Tracker) MarketPrice(productID string) (decimal.Decimal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.marketPrices[productID]
	return p, ok
}

// PurchaseAlerts returns a copy of the active alerts
func (t *Tracker) PurchaseAlerts() []domain.PriceAlert {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.PriceAlert{}, t.alerts...)
}

// ClearPurchaseAlert dismisses the alert for productID.
// It reports whether an alert was removed; a missing alert is a no-op.
func (t *Tracker) ClearPurchaseAlert(productID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.alerts {
		if t.alerts[i].ProductID == productID {
			t.alerts = append(t.alerts[:i], t.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// TotalPotentialSavings sums savings across active alerts
func (t *Tracker) TotalPotentialSavings() decimal.Decimal {
	return SumSavings(t.PurchaseAlerts())
}

// SumSavings totals alert savings, rounded to cents
func SumSavings(alerts []domain.PriceAlert) decimal.Decimal {
	total := decimal.Zero
	for _, a := range alerts {
		total = total.Add(a.Savings)
	}
	return total.Round(2)
}

// RecentActivity returns up to n most recent tracking events, oldest first
func (t *Tracker) RecentActivity(n int) []domain.TrackingEvent {
	return t.log.Recent(n)
}

// Status returns the tracking status snapshot
func (t *Tracker) Status() Status {
	active := t.gate.IsActive()

	var hoursLeft float64
	if active {
		hoursLeft = decimal.NewFromFloat(t.gate.TimeUntilPause().Hours()).Round(1).InexactFloat64()
	}

	return Status{
		UserActive:               active,
		TrackingRunning:          t.Running() && active,
		LastActive:               t.gate.LastActive(),
		InactiveThresholdHours:   t.cfg.InactiveThreshold.Hours(),
		HoursUntilPause:          hoursLeft,
		WatchlistIntervalMinutes: t.cfg.WatchlistInterval.Minutes(),
		PurchaseIntervalMinutes:  t.cfg.PurchaseInterval.Minutes(),
		RecentActivity:           t.log.Recent(t.cfg.RecentActivityLimit),
		PurchaseAlerts:           t.PurchaseAlerts(),
	}
}

func (t *Tracker) record(ev domain.TrackingEvent) {
	ev.Timestamp = t.now()
	t.log.Append(ev)
	if t.onEvent != nil {
		t.onEvent(ev)
	}
}
