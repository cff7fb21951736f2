package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cliq_go/internal/domain"

	"github.com/shopspring/decimal"
)

// fakeStore is a minimal in-memory WatchlistSource + PurchaseSource
type fakeStore struct {
	mu        sync.Mutex
	items     []domain.WatchlistItem
	purchases []domain.PurchaseRecord
	now       func() time.Time
	failList  bool
}

func (s *fakeStore) ListWatchlist() ([]domain.WatchlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errors.New("store offline")
	}
	out := make([]domain.WatchlistItem, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].Clone()
	}
	return out, nil
}

func (s *fakeStore) UpdateWatchlistPrice(id string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == id {
			s.items[i].RecordPrice(price, s.now())
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *fakeStore) ListPurchases() ([]domain.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PurchaseRecord(nil), s.purchases...), nil
}

// scriptedSim returns queued prices in order, then holds
type scriptedSim struct {
	mu     sync.Mutex
	prices []decimal.Decimal
}

func (s *scriptedSim) Simulate(p decimal.Decimal) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prices) == 0 {
		return p
	}
	next := s.prices[0]
	s.prices = s.prices[1:]
	return next
}

func prices(ss ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(ss))
	for i, s := range ss {
		out[i] = d(s)
	}
	return out
}

func newTestTracker(store *fakeStore, sim *scriptedSim) (*Tracker, *fakeClock, *[]domain.TrackingEvent) {
	clock := newFakeClock()
	store.now = clock.Now

	var mu sync.Mutex
	published := &[]domain.TrackingEvent{}
	tr := NewTracker(DefaultConfig(), sim, store, store, func(ev domain.TrackingEvent) {
		mu.Lock()
		*published = append(*published, ev)
		mu.Unlock()
	})
	tr.now = clock.Now
	tr.gate = newActivityGate(DefaultInactiveThreshold, clock.Now)
	return tr, clock, published
}

func TestTracker_WatchlistDropScenario(t *testing.T) {
	store := &fakeStore{}
	tr, clock, _ := newTestTracker(store, &scriptedSim{prices: prices("92.50")})

	item := domain.WatchlistItem{ProductID: "mon-001", ProductName: "Monitor", Price: d("100")}
	item.SeedHistory(clock.Now())
	store.items = []domain.WatchlistItem{item}

	clock.Advance(5 * time.Minute)
	tr.TickWatchlist()

	got := store.items[0]
	if len(got.PriceHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(got.PriceHistory))
	}
	if !got.Price.Equal(d("92.50")) || !got.PriceHistory[1].Price.Equal(d("92.50")) {
		t.Errorf("price not updated: %+v", got)
	}

	report := DetectPriceDrops(store.items)
	if report.ItemsWithDrops != 1 {
		t.Fatalf("ItemsWithDrops = %d, want 1", report.ItemsWithDrops)
	}
	drop := report.Drops[0]
	if !drop.DropAmount.Equal(d("7.50")) || !drop.DropPercent.Equal(d("7.5")) || drop.AlertLevel != domain.AlertMedium {
		t.Errorf("unexpected drop: amount=%s percent=%s level=%s", drop.DropAmount, drop.DropPercent, drop.AlertLevel)
	}

	events := tr.RecentActivity(0)
	if len(events) != 1 || events[0].Type != domain.EventWatchlistPriceUpdate {
		t.Fatalf("events = %+v", events)
	}
	if !events[0].Change.Equal(d("-7.5")) {
		t.Errorf("Change = %s, want -7.5", events[0].Change)
	}
}

func TestTracker_WatchlistUnchangedLogsChecked(t *testing.T) {
	store := &fakeStore{}
	tr, clock, _ := newTestTracker(store, &scriptedSim{})
	item := domain.WatchlistItem{ProductID: "hp-001", Price: d("199.99")}
	item.SeedHistory(clock.Now())
	store.items = []domain.WatchlistItem{item}

	tr.TickWatchlist()

	if len(store.items[0].PriceHistory) != 1 {
		t.Error("unchanged price must not append history")
	}
	events := tr.RecentActivity(0)
	if len(events) != 1 || events[0].Type != domain.EventWatchlistChecked || !events[0].Price.Equal(d("199.99")) {
		t.Errorf("events = %+v", events)
	}
}

func TestTracker_PausedWhenInactive(t *testing.T) {
	store := &fakeStore{}
	sim := &scriptedSim{prices: prices("1", "2", "3")}
	tr, clock, published := newTestTracker(store, sim)
	store.items = []domain.WatchlistItem{{ProductID: "a", Price: d("10")}}
	store.purchases = []domain.PurchaseRecord{{ProductID: "b", Price: d("10")}}

	clock.Advance(25 * time.Hour)
	tr.TickWatchlist()
	tr.TickPurchases()

	events := tr.RecentActivity(0)
	if len(events) != 2 {
		t.Fatalf("events = %d, want exactly one paused entry per tick", len(events))
	}
	if events[0].Type != domain.EventWatchlistPaused || events[1].Type != domain.EventPurchasePaused {
		t.Errorf("unexpected types %s, %s", events[0].Type, events[1].Type)
	}
	if events[0].Reason != domain.PausedReason {
		t.Errorf("Reason = %q", events[0].Reason)
	}
	if len(sim.prices) != 3 {
		t.Error("simulator must not run while paused")
	}
	if len(*published) != 2 {
		t.Errorf("published = %d events, want 2", len(*published))
	}

	tr.RecordActivity()
	tr.TickWatchlist()
	if last := tr.RecentActivity(1)[0]; last.Type != domain.EventWatchlistPriceUpdate {
		t.Errorf("after activity, last event = %s", last.Type)
	}
}

func TestTracker_PurchaseAlertScenario(t *testing.T) {
	store := &fakeStore{purchases: []domain.PurchaseRecord{
		{ProductID: "wj-001", ProductName: "Parka", Price: d("50")},
	}}
	sim := &scriptedSim{prices: prices("52", "40", "45", "55")}
	tr, _, _ := newTestTracker(store, sim)

	t.Run("rise above price paid raises nothing", func(t *testing.T) {
		tr.TickPurchases()
		if len(tr.PurchaseAlerts()) != 0 {
			t.Fatal("no alert expected on a rise")
		}
		if mp, _ := tr.MarketPrice("wj-001"); !mp.Equal(d("52")) {
			t.Errorf("market price = %s, want 52", mp)
		}
	})

	t.Run("drop below price paid creates alert", func(t *testing.T) {
		tr.TickPurchases()
		alerts := tr.PurchaseAlerts()
		if len(alerts) != 1 {
			t.Fatalf("alerts = %d, want 1", len(alerts))
		}
		a := alerts[0]
		if !a.PurchasedPrice.Equal(d("50")) || !a.CurrentMarketPrice.Equal(d("40")) ||
			!a.Savings.Equal(d("10")) || !a.DropPercent.Equal(d("20")) {
			t.Errorf("unexpected alert %+v", a)
		}
	})

	t.Run("second qualifying drop overwrites in place", func(t *testing.T) {
		tr.TickPurchases()
		alerts := tr.PurchaseAlerts()
		if len(alerts) != 1 {
			t.Fatalf("alerts = %d, want 1 (upsert)", len(alerts))
		}
		if !alerts[0].CurrentMarketPrice.Equal(d("45")) || !alerts[0].Savings.Equal(d("5")) || !alerts[0].DropPercent.Equal(d("10")) {
			t.Errorf("alert not updated: %+v", alerts[0])
		}
	})

	t.Run("recovery above price paid leaves alert", func(t *testing.T) {
		tr.TickPurchases()
		alerts := tr.PurchaseAlerts()
		if len(alerts) != 1 || !alerts[0].CurrentMarketPrice.Equal(d("45")) {
			t.Errorf("alert must stay until dismissed: %+v", alerts)
		}
		last := tr.RecentActivity(1)[0]
		if last.Type != domain.EventPurchaseChecked || !last.CurrentMarketPrice.Equal(d("55")) {
			t.Errorf("last event = %+v", last)
		}
	})

	t.Run("total potential savings", func(t *testing.T) {
		if got := tr.TotalPotentialSavings(); !got.Equal(d("5")) {
			t.Errorf("TotalPotentialSavings = %s, want 5", got)
		}
	})

	t.Run("dismiss", func(t *testing.T) {
		if !tr.ClearPurchaseAlert("wj-001") {
			t.Error("expected alert to be removed")
		}
		if tr.ClearPurchaseAlert("wj-001") {
			t.Error("second dismissal must be a no-op")
		}
		if len(tr.PurchaseAlerts()) != 0 {
			t.Error("alerts should be empty")
		}
	})
}

func TestTracker_MarketPriceSeededFromPurchase(t *testing.T) {
	store := &fakeStore{purchases: []domain.PurchaseRecord{{ProductID: "p", Price: d("80")}}}
	tr, _, _ := newTestTracker(store, &scriptedSim{})

	tr.TickPurchases()
	mp, ok := tr.MarketPrice("p")
	if !ok || !mp.Equal(d("80")) {
		t.Errorf("market price = %s (%v), want 80", mp, ok)
	}
}

func TestTracker_SkipsBadItems(t *testing.T) {
	store := &fakeStore{}
	tr, clock, _ := newTestTracker(store, &scriptedSim{prices: prices("9")})

	good := domain.WatchlistItem{ProductID: "good", Price: d("10")}
	good.SeedHistory(clock.Now())
	store.items = []domain.WatchlistItem{
		{ProductID: "broken", Price: decimal.Zero},
		good,
	}
	store.purchases = []domain.PurchaseRecord{{ProductID: "free", Price: decimal.Zero}}

	tr.TickWatchlist()
	tr.TickPurchases()

	if !store.items[1].Price.Equal(d("9")) {
		t.Errorf("good item not processed after bad one: %s", store.items[1].Price)
	}
	if len(tr.PurchaseAlerts()) != 0 {
		t.Error("zero-priced purchase must be skipped")
	}
}

func TestTracker_ListFailureDoesNotPanic(t *testing.T) {
	store := &fakeStore{failList: true}
	tr, _, _ := newTestTracker(store, &scriptedSim{})
	tr.TickWatchlist()
	if tr.log.Len() != 0 {
		t.Error("failed listing must not log tracking events")
	}
}

func TestTracker_Status(t *testing.T) {
	store := &fakeStore{}
	tr, clock, _ := newTestTracker(store, &scriptedSim{})

	clock.Advance(90 * time.Minute)
	st := tr.Status()
	if !st.UserActive {
		t.Error("expected active")
	}
	if st.TrackingRunning {
		t.Error("loops not started, tracking_running must be false")
	}
	if st.HoursUntilPause != 22.5 {
		t.Errorf("HoursUntilPause = %v, want 22.5", st.HoursUntilPause)
	}
	if st.InactiveThresholdHours != 24 || st.WatchlistIntervalMinutes != 5 || st.PurchaseIntervalMinutes != 30 {
		t.Errorf("unexpected config echo: %+v", st)
	}

	for i := 0; i < 30; i++ {
		tr.TickWatchlist()
	}
	if len(tr.Status().RecentActivity) != DefaultRecentActivityLimit {
		t.Errorf("recent activity = %d, want %d", len(tr.Status().RecentActivity), DefaultRecentActivityLimit)
	}

	clock.Advance(24 * time.Hour)
	st = tr.Status()
	if st.UserActive || st.HoursUntilPause != 0 {
		t.Errorf("expected inactive with 0 hours left, got %+v", st)
	}
}

func TestTracker_StartStop(t *testing.T) {
	store := &fakeStore{now: time.Now}
	item := domain.WatchlistItem{ProductID: "a", Price: d("10")}
	item.SeedHistory(time.Now())
	store.items = []domain.WatchlistItem{item}

	tr := NewTracker(Config{
		WatchlistInterval: 5 * time.Millisecond,
		PurchaseInterval:  5 * time.Millisecond,
	}, &scriptedSim{}, store, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := tr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tr.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
	if !tr.Status().TrackingRunning {
		t.Error("expected tracking_running after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for tr.log.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if tr.log.Len() == 0 {
		t.Fatal("no ticks observed")
	}

	tr.Stop()
	if tr.Running() {
		t.Error("Running should be false after Stop")
	}
}

func TestTracker_PanicInTickIsRecovered(t *testing.T) {
	store := &fakeStore{}
	tr, _, _ := newTestTracker(store, &scriptedSim{})
	tr.safeTick("test", func() { panic("boom") })
}
