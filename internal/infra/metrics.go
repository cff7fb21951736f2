package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability for the tracking loops and the API.
// Uses atomic operations for thread-safety; exported to Prometheus by MetricsCollector.
type Metrics struct {
	// Tracking counters
	watchlistTicks atomic.Uint64
	purchaseTicks  atomic.Uint64
	pausedTicks    atomic.Uint64
	priceUpdates   atomic.Uint64
	alertsRaised   atomic.Uint64
	itemFaults     atomic.Uint64

	// Search counters
	searches     atomic.Uint64
	llmFallbacks atomic.Uint64
	scrapeHits   atomic.Uint64
	scrapeMisses atomic.Uint64

	errorsTotal atomic.Uint64

	// Request latency tracking
	requests     atomic.Uint64
	latencySumNs atomic.Int64

	// Gauges
	activeConnections atomic.Int32 // live tracking websocket clients
	circuitOpen       atomic.Int32 // 1 = open, 0 = closed
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordRequest records a served HTTP request with latency.
func (m *Metrics) RecordRequest(latencyNs int64) {
	m.requests.Add(1)
	m.latencySumNs.Add(latencyNs)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// RecordWatchlistTick counts a completed watchlist loop pass.
func (m *Metrics) RecordWatchlistTick() { m.watchlistTicks.Add(1) }

// RecordPurchaseTick counts a completed purchase loop pass.
func (m *Metrics) RecordPurchaseTick() { m.purchaseTicks.Add(1) }

// RecordPausedTick counts a tick skipped because the user was inactive.
func (m *Metrics) RecordPausedTick() { m.pausedTicks.Add(1) }

// RecordPriceUpdate counts a simulated price change applied to an item.
func (m *Metrics) RecordPriceUpdate() { m.priceUpdates.Add(1) }

// RecordAlertRaised counts a purchase alert created or refreshed.
func (m *Metrics) RecordAlertRaised() { m.alertsRaised.Add(1) }

// RecordItemFault counts a watchlist item or purchase skipped mid-tick.
func (m *Metrics) RecordItemFault() { m.itemFaults.Add(1) }

// RecordSearch counts a search request; fallback marks a mock answer.
func (m *Metrics) RecordSearch(fallback bool) {
	m.searches.Add(1)
	if fallback {
		m.llmFallbacks.Add(1)
	}
}

// RecordScrape counts an image lookup.
func (m *Metrics) RecordScrape(hit bool) {
	if hit {
		m.scrapeHits.Add(1)
	} else {
		m.scrapeMisses.Add(1)
	}
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// SetCircuitState sets the LLM circuit breaker state (true = open).
func (m *Metrics) SetCircuitState(open bool) {
	if open {
		m.circuitOpen.Store(1)
	} else {
		m.circuitOpen.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	WatchlistTicks    uint64
	PurchaseTicks     uint64
	PausedTicks       uint64
	PriceUpdates      uint64
	AlertsRaised      uint64
	ItemFaults        uint64
	Searches          uint64
	LLMFallbacks      uint64
	ScrapeHits        uint64
	ScrapeMisses      uint64
	ErrorsTotal       uint64
	Requests          uint64
	AvgLatencyNs      int64
	ActiveConnections int32
	CircuitOpen       bool
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.requests.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		WatchlistTicks:    m.watchlistTicks.Load(),
		PurchaseTicks:     m.purchaseTicks.Load(),
		PausedTicks:       m.pausedTicks.Load(),
		PriceUpdates:      m.priceUpdates.Load(),
		AlertsRaised:      m.alertsRaised.Load(),
		ItemFaults:        m.itemFaults.Load(),
		Searches:          m.searches.Load(),
		LLMFallbacks:      m.llmFallbacks.Load(),
		ScrapeHits:        m.scrapeHits.Load(),
		ScrapeMisses:      m.scrapeMisses.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		Requests:          count,
		AvgLatencyNs:      avgLatency,
		ActiveConnections: m.activeConnections.Load(),
		CircuitOpen:       m.circuitOpen.Load() == 1,
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Uint64{
		&m.watchlistTicks, &m.purchaseTicks, &m.pausedTicks, &m.priceUpdates,
		&m.alertsRaised, &m.itemFaults, &m.searches, &m.llmFallbacks,
		&m.scrapeHits, &m.scrapeMisses, &m.errorsTotal, &m.requests,
	} {
		c.Store(0)
	}
	m.latencySumNs.Store(0)
	m.activeConnections.Store(0)
	m.circuitOpen.Store(0)
}
