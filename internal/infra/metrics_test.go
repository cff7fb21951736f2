package infra

import (
	"testing"
)

func TestMetrics_RecordRequest(t *testing.T) {
	m := &Metrics{}

	m.RecordRequest(1000)
	m.RecordRequest(2000)
	m.RecordRequest(3000)

	snap := m.Snapshot()

	if snap.Requests != 3 {
		t.Errorf("Expected 3 requests, got %d", snap.Requests)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("Expected avg latency 2000, got %d", snap.AvgLatencyNs)
	}
}

func TestMetrics_Tracking(t *testing.T) {
	m := &Metrics{}

	m.RecordWatchlistTick()
	m.RecordWatchlistTick()
	m.RecordPurchaseTick()
	m.RecordPausedTick()
	m.RecordPriceUpdate()
	m.RecordAlertRaised()
	m.RecordItemFault()

	snap := m.Snapshot()
	if snap.WatchlistTicks != 2 || snap.PurchaseTicks != 1 || snap.PausedTicks != 1 {
		t.Errorf("Unexpected tick counters: %+v", snap)
	}
	if snap.PriceUpdates != 1 || snap.AlertsRaised != 1 || snap.ItemFaults != 1 {
		t.Errorf("Unexpected item counters: %+v", snap)
	}
}

func TestMetrics_Search(t *testing.T) {
	m := &Metrics{}

	m.RecordSearch(false)
	m.RecordSearch(true)
	m.RecordScrape(true)
	m.RecordScrape(false)
	m.RecordScrape(false)

	snap := m.Snapshot()
	if snap.Searches != 2 || snap.LLMFallbacks != 1 {
		t.Errorf("Expected 2 searches / 1 fallback, got %d / %d", snap.Searches, snap.LLMFallbacks)
	}
	if snap.ScrapeHits != 1 || snap.ScrapeMisses != 2 {
		t.Errorf("Expected 1 hit / 2 misses, got %d / %d", snap.ScrapeHits, snap.ScrapeMisses)
	}
}

func TestMetrics_Connections(t *testing.T) {
	m := &Metrics{}

	m.IncrementConnections()
	m.IncrementConnections()
	m.IncrementConnections()

	snap := m.Snapshot()
	if snap.ActiveConnections != 3 {
		t.Errorf("Expected 3 connections, got %d", snap.ActiveConnections)
	}

	m.DecrementConnections()
	snap = m.Snapshot()
	if snap.ActiveConnections != 2 {
		t.Errorf("Expected 2 connections, got %d", snap.ActiveConnections)
	}
}

func TestMetrics_CircuitState(t *testing.T) {
	m := &Metrics{}

	if m.Snapshot().CircuitOpen {
		t.Error("Expected circuit closed initially")
	}

	m.SetCircuitState(true)
	if !m.Snapshot().CircuitOpen {
		t.Error("Expected circuit open")
	}

	m.SetCircuitState(false)
	if m.Snapshot().CircuitOpen {
		t.Error("Expected circuit closed")
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordRequest(1000)
	m.RecordError()
	m.RecordPriceUpdate()
	m.IncrementConnections()

	m.Reset()
	snap := m.Snapshot()

	if snap.Requests != 0 || snap.AvgLatencyNs != 0 {
		t.Error("Expected 0 requests after reset")
	}
	if snap.ErrorsTotal != 0 || snap.PriceUpdates != 0 {
		t.Error("Expected 0 counters after reset")
	}
	if snap.ActiveConnections != 0 {
		t.Error("Expected 0 connections after reset")
	}
}
