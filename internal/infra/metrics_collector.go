package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// MetricsCollector exposes a Metrics instance to Prometheus without
// duplicating counters: values are read from the atomics at scrape time.
type MetricsCollector struct {
	m *Metrics

	ticks        *prometheus.Desc
	pausedTicks  *prometheus.Desc
	priceUpdates *prometheus.Desc
	alertsRaised *prometheus.Desc
	itemFaults   *prometheus.Desc
	searches     *prometheus.Desc
	llmFallbacks *prometheus.Desc
	scrapes      *prometheus.Desc
	errors       *prometheus.Desc
	requests     *prometheus.Desc
	avgLatency   *prometheus.Desc
	wsClients    *prometheus.Desc
	circuitOpen  *prometheus.Desc
}

// NewMetricsCollector creates a collector for m
func NewMetricsCollector(m *Metrics) *MetricsCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("cliq", "", name), help, labels, nil)
	}
	return &MetricsCollector{
		m:            m,
		ticks:        desc("tracking_ticks_total", "Tracking loop ticks that ran while the user was active", "loop"),
		pausedTicks:  desc("tracking_paused_ticks_total", "Tracking loop ticks skipped because the user was inactive"),
		priceUpdates: desc("watchlist_price_updates_total", "Watchlist prices changed by the simulator"),
		alertsRaised: desc("purchase_alerts_raised_total", "Purchase price-drop alerts created or refreshed"),
		itemFaults:   desc("tracking_item_faults_total", "Items skipped mid-tick after an error"),
		searches:     desc("search_requests_total", "Search requests served"),
		llmFallbacks: desc("search_llm_fallbacks_total", "Searches answered by the keyword mock"),
		scrapes:      desc("image_scrapes_total", "Product image lookups", "result"),
		errors:       desc("errors_total", "Errors recorded"),
		requests:     desc("http_requests_total", "HTTP requests served"),
		avgLatency:   desc("http_request_avg_latency_seconds", "Mean HTTP request latency"),
		wsClients:    desc("tracking_ws_clients", "Connected tracking websocket clients"),
		circuitOpen:  desc("llm_circuit_open", "1 when the LLM circuit breaker is open"),
	}
}

// Describe implements prometheus.Collector
func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.ticks, c.pausedTicks, c.priceUpdates, c.alertsRaised, c.itemFaults,
		c.searches, c.llmFallbacks, c.scrapes, c.errors, c.requests,
		c.avgLatency, c.wsClients, c.circuitOpen,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Snapshot()
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	counter(c.ticks, s.WatchlistTicks, "watchlist")
	counter(c.ticks, s.PurchaseTicks, "purchase")
	counter(c.pausedTicks, s.PausedTicks)
	counter(c.priceUpdates, s.PriceUpdates)
	counter(c.alertsRaised, s.AlertsRaised)
	counter(c.itemFaults, s.ItemFaults)
	counter(c.searches, s.Searches)
	counter(c.llmFallbacks, s.LLMFallbacks)
	counter(c.scrapes, s.ScrapeHits, "hit")
	counter(c.scrapes, s.ScrapeMisses, "miss")
	counter(c.errors, s.ErrorsTotal)
	counter(c.requests, s.Requests)
	gauge(c.avgLatency, float64(s.AvgLatencyNs)/1e9)
	gauge(c.wsClients, float64(s.ActiveConnections))

	open := 0.0
	if s.CircuitOpen {
		open = 1
	}
	gauge(c.circuitOpen, open)
}

// NewRegistry returns a registry with the Go runtime collector and m registered
func NewRegistry(m *Metrics) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewMetricsCollector(m),
	)
	return reg
}
