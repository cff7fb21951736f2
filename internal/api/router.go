// Package api serves the shopping agent HTTP API.
package api

import (
	"net/http"
	"time"

	"cliq_go/internal/domain"
	"cliq_go/internal/engine"
	"cliq_go/internal/infra"
	"cliq_go/internal/service"
	"cliq_go/internal/tracking"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiVersion = "2.0.0"

// Options configures the HTTP surface
type Options struct {
	AllowedOrigins      []string
	SearchRatePerMinute int // 0 disables the search limiter
}

// Server holds the handler dependencies
type Server struct {
	store      domain.Store
	tracker    *tracking.Tracker
	search     *service.SearchService
	dispatcher *engine.Dispatcher
	metrics    *infra.Metrics
	registry   *prometheus.Registry
	opts       Options
	now        func() time.Time
}

// NewServer wires the handlers. dispatcher may be nil, which disables the
// live tracking feed.
func NewServer(store domain.Store, tracker *tracking.Tracker, search *service.SearchService, dispatcher *engine.Dispatcher, opts Options) *Server {
	return &Server{
		store:      store,
		tracker:    tracker,
		search:     search,
		dispatcher: dispatcher,
		metrics:    infra.GlobalMetrics,
		registry:   infra.NewRegistry(infra.GlobalMetrics),
		opts:       opts,
		now:        time.Now,
	}
}

// Routes builds the chi router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// scrapes must not count as user activity
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.trackActivity)

		r.Get("/", s.handleRoot)

		r.Route("/api", func(r chi.Router) {
			r.With(s.searchLimiter()).Post("/search", s.handleSearch)

			r.Post("/purchase", s.handlePurchase)
			r.Get("/purchases", s.handleListPurchases)

			r.Get("/profile", s.handleGetProfile)
			r.Post("/profile", s.handleSaveProfile)

			r.Post("/watchlist", s.handleAddWatchlist)
			r.Get("/watchlist", s.handleListWatchlist)
			r.Delete("/watchlist/{productID}", s.handleRemoveWatchlist)
			r.Get("/price-drops", s.handlePriceDrops)

			r.Get("/coupons/{productID}", s.handleCoupons)
			r.Get("/spending", s.handleSpending)

			r.Route("/tracking", func(r chi.Router) {
				r.Get("/status", s.handleTrackingStatus)
				r.Post("/heartbeat", s.handleHeartbeat)
				r.Get("/purchase-alerts", s.handlePurchaseAlerts)
				r.Delete("/purchase-alerts/{productID}", s.handleDismissAlert)
				r.Get("/ws", s.handleTrackingWS)
			})
		})
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.opts.AllowedOrigins) > 0 {
		return s.opts.AllowedOrigins
	}
	return []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:5173", "https://*.vercel.app"}
}

func (s *Server) searchLimiter() func(http.Handler) http.Handler {
	if s.opts.SearchRatePerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.opts.SearchRatePerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "too many search requests, slow down", nil)
		}),
	)
}

// trackActivity keeps background tracking alive and records request latency
func (s *Server) trackActivity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.tracker.RecordActivity()
		next.ServeHTTP(w, r)
		s.metrics.RecordRequest(time.Since(start).Nanoseconds())
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Cliq AI Shopping Agent API",
		"version": apiVersion,
		"endpoints": map[string]string{
			"search":             "POST /api/search",
			"purchase":           "POST /api/purchase",
			"purchases":          "GET /api/purchases",
			"profile":            "GET|POST /api/profile",
			"watchlist":          "GET|POST|DELETE /api/watchlist",
			"price_drops":        "GET /api/price-drops",
			"coupons":            "GET /api/coupons/{product_id}",
			"spending":           "GET /api/spending",
			"tracking_status":    "GET /api/tracking/status",
			"tracking_heartbeat": "POST /api/tracking/heartbeat",
			"purchase_alerts":    "GET /api/tracking/purchase-alerts",
			"tracking_feed":      "GET /api/tracking/ws",
			"metrics":            "GET /metrics",
		},
	})
}
