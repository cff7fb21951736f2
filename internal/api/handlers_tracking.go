package api

import (
	"net/http"

	"cliq_go/internal/tracking"

	"github.com/go-chi/chi/v5"
)

type trackingStatusResponse struct {
	tracking.Status
	WatchlistCount int `json:"watchlist_count"`
	PurchaseCount  int `json:"purchase_count"`
}

func (s *Server) handleTrackingStatus(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListWatchlist()
	if err != nil {
		s.storageError(w, err)
		return
	}
	purchases, err := s.store.ListPurchases()
	if err != nil {
		s.storageError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, trackingStatusResponse{
		Status:         s.tracker.Status(),
		WatchlistCount: len(items),
		PurchaseCount:  len(purchases),
	})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	s.tracker.RecordActivity()
	st := s.tracker.Status()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "alive",
		"tracking":    st.TrackingRunning,
		"last_active": st.LastActive,
	})
}

func (s *Server) handlePurchaseAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.tracker.PurchaseAlerts()
	respondJSON(w, http.StatusOK, map[string]any{
		"alerts":                  nonNil(alerts),
		"count":                   len(alerts),
		"total_potential_savings": tracking.SumSavings(alerts),
	})
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	status := "dismissed"
	if !s.tracker.ClearPurchaseAlert(id) {
		status = "not_found"
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": status, "product_id": id})
}
