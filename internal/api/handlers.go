package api

import (
	"errors"
	"net/http"

	"cliq_go/internal/domain"
	"cliq_go/internal/service"
	"cliq_go/internal/tracking"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if errors.Is(err, domain.ErrEmptyQuery) {
		respondError(w, http.StatusBadRequest, "Query cannot be empty", nil)
		return
	}
	if err != nil {
		s.metrics.RecordError()
		respondError(w, http.StatusInternalServerError, "search failed", err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req domain.PurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	now := s.now()
	record := domain.PurchaseRecord{
		OrderID:        uuid.NewString(),
		ProductID:      req.ProductID,
		ProductName:    req.ProductName,
		Price:          req.Price,
		Brand:          req.Brand,
		Category:       req.Category,
		CardNickname:   req.CardNickname,
		Timestamp:      now,
		ShippingStatus: domain.ShippingStatusAt(now, now),
	}
	if err := s.store.AddPurchase(record); err != nil {
		s.metrics.RecordError()
		respondError(w, http.StatusInternalServerError, "failed to record purchase", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Purchase of " + req.ProductName + " confirmed!",
		"record":  record,
	})
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.store.ListPurchases()
	if err != nil {
		s.storageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"purchases": nonNil(purchases)})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.Profile()
	if err != nil {
		s.storageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.UserProfile
	if !decodeJSON(w, r, &profile) {
		return
	}
	profile.Normalize()

	if err := s.store.SaveProfile(profile); err != nil {
		s.storageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "profile": profile})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	var item domain.WatchlistItem
	if !decodeJSON(w, r, &item) {
		return
	}
	if err := s.store.AddWatchlistItem(item); err != nil {
		if errors.Is(err, domain.ErrInvalidPrice) {
			respondError(w, http.StatusUnprocessableEntity, err.Error(), nil)
			return
		}
		s.storageError(w, err)
		return
	}
	s.respondWatchlist(w, true)
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	s.respondWatchlist(w, false)
}

// handleRemoveWatchlist is idempotent: removing an unknown id still succeeds
func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	err := s.store.RemoveWatchlistItem(chi.URLParam(r, "productID"))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.storageError(w, err)
		return
	}
	s.respondWatchlist(w, true)
}

func (s *Server) respondWatchlist(w http.ResponseWriter, withStatus bool) {
	items, err := s.store.ListWatchlist()
	if err != nil {
		s.storageError(w, err)
		return
	}
	body := map[string]any{"watchlist": nonNil(items)}
	if withStatus {
		body["status"] = "success"
	}
	respondJSON(w, http.StatusOK, body)
}

func (s *Server) handlePriceDrops(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListWatchlist()
	if err != nil {
		s.storageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tracking.DetectPriceDrops(items))
}

func (s *Server) handleCoupons(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	respondJSON(w, http.StatusOK, map[string]any{
		"product_id": id,
		"coupons":    service.CouponsFor(id),
	})
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.store.ListPurchases()
	if err != nil {
		s.storageError(w, err)
		return
	}
	items, err := s.store.ListWatchlist()
	if err != nil {
		s.storageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, service.SummarizeSpending(purchases, len(items)))
}

func (s *Server) storageError(w http.ResponseWriter, err error) {
	s.metrics.RecordError()
	respondError(w, http.StatusInternalServerError, "storage error", err)
}

// nonNil keeps empty lists serialised as [] rather than null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
