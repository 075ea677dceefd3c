package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/301digital/afftrack/internal/stats"
)

// ---- Dashboard ----

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.Key("stats", r.URL.Query())
		if data, ok := s.cache.Get(r.Context(), cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(data)
			return
		}
	}

	report, err := s.stats.Dashboard(r.Context(), parseQuery(r))
	if err != nil {
		s.statsError(w, err)
		return
	}

	if s.cache != nil {
		if data, err := json.Marshal(report); err == nil {
			s.cache.Set(r.Context(), cacheKey, data)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(data)
			return
		}
	}

	s.jsonResponse(w, report)
}

// ---- Offer detail ----

func (s *Server) handleOfferStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	offerID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || offerID <= 0 {
		s.errorResponse(w, "valid offer id is required", http.StatusBadRequest)
		return
	}

	report, err := s.stats.OfferDetail(r.Context(), offerID, parseQuery(r))
	if err != nil {
		if errors.Is(err, stats.ErrOfferNotFound) {
			s.errorResponse(w, "offer not found", http.StatusNotFound)
			return
		}
		s.statsError(w, err)
		return
	}

	s.jsonResponse(w, report)
}

// ---- Top offers ----

func (s *Server) handleTopOffers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ranked, err := s.stats.TopOffers(r.Context(), parseQuery(r))
	if err != nil {
		s.statsError(w, err)
		return
	}

	q := r.URL.Query()
	if q.Get("positive_only") == "true" {
		ranked = stats.PositiveRevenue(ranked)
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		ranked = stats.TopN(ranked, limit)
	}

	s.jsonResponse(w, ranked)
}

// ---- Cap monitor ----

func (s *Server) handleCaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	campaignID, _ := strconv.ParseInt(q.Get("campaign_id"), 10, 64)

	statuses, err := s.stats.CapMonitor(r.Context(), campaignID, q.Get("currency"))
	if err != nil {
		s.statsError(w, err)
		return
	}

	s.jsonResponse(w, statuses)
}

// statsError maps reporting errors to HTTP responses. Validation errors
// from range resolution are the caller's fault; everything else is ours.
func (s *Server) statsError(w http.ResponseWriter, err error) {
	if errors.Is(err, stats.ErrCustomRange) {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error("stats query failed", zap.Error(err))
	s.errorResponse(w, "internal error", http.StatusInternalServerError)
}

// parseDay parses a form date in the reporting timezone.
func (s *Server) parseDay(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, s.config.Analytics.Location())
}
