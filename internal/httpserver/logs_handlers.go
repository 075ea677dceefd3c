package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// activityFeedSize caps how many entries the feed returns.
const activityFeedSize = 50

// activityEntry is one row of the recent-activity feed: a spend or
// conversion record reduced to a human-readable line, ordered by when it
// was last written.
type activityEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type deleteLogRequest struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getLogs(w, r)
	case http.MethodDelete:
		s.deleteLog(w, r)
	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// getLogs merges the most recently modified spend and conversion records
// into one feed, newest first.
func (s *Server) getLogs(w http.ResponseWriter, r *http.Request) {
	spends, err := s.spends.ListRecent(r.Context(), activityFeedSize)
	if err != nil {
		s.logger.Error("failed to load recent spend", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	conversions, err := s.conversions.ListRecent(r.Context(), activityFeedSize)
	if err != nil {
		s.logger.Error("failed to load recent conversions", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	offers, err := s.offers.ListAll(r.Context())
	if err != nil {
		s.logger.Error("failed to load offers", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	offerNames := make(map[int64]string, len(offers))
	for _, o := range offers {
		offerNames[o.ID] = o.Name
	}

	entries := make([]activityEntry, 0, len(spends)+len(conversions))
	for _, sp := range spends {
		entries = append(entries, activityEntry{
			ID:          sp.ID,
			Type:        "spend",
			Date:        sp.Date,
			Description: fmt.Sprintf("%s spend: %.2f %s", sp.Platform, sp.Amount, sp.Currency),
			UpdatedAt:   sp.UpdatedAt,
		})
	}
	for _, c := range conversions {
		name, ok := offerNames[c.OfferID]
		if !ok {
			name = fmt.Sprintf("offer %d", c.OfferID)
		}
		entries = append(entries, activityEntry{
			ID:          c.ID,
			Type:        "conversion",
			Date:        c.Date,
			Description: fmt.Sprintf("%s: %d leads, %d sales", name, c.Leads, c.Sales),
			UpdatedAt:   c.UpdatedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].UpdatedAt.After(entries[j].UpdatedAt) })
	if len(entries) > activityFeedSize {
		entries = entries[:activityFeedSize]
	}

	s.jsonResponse(w, entries)
}

func (s *Server) deleteLog(w http.ResponseWriter, r *http.Request) {
	var req deleteLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		s.errorResponse(w, "id is required", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Type {
	case "spend":
		err = s.spends.Delete(r.Context(), req.ID)
	case "conversion":
		err = s.conversions.Delete(r.Context(), req.ID)
	default:
		s.errorResponse(w, "type must be spend or conversion", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("failed to delete record", zap.Error(err), zap.String("type", req.Type))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]string{"status": "deleted", "id": req.ID})
}
