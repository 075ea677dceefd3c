package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/301digital/afftrack/internal/models"
)

// ---- Daily log ----

// dailyLogRequest is one day of manually entered performance data:
// per-platform spend plus per-offer conversion counts. Numeric fields
// coerce malformed input to zero instead of rejecting the submission.
type dailyLogRequest struct {
	Date           string               `json:"date"`
	CampaignID     int64                `json:"campaignId"`
	GoogleSpend    models.FlexFloat     `json:"googleSpend"`
	MicrosoftSpend models.FlexFloat     `json:"microsoftSpend"`
	Currency       string               `json:"currency"`
	ExchangeRate   models.FlexFloat     `json:"exchangeRate"`
	Conversions    []dailyLogConversion `json:"conversions"`
}

type dailyLogConversion struct {
	OfferID models.FlexInt `json:"offerId"`
	Leads   models.FlexInt `json:"leads"`
	Sales   models.FlexInt `json:"sales"`
}

func (s *Server) handleDailyLog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getDailyLog(w, r)
	case http.MethodPost:
		s.postDailyLog(w, r)
	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) postDailyLog(w http.ResponseWriter, r *http.Request) {
	var req dailyLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	day, err := s.parseDay(req.Date)
	if err != nil {
		s.errorResponse(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if req.CampaignID == 0 {
		s.errorResponse(w, "campaignId is required", http.StatusBadRequest)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = s.config.Analytics.BaseCurrency
	}

	platforms := map[string]float64{
		"google":    float64(req.GoogleSpend),
		"microsoft": float64(req.MicrosoftSpend),
	}
	for platform, amount := range platforms {
		rec := &models.SpendRecord{
			Date:         day,
			Platform:     platform,
			Amount:       amount,
			Currency:     currency,
			ExchangeRate: float64(req.ExchangeRate),
			CampaignID:   req.CampaignID,
		}
		if err := s.spends.Upsert(r.Context(), rec); err != nil {
			s.logger.Error("failed to save spend", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.metrics.RecordUpsert("spend")
	}

	for _, c := range req.Conversions {
		if c.OfferID <= 0 {
			s.errorResponse(w, "conversion offerId is required", http.StatusBadRequest)
			return
		}
		rec := &models.ConversionRecord{
			Date:    day,
			OfferID: int64(c.OfferID),
			Leads:   int64(c.Leads),
			Sales:   int64(c.Sales),
		}
		if err := s.conversions.Upsert(r.Context(), rec); err != nil {
			s.logger.Error("failed to save conversions", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.metrics.RecordUpsert("conversion")
	}

	s.jsonResponse(w, map[string]string{"status": "saved", "date": req.Date})
}

func (s *Server) getDailyLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	day, err := s.parseDay(q.Get("date"))
	if err != nil {
		s.errorResponse(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	campaignID, _ := strconv.ParseInt(q.Get("campaign_id"), 10, 64)

	end := day.AddDate(0, 0, 1).Add(-time.Millisecond)

	spends, err := s.spends.ListByWindow(r.Context(), campaignID, day, end)
	if err != nil {
		s.logger.Error("failed to load spend", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	conversions, err := s.conversions.ListByWindow(r.Context(), day, end, nil)
	if err != nil {
		s.logger.Error("failed to load conversions", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]interface{}{
		"date":        q.Get("date"),
		"spends":      spends,
		"conversions": conversions,
	})
}

// ---- Adjustments ----

type adjustmentRequest struct {
	Date         string           `json:"date"`
	Amount       models.FlexFloat `json:"amount"`
	Type         string           `json:"type"`
	Description  string           `json:"description"`
	OfferID      *int64           `json:"offerId"`
	Currency     string           `json:"currency"`
	ExchangeRate models.FlexFloat `json:"exchangeRate"`
	CampaignID   int64            `json:"campaignId"`
}

func (s *Server) handleAdjustments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAdjustments(w, r)
	case http.MethodPost:
		s.postAdjustment(w, r)
	case http.MethodDelete:
		s.deleteAdjustment(w, r)
	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listAdjustments(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r)
	window, _, err := s.stats.Resolve(q)
	if err != nil {
		s.statsError(w, err)
		return
	}

	recs, err := s.adjustments.ListByWindow(r.Context(), q.CampaignID, window.Start, window.End)
	if err != nil {
		s.logger.Error("failed to list adjustments", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*models.AdjustmentRecord{}
	}
	s.jsonResponse(w, recs)
}

func (s *Server) postAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	day, err := s.parseDay(req.Date)
	if err != nil {
		s.errorResponse(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	rec := &models.AdjustmentRecord{
		Date:         day,
		Amount:       float64(req.Amount),
		Type:         req.Type,
		Description:  req.Description,
		OfferID:      req.OfferID,
		Currency:     req.Currency,
		ExchangeRate: float64(req.ExchangeRate),
		CampaignID:   req.CampaignID,
	}
	if err := rec.Validate(); err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Offer-tied adjustments are monthly revshare entries: one per
	// (offer, campaign, month), resubmitting replaces the amount.
	if rec.OfferID != nil {
		err = s.adjustments.UpsertMonthly(r.Context(), rec)
	} else {
		err = s.adjustments.Insert(r.Context(), rec)
	}
	if err != nil {
		s.logger.Error("failed to save adjustment", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.metrics.RecordUpsert("adjustment")

	s.jsonResponse(w, rec)
}

func (s *Server) deleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.errorResponse(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := s.adjustments.Delete(r.Context(), id); err != nil {
		s.logger.Error("failed to delete adjustment", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]string{"status": "deleted", "id": id})
}

// ---- Offers ----

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		campaignID, _ := strconv.ParseInt(r.URL.Query().Get("campaign_id"), 10, 64)
		list, err := s.offers.ListByCampaign(r.Context(), campaignID)
		if err != nil {
			s.logger.Error("failed to list offers", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*models.Offer{}
		}
		s.jsonResponse(w, list)

	case http.MethodPost:
		var o models.Offer
		if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := o.Validate(); err != nil {
			s.errorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.offers.Create(r.Context(), &o); err != nil {
			s.logger.Error("failed to create offer", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, o)

	case http.MethodPut:
		var o models.Offer
		if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if o.ID == 0 {
			s.errorResponse(w, "offer id is required", http.StatusBadRequest)
			return
		}
		if err := o.Validate(); err != nil {
			s.errorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		existing, err := s.offers.GetByID(r.Context(), o.ID)
		if err != nil {
			s.logger.Error("failed to load offer", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		if existing == nil {
			s.errorResponse(w, "offer not found", http.StatusNotFound)
			return
		}
		if err := s.offers.Update(r.Context(), &o); err != nil {
			s.logger.Error("failed to update offer", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, o)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Campaigns ----

func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.campaigns.ListAll(r.Context())
		if err != nil {
			s.logger.Error("failed to list campaigns", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*models.Campaign{}
		}
		s.jsonResponse(w, list)

	case http.MethodPost:
		var c models.Campaign
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if c.Name == "" {
			s.errorResponse(w, "campaign name is required", http.StatusBadRequest)
			return
		}
		if err := s.campaigns.Create(r.Context(), &c); err != nil {
			s.logger.Error("failed to create campaign", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, c)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
