package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/301digital/afftrack/internal/config"
	"github.com/301digital/afftrack/internal/metrics"
	"github.com/301digital/afftrack/internal/models"
	"github.com/301digital/afftrack/internal/storage"
)

// ErrOfferNotFound is returned by OfferDetail for an unknown offer ID.
var ErrOfferNotFound = errors.New("offer not found")

// Repos bundles the storage collaborators the service reads from.
type Repos struct {
	Spend       storage.SpendRepo
	Conversions storage.ConversionRepo
	Adjustments storage.AdjustmentRepo
	Offers      storage.OfferRepo
}

// Service is the reporting engine. It is stateless: every request
// resolves its window, reads a snapshot of records and computes from
// scratch. Nothing is shared across requests, so requests may run fully
// in parallel.
type Service struct {
	repos    Repos
	resolver *DateRangeResolver
	loc      *time.Location
	base     string
	eurUsd   float64
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService creates the reporting service.
func NewService(repos Repos, cfg config.AnalyticsConfig, logger *zap.Logger, m *metrics.Metrics) *Service {
	loc := cfg.Location()
	return &Service{
		repos:    repos,
		resolver: NewDateRangeResolver(loc, cfg.Epoch()),
		loc:      loc,
		base:     cfg.BaseCurrency,
		eurUsd:   cfg.EurUsdRate,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Resolve exposes window resolution to collaborating handlers that
// list raw records for a range selection.
func (s *Service) Resolve(q Query) (Window, *Window, error) {
	return s.resolver.Resolve(s.now(), q.Range, q.From, q.To)
}

// Query carries the parsed parameters of a reporting request.
type Query struct {
	Range      Range
	From       string
	To         string
	Interval   Interval
	CampaignID int64
	Currency   string
}

// DashboardReport is the time-series payload for the main dashboard.
// PreviousTotals is nil when the range has no previous period (all).
type DashboardReport struct {
	ChartData      []Bucket      `json:"chartData"`
	PreviousTotals *PeriodTotals `json:"previousTotals"`
}

// Dashboard computes the bucketed chart series for the query's window
// plus the totals of the symmetric previous window.
func (s *Service) Dashboard(ctx context.Context, q Query) (*DashboardReport, error) {
	cur, prev, err := s.resolver.Resolve(s.now(), q.Range, q.From, q.To)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordStatsQuery(string(q.Range), string(q.Interval))

	offers, err := s.repos.Offers.ListByCampaign(ctx, q.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	conv := NewConverter(s.base, q.Currency, s.eurUsd)

	spends, conversions, adjustments, err := s.fetchWindow(ctx, q.CampaignID, offers, cur)
	if err != nil {
		return nil, err
	}

	agg := NewAggregator(q.Interval, s.loc, conv, offers)
	agg.AddSpend(spends)
	agg.AddConversions(conversions)
	agg.AddAdjustments(adjustments)

	s.metrics.RecordAggregated("spend", len(spends))
	s.metrics.RecordAggregated("conversion", len(conversions))
	s.metrics.RecordAggregated("adjustment", len(adjustments))

	report := &DashboardReport{ChartData: agg.Buckets()}

	if prev != nil {
		prevSpends, prevConvs, prevAdjs, err := s.fetchWindow(ctx, q.CampaignID, offers, *prev)
		if err != nil {
			return nil, err
		}
		totals := TotalsFor(conv, offers, prevSpends, prevConvs, prevAdjs)
		report.PreviousTotals = &totals
	}

	return report, nil
}

func (s *Service) fetchWindow(ctx context.Context, campaignID int64, offers []*models.Offer, w Window) (
	[]*models.SpendRecord, []*models.ConversionRecord, []*models.AdjustmentRecord, error) {

	spends, err := s.repos.Spend.ListByWindow(ctx, campaignID, w.Start, w.End)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load spend: %w", err)
	}

	var offerIDs []int64
	if campaignID != 0 {
		offerIDs = make([]int64, 0, len(offers))
		for _, o := range offers {
			offerIDs = append(offerIDs, o.ID)
		}
	}
	conversions, err := s.repos.Conversions.ListByWindow(ctx, w.Start, w.End, offerIDs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load conversions: %w", err)
	}

	adjustments, err := s.repos.Adjustments.ListByWindow(ctx, campaignID, w.Start, w.End)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load adjustments: %w", err)
	}

	return spends, conversions, adjustments, nil
}

// OfferPoint is one day of a single offer's performance.
type OfferPoint struct {
	Date    string  `json:"date"`
	Leads   int64   `json:"leads"`
	Sales   int64   `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// OfferTotals reduces an offer's points over the window.
type OfferTotals struct {
	Leads   int64   `json:"leads"`
	Sales   int64   `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// OfferReport is the single-offer detail payload.
type OfferReport struct {
	Offer     *models.Offer `json:"offer"`
	ChartData []OfferPoint  `json:"chartData"`
	Totals    OfferTotals   `json:"totals"`
}

// OfferDetail computes the daily series and totals for one offer.
func (s *Service) OfferDetail(ctx context.Context, offerID int64, q Query) (*OfferReport, error) {
	offer, err := s.repos.Offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}

	cur, _, err := s.resolver.Resolve(s.now(), q.Range, q.From, q.To)
	if err != nil {
		return nil, err
	}

	conversions, err := s.repos.Conversions.ListByOffer(ctx, offerID, cur.Start, cur.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversions: %w", err)
	}

	conv := NewConverter(s.base, q.Currency, s.eurUsd)
	payoutLead := conv.ToDisplay(conv.FromOfferCurrency(offer.PayoutLead, offer.Currency))
	payoutSale := conv.ToDisplay(conv.FromOfferCurrency(offer.PayoutSale, offer.Currency))

	report := &OfferReport{Offer: offer, ChartData: make([]OfferPoint, 0, len(conversions))}
	for _, c := range conversions {
		revenue := Revenue(c.Leads, c.Sales, payoutLead, payoutSale)
		report.ChartData = append(report.ChartData, OfferPoint{
			Date:    BucketKey(c.Date, IntervalDay, s.loc),
			Leads:   c.Leads,
			Sales:   c.Sales,
			Revenue: roundMoney(revenue),
		})
		report.Totals.Leads += c.Leads
		report.Totals.Sales += c.Sales
		report.Totals.Revenue += revenue
	}
	report.Totals.Revenue = roundMoney(report.Totals.Revenue)

	return report, nil
}

// TopOffers aggregates per-offer performance over the query's window and
// returns the offers ranked by revenue descending. Offers without any
// conversion record in the window are omitted; the caller decides about
// further filtering and truncation.
func (s *Service) TopOffers(ctx context.Context, q Query) ([]OfferStats, error) {
	cur, _, err := s.resolver.Resolve(s.now(), q.Range, q.From, q.To)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordStatsQuery(string(q.Range), "offer")

	offers, err := s.repos.Offers.ListByCampaign(ctx, q.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	conv := NewConverter(s.base, q.Currency, s.eurUsd)

	_, ordered, err := s.offerStatsFor(ctx, offers, cur, conv, q.CampaignID == 0)
	if err != nil {
		return nil, err
	}

	return RankOffers(ordered), nil
}

// CapMonitor evaluates every capped offer of the campaign against the
// current calendar month, regardless of any dashboard range selection.
func (s *Service) CapMonitor(ctx context.Context, campaignID int64, displayCurrency string) ([]CapStatus, error) {
	cur, _, err := s.resolver.Resolve(s.now(), RangeThisMonth, "", "")
	if err != nil {
		return nil, err
	}

	offers, err := s.repos.Offers.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	conv := NewConverter(s.base, displayCurrency, s.eurUsd)

	byOffer, _, err := s.offerStatsFor(ctx, offers, cur, conv, campaignID == 0)
	if err != nil {
		return nil, err
	}

	return EvaluateCaps(offers, byOffer), nil
}

// offerStatsFor folds conversion records into per-offer stats for the
// window. The ordered slice contains only offers that had at least one
// record, in repository order, so equal-revenue ranking stays stable.
func (s *Service) offerStatsFor(ctx context.Context, offers []*models.Offer, w Window, conv *Converter, allOffers bool) (
	map[int64]OfferStats, []OfferStats, error) {

	var offerIDs []int64
	if !allOffers {
		offerIDs = make([]int64, 0, len(offers))
		for _, o := range offers {
			offerIDs = append(offerIDs, o.ID)
		}
	}
	conversions, err := s.repos.Conversions.ListByWindow(ctx, w.Start, w.End, offerIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load conversions: %w", err)
	}

	payouts := make(map[int64]payout, len(offers))
	meta := make(map[int64]*models.Offer, len(offers))
	for _, o := range offers {
		meta[o.ID] = o
		payouts[o.ID] = payout{
			lead: conv.ToDisplay(conv.FromOfferCurrency(o.PayoutLead, o.Currency)),
			sale: conv.ToDisplay(conv.FromOfferCurrency(o.PayoutSale, o.Currency)),
		}
	}

	byOffer := make(map[int64]OfferStats)
	for _, c := range conversions {
		st := byOffer[c.OfferID]
		p := payouts[c.OfferID]
		st.Leads += c.Leads
		st.Sales += c.Sales
		st.Revenue += Revenue(c.Leads, c.Sales, p.lead, p.sale)
		byOffer[c.OfferID] = st
	}

	ordered := make([]OfferStats, 0, len(byOffer))
	for _, o := range offers {
		st, ok := byOffer[o.ID]
		if !ok {
			continue
		}
		st.ID = o.ID
		st.Name = o.Name
		st.Network = o.Network
		st.CapLeads = o.CapLeads
		st.CapRevenue = o.CapRevenue
		st.Revenue = roundMoney(st.Revenue)
		byOffer[o.ID] = st
		ordered = append(ordered, st)
	}

	return byOffer, ordered, nil
}
