package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/301digital/afftrack/internal/config"
	"github.com/301digital/afftrack/internal/database"
	"github.com/301digital/afftrack/internal/metrics"
	"github.com/301digital/afftrack/internal/stats"
	"github.com/301digital/afftrack/internal/storage"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB      *database.PostgresDB
	Redis   *database.RedisDB
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Server wraps HTTP handlers around the reporting service and stores.
type Server struct {
	stats       *stats.Service
	spends      storage.SpendRepo
	conversions storage.ConversionRepo
	adjustments storage.AdjustmentRepo
	offers      storage.OfferRepo
	campaigns   storage.CampaignRepo
	cache       *reportCache
	logger      *zap.Logger
	config      *config.Config
	metrics     *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	loc := deps.Config.Analytics.Location()

	var (
		spendRepo      storage.SpendRepo
		conversionRepo storage.ConversionRepo
		adjustmentRepo storage.AdjustmentRepo
		offerRepo      storage.OfferRepo
		campaignRepo   storage.CampaignRepo
	)

	if deps.DB != nil {
		spendRepo = storage.NewPostgresSpendRepo(deps.DB.Pool)
		conversionRepo = storage.NewPostgresConversionRepo(deps.DB.Pool)
		adjustmentRepo = storage.NewPostgresAdjustmentRepo(deps.DB.Pool, loc)
		offerRepo = storage.NewPostgresOfferRepo(deps.DB.Pool)
		campaignRepo = storage.NewPostgresCampaignRepo(deps.DB.Pool)
	} else {
		spendRepo = storage.NewMemorySpendRepo(loc)
		conversionRepo = storage.NewMemoryConversionRepo(loc)
		adjustmentRepo = storage.NewMemoryAdjustmentRepo(loc)
		offerRepo = storage.NewMemoryOfferRepo()
		campaignRepo = storage.NewMemoryCampaignRepo()
	}

	svc := stats.NewService(stats.Repos{
		Spend:       spendRepo,
		Conversions: conversionRepo,
		Adjustments: adjustmentRepo,
		Offers:      offerRepo,
	}, deps.Config.Analytics, deps.Logger, deps.Metrics)

	var cache *reportCache
	if deps.Redis != nil && deps.Config.Analytics.ReportCacheTTL > 0 {
		cache = newReportCache(deps.Redis.Client, deps.Config.Analytics.ReportCacheTTL, deps.Metrics)
	}

	s := &Server{
		stats:       svc,
		spends:      spendRepo,
		conversions: conversionRepo,
		adjustments: adjustmentRepo,
		offers:      offerRepo,
		campaigns:   campaignRepo,
		cache:       cache,
		logger:      deps.Logger,
		config:      deps.Config,
		metrics:     deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Reporting
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/stats/offer", s.handleOfferStats)
	mux.HandleFunc("/api/stats/top-offers", s.handleTopOffers)
	mux.HandleFunc("/api/stats/caps", s.handleCaps)

	// Data entry
	mux.HandleFunc("/api/daily-log", s.handleDailyLog)
	mux.HandleFunc("/api/adjustments", s.handleAdjustments)
	mux.HandleFunc("/api/logs", s.handleLogs)

	// Catalog
	mux.HandleFunc("/api/offers", s.handleOffers)
	mux.HandleFunc("/api/campaigns", s.handleCampaigns)

	return mux
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Helpers ----

// parseQuery builds a reporting query from request parameters. Missing
// or malformed values fall back the same way everywhere: range defaults
// to this_month, interval to day, campaign_id to all campaigns.
func parseQuery(r *http.Request) stats.Query {
	q := r.URL.Query()
	campaignID, _ := strconv.ParseInt(q.Get("campaign_id"), 10, 64)
	return stats.Query{
		Range:      stats.ParseRange(q.Get("range")),
		From:       q.Get("from"),
		To:         q.Get("to"),
		Interval:   stats.ParseInterval(q.Get("interval")),
		CampaignID: campaignID,
		Currency:   q.Get("currency"),
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
