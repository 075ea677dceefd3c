package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/301digital/afftrack/internal/config"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Analytics: config.AnalyticsConfig{
			Timezone:     "UTC",
			BaseCurrency: "USD",
			EurUsdRate:   1.17,
			EpochStart:   "2020-01-01",
		},
	}
	return NewServer(&Dependencies{
		Config: cfg,
		Logger: zap.NewNop(),
	})
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := doJSON(t, testHandler(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestStatsCustomRangeRequiresBounds(t *testing.T) {
	rr := doJSON(t, testHandler(t), http.MethodGet, "/api/stats?range=custom", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "custom range")
}

func TestStatsCustomRangeBadBounds(t *testing.T) {
	h := testHandler(t)

	// unparseable from
	rr := doJSON(t, h, http.MethodGet, "/api/stats?range=custom&from=not-a-date&to=2024-03-10", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// unparseable to
	rr = doJSON(t, h, http.MethodGet, "/api/stats?range=custom&from=2024-03-01&to=not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// end before start
	rr = doJSON(t, h, http.MethodGet, "/api/stats?range=custom&from=2024-03-10&to=2024-03-01", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatsMethodNotAllowed(t *testing.T) {
	rr := doJSON(t, testHandler(t), http.MethodDelete, "/api/stats", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStatsEmptyDataset(t *testing.T) {
	rr := doJSON(t, testHandler(t), http.MethodGet, "/api/stats?range=this_month", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var report struct {
		ChartData      []json.RawMessage `json:"chartData"`
		PreviousTotals *json.RawMessage  `json:"previousTotals"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Empty(t, report.ChartData)
	assert.NotNil(t, report.PreviousTotals)
}

func TestOfferStatsUnknownOffer(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/api/stats/offer?id=42", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/stats/offer", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCampaignLifecycle(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/campaigns", `{"name":"Search NL"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)

	rr = doJSON(t, h, http.MethodGet, "/api/campaigns", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rr = doJSON(t, h, http.MethodPost, "/api/campaigns", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOfferLifecycle(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/offers",
		`{"name":"Offer A","payout_lead":20,"campaign_id":1,"currency":"USD"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	assert.Equal(t, "ACTIVE", created.Status)

	rr = doJSON(t, h, http.MethodPut, "/api/offers",
		`{"id":1,"name":"Offer A v2","payout_lead":25,"campaign_id":1}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/api/offers",
		`{"id":99,"name":"Ghost","payout_lead":25}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/offers", `{"payout_lead":20}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDailyLogRoundTrip(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/offers",
		`{"name":"Offer A","payout_lead":20,"campaign_id":1,"currency":"USD"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	// sloppy numerics: quoted spend, string leads
	rr = doJSON(t, h, http.MethodPost, "/api/daily-log",
		`{"date":"2024-03-01","campaignId":1,"googleSpend":"100","microsoftSpend":50,
		  "conversions":[{"offerId":1,"leads":"2","sales":0}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/daily-log?date=2024-03-01&campaign_id=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var day struct {
		Spends      []json.RawMessage `json:"spends"`
		Conversions []json.RawMessage `json:"conversions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &day))
	assert.Len(t, day.Spends, 2)
	assert.Len(t, day.Conversions, 1)

	rr = doJSON(t, h, http.MethodGet,
		"/api/stats?range=custom&from=2024-03-01&to=2024-03-01", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var report struct {
		ChartData []struct {
			Date    string  `json:"date"`
			Spend   float64 `json:"spend"`
			Revenue float64 `json:"revenue"`
			Profit  float64 `json:"profit"`
		} `json:"chartData"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	require.Len(t, report.ChartData, 1)
	assert.Equal(t, "2024-03-01", report.ChartData[0].Date)
	assert.Equal(t, 150.0, report.ChartData[0].Spend)
	assert.Equal(t, 40.0, report.ChartData[0].Revenue)
	assert.Equal(t, -110.0, report.ChartData[0].Profit)
}

func TestDailyLogValidation(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/daily-log", `{"campaignId":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/daily-log", `{"date":"2024-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/daily-log", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdjustmentLifecycle(t *testing.T) {
	h := testHandler(t)

	// offer-tied entries upsert per month: the second replaces the first
	rr := doJSON(t, h, http.MethodPost, "/api/adjustments",
		`{"date":"2024-03-05","amount":100,"type":"BONUS","offerId":1,"campaignId":1,"currency":"USD"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/adjustments",
		`{"date":"2024-03-20","amount":250,"type":"BONUS","offerId":1,"campaignId":1,"currency":"USD"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var saved struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.ID)

	rr = doJSON(t, h, http.MethodGet,
		"/api/adjustments?range=custom&from=2024-03-01&to=2024-03-31&campaign_id=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []struct {
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 250.0, list[0].Amount)

	rr = doJSON(t, h, http.MethodDelete, "/api/adjustments?id="+saved.ID, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet,
		"/api/adjustments?range=custom&from=2024-03-01&to=2024-03-31&campaign_id=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestActivityFeed(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/offers",
		`{"name":"Offer A","payout_lead":20,"campaign_id":1,"currency":"USD"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/daily-log",
		`{"date":"2024-03-01","campaignId":1,"googleSpend":100,"microsoftSpend":50,
		  "conversions":[{"offerId":1,"leads":2,"sales":1}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/logs", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var feed []struct {
		ID          string    `json:"id"`
		Type        string    `json:"type"`
		Description string    `json:"description"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
	require.Len(t, feed, 3)

	// newest write first, spends and conversions interleaved by time
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i-1].UpdatedAt.Before(feed[i].UpdatedAt))
	}

	var spendID string
	types := map[string]int{}
	for _, e := range feed {
		types[e.Type]++
		if e.Type == "spend" && spendID == "" {
			spendID = e.ID
		}
		if e.Type == "conversion" {
			assert.Contains(t, e.Description, "Offer A")
			assert.Contains(t, e.Description, "2 leads")
		}
	}
	assert.Equal(t, 2, types["spend"])
	assert.Equal(t, 1, types["conversion"])

	rr = doJSON(t, h, http.MethodDelete, "/api/logs",
		`{"id":"`+spendID+`","type":"spend"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/logs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	feed = feed[:0]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
	assert.Len(t, feed, 2)
}

func TestActivityFeedValidation(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodDelete, "/api/logs", `{"type":"spend"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/logs", `{"id":"abc","type":"offer"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/logs", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAdjustmentValidation(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/adjustments",
		`{"date":"2024-03-05","amount":100,"type":"REFUND","campaignId":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/adjustments", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCapsEndpoint(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/api/offers",
		`{"name":"Capped","payout_lead":20,"campaign_id":1,"cap_leads":10,"currency":"USD"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/stats/caps", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var statuses []struct {
		Name     string  `json:"name"`
		Percent  float64 `json:"percent"`
		Severity string  `json:"severity"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "Capped", statuses[0].Name)
	assert.Equal(t, "normal", statuses[0].Severity)
}

func TestTopOffersEndpoint(t *testing.T) {
	h := testHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/api/stats/top-offers?range=this_month", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Empty(t, list)
}
