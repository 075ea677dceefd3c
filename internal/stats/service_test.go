package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/301digital/afftrack/internal/config"
	"github.com/301digital/afftrack/internal/models"
	"github.com/301digital/afftrack/internal/storage"
)

func testService(t *testing.T, now time.Time) (*Service, Repos) {
	t.Helper()
	repos := Repos{
		Spend:       storage.NewMemorySpendRepo(time.UTC),
		Conversions: storage.NewMemoryConversionRepo(time.UTC),
		Adjustments: storage.NewMemoryAdjustmentRepo(time.UTC),
		Offers:      storage.NewMemoryOfferRepo(),
	}
	cfg := config.AnalyticsConfig{
		Timezone:     "UTC",
		BaseCurrency: "USD",
		EurUsdRate:   1.17,
		EpochStart:   "2020-01-01",
	}
	svc := NewService(repos, cfg, zap.NewNop(), nil)
	svc.now = func() time.Time { return now }
	return svc, repos
}

func seedMarchData(t *testing.T, repos Repos) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repos.Offers.Create(ctx, &models.Offer{
		Name: "Offer A", PayoutLead: 20, Status: models.OfferStatusActive, CampaignID: 1, Currency: "USD",
	}))
	require.NoError(t, repos.Offers.Create(ctx, &models.Offer{
		Name: "Offer B", PayoutLead: 5, PayoutSale: 50, Status: models.OfferStatusActive, CampaignID: 1, Currency: "USD",
	}))

	day1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Spend.Upsert(ctx, &models.SpendRecord{
		Date: day1, Platform: "google", Amount: 100, Currency: "USD", CampaignID: 1,
	}))
	require.NoError(t, repos.Spend.Upsert(ctx, &models.SpendRecord{
		Date: day2, Platform: "google", Amount: 50, Currency: "USD", CampaignID: 1,
	}))
	require.NoError(t, repos.Conversions.Upsert(ctx, &models.ConversionRecord{
		Date: day1, OfferID: 1, Leads: 2,
	}))
	require.NoError(t, repos.Conversions.Upsert(ctx, &models.ConversionRecord{
		Date: day2, OfferID: 2, Leads: 4, Sales: 1,
	}))
}

func TestDashboard(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, repos := testService(t, now)
	seedMarchData(t, repos)

	report, err := svc.Dashboard(context.Background(), Query{Range: RangeThisMonth, Interval: IntervalDay})
	require.NoError(t, err)
	require.Len(t, report.ChartData, 2)

	assert.Equal(t, "2024-03-01", report.ChartData[0].Key)
	assert.Equal(t, 100.0, report.ChartData[0].Spend)
	assert.Equal(t, 40.0, report.ChartData[0].Revenue)

	assert.Equal(t, "2024-03-02", report.ChartData[1].Key)
	assert.Equal(t, 50.0, report.ChartData[1].Spend)
	assert.Equal(t, 70.0, report.ChartData[1].Revenue)

	// February had no data: previous totals exist but are all zero
	require.NotNil(t, report.PreviousTotals)
	assert.Equal(t, 0.0, report.PreviousTotals.Spend)
	assert.Equal(t, 0.0, report.PreviousTotals.Revenue)
}

func TestDashboardAllRangeSkipsPrevious(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, repos := testService(t, now)
	seedMarchData(t, repos)

	report, err := svc.Dashboard(context.Background(), Query{Range: RangeAll, Interval: IntervalDay})
	require.NoError(t, err)
	assert.Nil(t, report.PreviousTotals)
	assert.Len(t, report.ChartData, 2)
}

func TestDashboardPreviousTotals(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, repos := testService(t, now)
	seedMarchData(t, repos)

	// put some spend into February so the previous window has substance
	require.NoError(t, repos.Spend.Upsert(context.Background(), &models.SpendRecord{
		Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), Platform: "google",
		Amount: 200, Currency: "USD", CampaignID: 1,
	}))

	report, err := svc.Dashboard(context.Background(), Query{Range: RangeThisMonth, Interval: IntervalDay})
	require.NoError(t, err)
	require.NotNil(t, report.PreviousTotals)
	assert.Equal(t, 200.0, report.PreviousTotals.Spend)
	assert.Equal(t, -200.0, report.PreviousTotals.Profit)
}

func TestDashboardCustomRangeError(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, _ := testService(t, now)

	_, err := svc.Dashboard(context.Background(), Query{Range: RangeCustom})
	assert.ErrorIs(t, err, ErrCustomRange)
}

func TestOfferDetail(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, repos := testService(t, now)
	seedMarchData(t, repos)

	report, err := svc.OfferDetail(context.Background(), 2, Query{Range: RangeThisMonth})
	require.NoError(t, err)

	assert.Equal(t, "Offer B", report.Offer.Name)
	require.Len(t, report.ChartData, 1)
	assert.Equal(t, "2024-03-02", report.ChartData[0].Date)
	assert.Equal(t, int64(4), report.ChartData[0].Leads)
	assert.Equal(t, int64(1), report.ChartData[0].Sales)
	assert.Equal(t, 70.0, report.ChartData[0].Revenue)

	assert.Equal(t, int64(4), report.Totals.Leads)
	assert.Equal(t, 70.0, report.Totals.Revenue)
}

func TestOfferDetailNotFound(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, _ := testService(t, now)

	_, err := svc.OfferDetail(context.Background(), 42, Query{Range: RangeThisMonth})
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestTopOffers(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, repos := testService(t, now)
	seedMarchData(t, repos)

	ranked, err := svc.TopOffers(context.Background(), Query{Range: RangeThisMonth})
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	// Offer B earned 70, Offer A earned 40
	assert.Equal(t, "Offer B", ranked[0].Name)
	assert.Equal(t, 70.0, ranked[0].Revenue)
	assert.Equal(t, "Offer A", ranked[1].Name)
	assert.Equal(t, 40.0, ranked[1].Revenue)
}

func TestCapMonitorUsesCurrentMonth(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, repos := testService(t, now)
	ctx := context.Background()

	leadCap := int64(10)
	require.NoError(t, repos.Offers.Create(ctx, &models.Offer{
		Name: "Capped", PayoutLead: 20, Status: models.OfferStatusActive,
		CampaignID: 1, Currency: "USD", CapLeads: &leadCap,
	}))

	// nine leads this month, plus a February batch that must not count
	require.NoError(t, repos.Conversions.Upsert(ctx, &models.ConversionRecord{
		Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), OfferID: 1, Leads: 9,
	}))
	require.NoError(t, repos.Conversions.Upsert(ctx, &models.ConversionRecord{
		Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), OfferID: 1, Leads: 100,
	}))

	statuses, err := svc.CapMonitor(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	assert.Equal(t, int64(9), statuses[0].Leads)
	assert.Equal(t, 90.0, statuses[0].Percent)
	assert.Equal(t, SeverityWarning, statuses[0].Severity)
}

func TestDashboardCampaignFilter(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, repos := testService(t, now)
	seedMarchData(t, repos)
	ctx := context.Background()

	// a second campaign's spend must not leak into campaign 1's report
	require.NoError(t, repos.Spend.Upsert(ctx, &models.SpendRecord{
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Platform: "google",
		Amount: 999, Currency: "USD", CampaignID: 2,
	}))

	report, err := svc.Dashboard(ctx, Query{Range: RangeThisMonth, Interval: IntervalDay, CampaignID: 1})
	require.NoError(t, err)
	require.Len(t, report.ChartData, 2)
	assert.Equal(t, 100.0, report.ChartData[0].Spend)
}

func TestDashboardDisplayCurrency(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, repos := testService(t, now)
	ctx := context.Background()

	require.NoError(t, repos.Spend.Upsert(ctx, &models.SpendRecord{
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Platform: "google",
		Amount: 117, Currency: "USD", CampaignID: 1,
	}))

	report, err := svc.Dashboard(ctx, Query{Range: RangeThisMonth, Interval: IntervalDay, Currency: "EUR"})
	require.NoError(t, err)
	require.Len(t, report.ChartData, 1)
	assert.InDelta(t, 100.0, report.ChartData[0].Spend, 0.01)
}
