package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/301digital/afftrack/internal/models"
)

func usdConverter() *Converter {
	return NewConverter("USD", "USD", 1.17)
}

func testOffers() []*models.Offer {
	return []*models.Offer{
		{ID: 1, Name: "Offer A", PayoutLead: 20, Currency: "USD", Status: models.OfferStatusActive},
		{ID: 2, Name: "Offer B", PayoutLead: 5, PayoutSale: 50, Currency: "USD", Status: models.OfferStatusActive},
	}
}

func TestRevenue(t *testing.T) {
	assert.Equal(t, 40.0, Revenue(2, 0, 20, 0))
	assert.Equal(t, 110.0, Revenue(2, 2, 5, 50))
	assert.Equal(t, 0.0, Revenue(0, 0, 20, 50))
}

func TestAggregatorTwoDays(t *testing.T) {
	agg := NewAggregator(IntervalDay, time.UTC, usdConverter(), testOffers())

	day1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	agg.AddSpend([]*models.SpendRecord{
		{Date: day1, Platform: "google", Amount: 100, Currency: "USD", CampaignID: 1},
		{Date: day2, Platform: "google", Amount: 50, Currency: "USD", CampaignID: 1},
	})
	agg.AddConversions([]*models.ConversionRecord{
		{Date: day1, OfferID: 1, Leads: 2},
	})

	buckets := agg.Buckets()
	require.Len(t, buckets, 2)

	assert.Equal(t, "2024-03-01", buckets[0].Key)
	assert.Equal(t, 100.0, buckets[0].Spend)
	assert.Equal(t, 40.0, buckets[0].Revenue)
	assert.Equal(t, -60.0, buckets[0].Profit)
	assert.Equal(t, -60.0, buckets[0].ROI)
	assert.Equal(t, int64(2), buckets[0].Leads)

	assert.Equal(t, "2024-03-02", buckets[1].Key)
	assert.Equal(t, 50.0, buckets[1].Spend)
	assert.Equal(t, 0.0, buckets[1].Revenue)
	assert.Equal(t, -50.0, buckets[1].Profit)
	assert.Equal(t, -100.0, buckets[1].ROI)
}

func TestAggregatorOrderIndependent(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

	spends := []*models.SpendRecord{
		{Date: day1, Platform: "google", Amount: 100, Currency: "USD"},
		{Date: day2, Platform: "microsoft", Amount: 30, Currency: "USD"},
		{Date: day1, Platform: "microsoft", Amount: 70, Currency: "USD"},
	}
	conversions := []*models.ConversionRecord{
		{Date: day1, OfferID: 1, Leads: 2},
		{Date: day2, OfferID: 2, Leads: 3, Sales: 1},
	}

	forward := NewAggregator(IntervalDay, time.UTC, usdConverter(), testOffers())
	forward.AddSpend(spends)
	forward.AddConversions(conversions)

	reversedSpends := []*models.SpendRecord{spends[2], spends[1], spends[0]}
	reversedConvs := []*models.ConversionRecord{conversions[1], conversions[0]}
	backward := NewAggregator(IntervalDay, time.UTC, usdConverter(), testOffers())
	backward.AddSpend(reversedSpends)
	backward.AddConversions(reversedConvs)

	assert.Equal(t, forward.Buckets(), backward.Buckets())
}

func TestAggregatorPlatformSplit(t *testing.T) {
	agg := NewAggregator(IntervalDay, time.UTC, usdConverter(), nil)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	agg.AddSpend([]*models.SpendRecord{
		{Date: day, Platform: "Google Ads", Amount: 100, Currency: "USD"},
		{Date: day, Platform: "microsoft", Amount: 40, Currency: "USD"},
		{Date: day, Platform: "taboola", Amount: 10, Currency: "USD"},
	})

	buckets := agg.Buckets()
	require.Len(t, buckets, 1)
	assert.Equal(t, 150.0, buckets[0].Spend)
	assert.Equal(t, 100.0, buckets[0].GoogleSpend)
	assert.Equal(t, 40.0, buckets[0].MicrosoftSpend)
}

func TestAggregatorUnknownOfferCountsWithoutRevenue(t *testing.T) {
	agg := NewAggregator(IntervalDay, time.UTC, usdConverter(), testOffers())
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	agg.AddConversions([]*models.ConversionRecord{
		{Date: day, OfferID: 999, Leads: 5, Sales: 2},
	})

	buckets := agg.Buckets()
	require.Len(t, buckets, 1)
	assert.Equal(t, int64(5), buckets[0].Leads)
	assert.Equal(t, int64(2), buckets[0].Sales)
	assert.Equal(t, 0.0, buckets[0].Revenue)
}

func TestAggregatorAdjustmentSign(t *testing.T) {
	agg := NewAggregator(IntervalDay, time.UTC, usdConverter(), nil)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	agg.AddAdjustments([]*models.AdjustmentRecord{
		{Date: day, Amount: 100, Type: models.AdjustmentBonus, Currency: "USD"},
		{Date: day, Amount: 30, Type: models.AdjustmentDeduction, Currency: "USD"},
	})

	buckets := agg.Buckets()
	require.Len(t, buckets, 1)
	assert.Equal(t, 70.0, buckets[0].Revenue)
}

func TestAggregatorEurSpendNormalized(t *testing.T) {
	agg := NewAggregator(IntervalDay, time.UTC, usdConverter(), nil)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	agg.AddSpend([]*models.SpendRecord{
		{Date: day, Platform: "google", Amount: 100, Currency: "EUR", ExchangeRate: 1.17},
	})

	buckets := agg.Buckets()
	require.Len(t, buckets, 1)
	assert.Equal(t, 117.0, buckets[0].Spend)
}

func TestAggregatorTimezoneBucketing(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	agg := NewAggregator(IntervalDay, loc, usdConverter(), nil)
	agg.AddSpend([]*models.SpendRecord{
		// 23:30 UTC on the 4th is 00:30 on the 5th in Amsterdam
		{Date: time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC), Platform: "google", Amount: 10, Currency: "USD"},
		{Date: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), Platform: "google", Amount: 20, Currency: "USD"},
	})

	buckets := agg.Buckets()
	require.Len(t, buckets, 1)
	assert.Equal(t, "2024-03-05", buckets[0].Key)
	assert.Equal(t, 30.0, buckets[0].Spend)
}

func TestAggregatorWeekInterval(t *testing.T) {
	agg := NewAggregator(IntervalWeek, time.UTC, usdConverter(), nil)

	agg.AddSpend([]*models.SpendRecord{
		{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Platform: "google", Amount: 10, Currency: "USD"},
		{Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Platform: "google", Amount: 20, Currency: "USD"},
		{Date: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Platform: "google", Amount: 40, Currency: "USD"},
	})

	buckets := agg.Buckets()
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-03-04", buckets[0].Key)
	assert.Equal(t, 30.0, buckets[0].Spend)
	assert.Equal(t, "2024-03-11", buckets[1].Key)
	assert.Equal(t, 40.0, buckets[1].Spend)
}

func TestAggregatorConservation(t *testing.T) {
	agg := NewAggregator(IntervalDay, time.UTC, usdConverter(), nil)

	var total float64
	var records []*models.SpendRecord
	for day := 1; day <= 10; day++ {
		amount := float64(day) * 7.5
		total += amount
		records = append(records, &models.SpendRecord{
			Date:     time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
			Platform: "google",
			Amount:   amount,
			Currency: "USD",
		})
	}
	agg.AddSpend(records)

	var sum float64
	for _, b := range agg.Buckets() {
		sum += b.Spend
	}
	assert.InDelta(t, total, sum, 0.01)
}
