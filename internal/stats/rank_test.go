package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOffers(t *testing.T) {
	ranked := RankOffers([]OfferStats{
		{ID: 1, Name: "Low", Revenue: 10},
		{ID: 2, Name: "High", Revenue: 500},
		{ID: 3, Name: "Mid", Revenue: 100},
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, "High", ranked[0].Name)
	assert.Equal(t, "Mid", ranked[1].Name)
	assert.Equal(t, "Low", ranked[2].Name)
}

func TestRankOffersStableOnTies(t *testing.T) {
	ranked := RankOffers([]OfferStats{
		{ID: 1, Name: "First", Revenue: 100},
		{ID: 2, Name: "Second", Revenue: 100},
		{ID: 3, Name: "Third", Revenue: 100},
	})

	assert.Equal(t, "First", ranked[0].Name)
	assert.Equal(t, "Second", ranked[1].Name)
	assert.Equal(t, "Third", ranked[2].Name)
}

func TestRankOffersKeepsLosers(t *testing.T) {
	ranked := RankOffers([]OfferStats{
		{ID: 1, Revenue: 0},
		{ID: 2, Revenue: -50},
	})
	assert.Len(t, ranked, 2)
}

func TestPositiveRevenue(t *testing.T) {
	filtered := PositiveRevenue([]OfferStats{
		{ID: 1, Revenue: 100},
		{ID: 2, Revenue: 0},
		{ID: 3, Revenue: -50},
	})
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(1), filtered[0].ID)
}

func TestTopN(t *testing.T) {
	offers := []OfferStats{{ID: 1}, {ID: 2}, {ID: 3}}

	assert.Len(t, TopN(offers, 2), 2)
	assert.Len(t, TopN(offers, 3), 3)
	assert.Len(t, TopN(offers, 10), 3)
	assert.Len(t, TopN(offers, -1), 3)
	assert.Len(t, TopN(offers, 0), 0)
}
