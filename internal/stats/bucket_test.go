package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	assert.Equal(t, IntervalWeek, ParseInterval("week"))
	assert.Equal(t, IntervalMonth, ParseInterval("month"))
	assert.Equal(t, IntervalDay, ParseInterval("day"))
	assert.Equal(t, IntervalDay, ParseInterval(""))
	assert.Equal(t, IntervalDay, ParseInterval("hour"))
}

func TestBucketKeyDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	// 23:30 UTC is already past midnight in Amsterdam (UTC+1 in winter)
	utcEvening := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-05", BucketKey(utcEvening, IntervalDay, loc))
	assert.Equal(t, "2024-03-04", BucketKey(utcEvening, IntervalDay, time.UTC))

	// both sides of local midnight land in their own local days
	beforeMidnight := time.Date(2024, 3, 4, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-04", BucketKey(beforeMidnight, IntervalDay, loc))
}

func TestBucketKeyWeek(t *testing.T) {
	loc := time.UTC

	// Sunday maps to the Monday that started its week
	sunday := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	assert.Equal(t, "2024-03-04", BucketKey(sunday, IntervalWeek, loc))

	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	assert.Equal(t, "2024-03-04", BucketKey(monday, IntervalWeek, loc))

	// a week spanning a month boundary keys on its Monday
	friday := time.Date(2024, 3, 1, 10, 0, 0, 0, loc)
	assert.Equal(t, "2024-02-26", BucketKey(friday, IntervalWeek, loc))
}

func TestBucketKeyMonth(t *testing.T) {
	loc := time.UTC
	assert.Equal(t, "2024-03-01", BucketKey(time.Date(2024, 3, 31, 23, 0, 0, 0, loc), IntervalMonth, loc))
	assert.Equal(t, "2024-02-01", BucketKey(time.Date(2024, 2, 1, 0, 0, 0, 0, loc), IntervalMonth, loc))
}
