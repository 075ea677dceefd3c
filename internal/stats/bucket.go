package stats

import "time"

// Interval is the bucket granularity for chart data.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

// ParseInterval maps a query value to an Interval, defaulting to day.
func ParseInterval(s string) Interval {
	switch Interval(s) {
	case IntervalWeek:
		return IntervalWeek
	case IntervalMonth:
		return IntervalMonth
	default:
		return IntervalDay
	}
}

// BucketKey maps a timestamp to its bucket identifier, formatted
// YYYY-MM-DD. The calendar day is resolved in loc, never by UTC
// truncation: a record stored as 23:00 UTC belongs to the next local day
// when the zone is ahead of UTC, and both sides of local midnight must
// land in the same bucket.
//
// day   -> the local calendar day
// week  -> the Monday of the week containing the local day
// month -> the first day of the local month
func BucketKey(t time.Time, interval Interval, loc *time.Location) string {
	lt := t.In(loc)
	year, month, day := lt.Date()

	switch interval {
	case IntervalWeek:
		wd := int(lt.Weekday())
		if wd == 0 {
			wd = 7 // Sunday closes a Monday-starting week
		}
		monday := time.Date(year, month, day-(wd-1), 0, 0, 0, 0, loc)
		return monday.Format("2006-01-02")

	case IntervalMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc).Format("2006-01-02")

	default:
		return time.Date(year, month, day, 0, 0, 0, 0, loc).Format("2006-01-02")
	}
}
