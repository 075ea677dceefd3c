package stats

import (
	"fmt"
	"time"
)

// Range is a dashboard date-range keyword.
type Range string

const (
	RangeThisWeek  Range = "this_week"
	RangeLastWeek  Range = "last_week"
	RangeThisMonth Range = "this_month"
	RangeLastMonth Range = "last_month"
	RangeThisYear  Range = "this_year"
	RangeAll       Range = "all"
	RangeCustom    Range = "custom"
)

// ErrCustomRange is returned when range=custom arrives without usable
// from/to bounds. The window would be ambiguous, so we refuse instead of
// quietly computing something else. Every validation failure in
// resolveCustom wraps this sentinel so callers can map the whole class
// to a client error.
var ErrCustomRange = fmt.Errorf("invalid custom range")

// ParseRange maps a keyword to a Range. Unknown keywords fall back to
// this_month, mirroring the dashboard default.
func ParseRange(s string) Range {
	switch Range(s) {
	case RangeThisWeek, RangeLastWeek, RangeThisMonth, RangeLastMonth,
		RangeThisYear, RangeAll, RangeCustom:
		return Range(s)
	default:
		return RangeThisMonth
	}
}

// Window is an inclusive time span. End is always the last instant
// (23:59:59.999) of its calendar day.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// DateRangeResolver turns range keywords into a current window and the
// symmetric previous window used for trend comparison. All arithmetic
// happens in the reference timezone.
type DateRangeResolver struct {
	loc   *time.Location
	epoch time.Time
}

// NewDateRangeResolver creates a resolver for the given reference zone.
// epoch is the lower bound of the "all" range.
func NewDateRangeResolver(loc *time.Location, epoch time.Time) *DateRangeResolver {
	return &DateRangeResolver{loc: loc, epoch: epoch}
}

// Resolve computes the current and previous windows for a range keyword
// as of now. previous is nil for range=all: there is no preceding period
// of equal length, so trend comparison must be skipped. from and to are
// YYYY-MM-DD strings, consulted only for range=custom.
func (r *DateRangeResolver) Resolve(now time.Time, rng Range, from, to string) (Window, *Window, error) {
	now = now.In(r.loc)

	switch rng {
	case RangeThisWeek:
		monday := r.startOfWeek(now)
		cur := Window{Start: monday, End: r.endOfDay(now)}
		prev := Window{
			Start: monday.AddDate(0, 0, -7),
			End:   r.endOfDay(monday.AddDate(0, 0, -1)),
		}
		return cur, &prev, nil

	case RangeLastWeek:
		monday := r.startOfWeek(now).AddDate(0, 0, -7)
		cur := Window{Start: monday, End: r.endOfDay(monday.AddDate(0, 0, 6))}
		prev := Window{
			Start: monday.AddDate(0, 0, -7),
			End:   r.endOfDay(monday.AddDate(0, 0, -1)),
		}
		return cur, &prev, nil

	case RangeLastMonth:
		first := r.startOfMonth(now).AddDate(0, -1, 0)
		cur := Window{Start: first, End: r.endOfMonth(first)}
		prevFirst := first.AddDate(0, -1, 0)
		prev := Window{Start: prevFirst, End: r.endOfMonth(prevFirst)}
		return cur, &prev, nil

	case RangeThisYear:
		jan1 := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, r.loc)
		cur := Window{Start: jan1, End: r.endOfDay(time.Date(now.Year(), 12, 31, 0, 0, 0, 0, r.loc))}
		prevJan1 := jan1.AddDate(-1, 0, 0)
		prev := Window{Start: prevJan1, End: r.endOfDay(time.Date(now.Year()-1, 12, 31, 0, 0, 0, 0, r.loc))}
		return cur, &prev, nil

	case RangeAll:
		cur := Window{Start: r.epoch.In(r.loc), End: r.endOfDay(now)}
		return cur, nil, nil

	case RangeCustom:
		return r.resolveCustom(from, to)

	default: // this_month, and the fallback for anything unrecognized
		first := r.startOfMonth(now)
		cur := Window{Start: first, End: r.endOfDay(now)}
		prevFirst := first.AddDate(0, -1, 0)
		prev := Window{Start: prevFirst, End: r.endOfMonth(prevFirst)}
		return cur, &prev, nil
	}
}

func (r *DateRangeResolver) resolveCustom(from, to string) (Window, *Window, error) {
	if from == "" || to == "" {
		return Window{}, nil, fmt.Errorf("%w: both from and to dates are required", ErrCustomRange)
	}
	start, err := time.ParseInLocation("2006-01-02", from, r.loc)
	if err != nil {
		return Window{}, nil, fmt.Errorf("%w: bad from date %q", ErrCustomRange, from)
	}
	toDay, err := time.ParseInLocation("2006-01-02", to, r.loc)
	if err != nil {
		return Window{}, nil, fmt.Errorf("%w: bad to date %q", ErrCustomRange, to)
	}
	if toDay.Before(start) {
		return Window{}, nil, fmt.Errorf("%w: end %s is before start %s", ErrCustomRange, to, from)
	}

	cur := Window{Start: start, End: r.endOfDay(toDay)}

	// The previous window immediately precedes the current one and has
	// the same duration.
	dur := cur.End.Sub(cur.Start)
	prevEnd := cur.Start.Add(-time.Millisecond)
	prev := Window{Start: prevEnd.Add(-dur), End: prevEnd}
	return cur, &prev, nil
}

// startOfWeek returns the Monday 00:00 of the week containing t. Sunday
// counts as the seventh day of a Monday-starting week.
func (r *DateRangeResolver) startOfWeek(t time.Time) time.Time {
	t = t.In(r.loc)
	day := int(t.Weekday())
	if day == 0 {
		day = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-(day-1), 0, 0, 0, 0, r.loc)
}

func (r *DateRangeResolver) startOfMonth(t time.Time) time.Time {
	t = t.In(r.loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, r.loc)
}

// endOfMonth returns the last instant of the month containing t.
func (r *DateRangeResolver) endOfMonth(t time.Time) time.Time {
	t = t.In(r.loc)
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, r.loc).AddDate(0, 1, 0)
	return r.endOfDay(firstOfNext.AddDate(0, 0, -1))
}

func (r *DateRangeResolver) endOfDay(t time.Time) time.Time {
	t = t.In(r.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), r.loc)
}
