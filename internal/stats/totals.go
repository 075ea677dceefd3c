package stats

import (
	"math"
	"time"

	"github.com/301digital/afftrack/internal/models"
)

// PeriodTotals are the whole-window aggregates shown on the KPI cards.
type PeriodTotals struct {
	Spend   float64 `json:"spend"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
	ROI     float64 `json:"roi"`
}

func finalizeBucket(b *Bucket) {
	b.Profit = b.Revenue - b.Spend
	if b.Spend > 0 {
		b.ROI = b.Profit / b.Spend * 100
	} else {
		b.ROI = 0
	}
	b.Spend = roundMoney(b.Spend)
	b.GoogleSpend = roundMoney(b.GoogleSpend)
	b.MicrosoftSpend = roundMoney(b.MicrosoftSpend)
	b.Revenue = roundMoney(b.Revenue)
	b.Profit = roundMoney(b.Profit)
	b.ROI = roundPercent(b.ROI)
}

// TotalsFor reduces a flat record set into PeriodTotals. It reuses the
// aggregator so window totals and bucketed chart data can never drift
// apart.
func TotalsFor(conv *Converter, offers []*models.Offer,
	spends []*models.SpendRecord, conversions []*models.ConversionRecord,
	adjustments []*models.AdjustmentRecord) PeriodTotals {

	// A single month-granularity fold would still split across calendar
	// months, so sum the buckets instead of assuming one.
	agg := NewAggregator(IntervalMonth, time.UTC, conv, offers)
	agg.AddSpend(spends)
	agg.AddConversions(conversions)
	agg.AddAdjustments(adjustments)

	var t PeriodTotals
	for _, b := range agg.buckets {
		t.Spend += b.Spend
		t.Revenue += b.Revenue
	}
	t.Profit = t.Revenue - t.Spend
	if t.Spend > 0 {
		t.ROI = t.Profit / t.Spend * 100
	}
	t.Spend = roundMoney(t.Spend)
	t.Revenue = roundMoney(t.Revenue)
	t.Profit = roundMoney(t.Profit)
	t.ROI = roundPercent(t.ROI)
	return t
}

// Trend is the percentage change between a current-period value and the
// previous-period value. A zero previous period yields 0 rather than a
// division blow-up; the caller distinguishes "no previous window at all"
// by not calling this.
func Trend(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// TrendDirection classifies a trend for presentation.
type TrendDirection string

const (
	TrendPositive TrendDirection = "positive"
	TrendNegative TrendDirection = "negative"
	TrendNeutral  TrendDirection = "neutral"
)

// ClassifyTrend labels a trend percentage. reverse flips the
// interpretation for cost metrics, where growth is bad; it never changes
// the numeric value. Changes under a tenth of a percent read as flat.
func ClassifyTrend(percent float64, reverse bool) TrendDirection {
	if math.Abs(percent) < 0.1 {
		return TrendNeutral
	}
	good := percent > 0
	if reverse {
		good = !good
	}
	if good {
		return TrendPositive
	}
	return TrendNegative
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundPercent(v float64) float64 {
	return math.Round(v*10) / 10
}
