package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/301digital/afftrack/internal/models"
)

// Bucket is one aggregation cell of the chart series: all spend, revenue
// and conversion volume that fell into one day/week/month. Buckets are
// derived per request and never persisted.
type Bucket struct {
	Key            string  `json:"date"`
	Spend          float64 `json:"spend"`
	GoogleSpend    float64 `json:"google_spend"`
	MicrosoftSpend float64 `json:"microsoft_spend"`
	Revenue        float64 `json:"revenue"`
	Leads          int64   `json:"leads"`
	Sales          int64   `json:"sales"`
	Profit         float64 `json:"profit"`
	ROI            float64 `json:"roi"`
}

// Revenue derives conversion revenue from counts and payout rates.
// Payouts passed in must already be in the display currency; the result
// is then identical to converting every record individually.
func Revenue(leads, sales int64, payoutLead, payoutSale float64) float64 {
	return float64(leads)*payoutLead + float64(sales)*payoutSale
}

type payout struct {
	lead float64
	sale float64
}

// Aggregator folds spend, conversion and adjustment records into a
// bucket map. Each field accumulates independently, so the record order
// within a pass never changes the final values.
type Aggregator struct {
	interval Interval
	loc      *time.Location
	conv     *Converter
	payouts  map[int64]payout
	buckets  map[string]*Bucket
}

// NewAggregator prepares an aggregator for one request. Offer payout
// rates are normalized into the display currency once, up front.
func NewAggregator(interval Interval, loc *time.Location, conv *Converter, offers []*models.Offer) *Aggregator {
	payouts := make(map[int64]payout, len(offers))
	for _, o := range offers {
		payouts[o.ID] = payout{
			lead: conv.ToDisplay(conv.FromOfferCurrency(o.PayoutLead, o.Currency)),
			sale: conv.ToDisplay(conv.FromOfferCurrency(o.PayoutSale, o.Currency)),
		}
	}
	return &Aggregator{
		interval: interval,
		loc:      loc,
		conv:     conv,
		payouts:  payouts,
		buckets:  make(map[string]*Bucket),
	}
}

func (a *Aggregator) bucket(t time.Time) *Bucket {
	key := BucketKey(t, a.interval, a.loc)
	b, ok := a.buckets[key]
	if !ok {
		b = &Bucket{Key: key}
		a.buckets[key] = b
	}
	return b
}

// AddSpend folds spend records into the map. Amounts are normalized to
// the display currency; Google and Microsoft platforms are additionally
// tracked separately for the stacked chart.
func (a *Aggregator) AddSpend(records []*models.SpendRecord) {
	for _, r := range records {
		amount := a.conv.ToDisplay(a.conv.ToBase(r.Amount, r.Currency, r.ExchangeRate))
		b := a.bucket(r.Date)
		b.Spend += amount

		platform := strings.ToLower(r.Platform)
		switch {
		case strings.Contains(platform, "google"):
			b.GoogleSpend += amount
		case strings.Contains(platform, "microsoft"):
			b.MicrosoftSpend += amount
		}
	}
}

// AddConversions folds conversion records into the map. Revenue comes
// from the offer's payout rates; conversions whose offer is unknown
// still count leads and sales but contribute no revenue.
func (a *Aggregator) AddConversions(records []*models.ConversionRecord) {
	for _, r := range records {
		b := a.bucket(r.Date)
		b.Leads += r.Leads
		b.Sales += r.Sales
		p := a.payouts[r.OfferID]
		b.Revenue += Revenue(r.Leads, r.Sales, p.lead, p.sale)
	}
}

// AddAdjustments folds manual revenue corrections into the map, signed
// by their type.
func (a *Aggregator) AddAdjustments(records []*models.AdjustmentRecord) {
	for _, r := range records {
		amount := a.conv.ToDisplay(a.conv.ToBase(r.Signed(), r.Currency, r.ExchangeRate))
		a.bucket(r.Date).Revenue += amount
	}
}

// Buckets finalizes the map into a chart series: derived metrics filled
// in, money rounded to cents, percentages to one decimal, sorted
// chronologically. Keys are YYYY-MM-DD so lexical order is date order.
func (a *Aggregator) Buckets() []Bucket {
	out := make([]Bucket, 0, len(a.buckets))
	for _, b := range a.buckets {
		finalizeBucket(b)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
