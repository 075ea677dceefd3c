package stats

import "sort"

// OfferStats aggregates one offer's volume and revenue over a window.
type OfferStats struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Network    string   `json:"network,omitempty"`
	Leads      int64    `json:"leads"`
	Sales      int64    `json:"sales"`
	Revenue    float64  `json:"revenue"`
	CapLeads   *int64   `json:"cap_leads,omitempty"`
	CapRevenue *float64 `json:"cap_revenue,omitempty"`
}

// RankOffers sorts offers by revenue descending, in place. The sort is
// stable so equal-revenue offers keep their incoming order. It performs
// no filtering; callers decide what to show.
func RankOffers(offers []OfferStats) []OfferStats {
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Revenue > offers[j].Revenue
	})
	return offers
}

// PositiveRevenue keeps only offers that earned anything.
func PositiveRevenue(offers []OfferStats) []OfferStats {
	out := make([]OfferStats, 0, len(offers))
	for _, o := range offers {
		if o.Revenue > 0 {
			out = append(out, o)
		}
	}
	return out
}

// TopN truncates to the first n entries.
func TopN(offers []OfferStats, n int) []OfferStats {
	if n < 0 || n >= len(offers) {
		return offers
	}
	return offers[:n]
}
