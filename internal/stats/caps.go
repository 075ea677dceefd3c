package stats

import "github.com/301digital/afftrack/internal/models"

// Severity classifies how close an offer is to its monthly cap.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Cap thresholds in percent.
const (
	capWarningPct  = 85
	capCriticalPct = 100
)

// CapStatus is one offer's position against its monthly ceiling.
type CapStatus struct {
	OfferStats
	Percent  float64  `json:"percent"`
	Severity Severity `json:"severity"`
}

// EvaluateCaps computes percent-of-cap for every active offer that has a
// monthly ceiling configured. monthly must hold the offer's stats for the
// current calendar month; the cap monitor always measures the month, not
// the dashboard's selected range. Offers without a cap are absent from
// the result.
//
// When both ceilings are set the lead cap wins: lead counts are the
// contractual limit networks actually enforce.
func EvaluateCaps(offers []*models.Offer, monthly map[int64]OfferStats) []CapStatus {
	out := make([]CapStatus, 0)
	for _, o := range offers {
		if o.Status != models.OfferStatusActive || !o.HasCap() {
			continue
		}

		st := monthly[o.ID]
		st.ID = o.ID
		st.Name = o.Name
		st.Network = o.Network
		st.CapLeads = o.CapLeads
		st.CapRevenue = o.CapRevenue

		var pct float64
		switch {
		case o.CapLeads != nil && *o.CapLeads > 0:
			pct = float64(st.Leads) / float64(*o.CapLeads) * 100
		case o.CapRevenue != nil && *o.CapRevenue > 0:
			pct = st.Revenue / *o.CapRevenue * 100
		}

		// Classify the rounded value so the reported percent and its
		// severity never disagree (84.96 renders as 85.0 and must warn).
		pct = roundPercent(pct)
		out = append(out, CapStatus{
			OfferStats: st,
			Percent:    pct,
			Severity:   classifySeverity(pct),
		})
	}
	return out
}

func classifySeverity(pct float64) Severity {
	switch {
	case pct >= capCriticalPct:
		return SeverityCritical
	case pct >= capWarningPct:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}
