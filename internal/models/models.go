package models

import (
	"fmt"
	"time"
)

// Offer statuses.
const (
	OfferStatusActive = "ACTIVE"
	OfferStatusPaused = "PAUSED"
)

// Adjustment types.
const (
	AdjustmentBonus     = "BONUS"
	AdjustmentDeduction = "DEDUCTION"
)

// Campaign represents a tracked advertising project. Offers, spend and
// adjustments hang off a campaign.
type Campaign struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// Offer is a trackable affiliate deal with per-lead and per-sale payout
// rates. Payouts and caps are expressed in the offer's currency (USD for
// the reference data). A cap, when set, is a monthly ceiling monitored by
// the cap monitor.
type Offer struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Network    string   `json:"network,omitempty"`
	PayoutLead float64  `json:"payout_lead"`
	PayoutSale float64  `json:"payout_sale"`
	CapLeads   *int64   `json:"cap_leads,omitempty"`
	CapRevenue *float64 `json:"cap_revenue,omitempty"`
	Status     string   `json:"status"`
	CampaignID int64    `json:"campaign_id"`
	Currency   string   `json:"currency,omitempty"`
}

// HasCap reports whether either monthly ceiling is configured.
func (o *Offer) HasCap() bool {
	return o.CapLeads != nil || o.CapRevenue != nil
}

// Validate checks invariants before an offer enters storage.
func (o *Offer) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("offer name is required")
	}
	if o.PayoutLead < 0 || o.PayoutSale < 0 {
		return fmt.Errorf("payout rates must be non-negative")
	}
	if o.CapLeads != nil && *o.CapLeads <= 0 {
		return fmt.Errorf("cap_leads must be positive when set")
	}
	if o.CapRevenue != nil && *o.CapRevenue <= 0 {
		return fmt.Errorf("cap_revenue must be positive when set")
	}
	if o.Status == "" {
		o.Status = OfferStatusActive
	}
	return nil
}

// SpendRecord is one platform's advertising spend for one calendar day.
// At most one record exists per (date, platform, campaign); the storage
// layer enforces this with an upsert.
type SpendRecord struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Platform     string    `json:"platform"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	ExchangeRate float64   `json:"exchange_rate"`
	CampaignID   int64     `json:"campaign_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConversionRecord is one offer's lead and sale counts for one calendar
// day. At most one record exists per (date, offer).
type ConversionRecord struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	OfferID   int64     `json:"offer_id"`
	Leads     int64     `json:"leads"`
	Sales     int64     `json:"sales"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdjustmentRecord is a manually entered revenue correction (revshare
// bonus or deduction) that is not derived from conversion counts. When
// tied to an offer, at most one record exists per (offer, campaign,
// calendar month).
type AdjustmentRecord struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Amount       float64   `json:"amount"`
	Type         string    `json:"type"`
	Description  string    `json:"description,omitempty"`
	OfferID      *int64    `json:"offer_id,omitempty"`
	Currency     string    `json:"currency"`
	ExchangeRate float64   `json:"exchange_rate"`
	CampaignID   int64     `json:"campaign_id"`
}

// Signed returns the amount with the sign implied by the adjustment type.
// A DEDUCTION entered as a positive number still subtracts.
func (a *AdjustmentRecord) Signed() float64 {
	if a.Type == AdjustmentDeduction && a.Amount > 0 {
		return -a.Amount
	}
	return a.Amount
}

// Validate checks invariants before an adjustment enters storage.
func (a *AdjustmentRecord) Validate() error {
	switch a.Type {
	case AdjustmentBonus, AdjustmentDeduction:
	default:
		return fmt.Errorf("adjustment type must be BONUS or DEDUCTION, got %q", a.Type)
	}
	if a.CampaignID == 0 {
		return fmt.Errorf("campaign_id is required")
	}
	return nil
}
