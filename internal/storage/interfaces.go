package storage

import (
	"context"
	"time"

	"github.com/301digital/afftrack/internal/models"
)

// The reporting engine reads fully materialized record lists and assumes
// they are de-duplicated. That assumption is earned here: every write is
// an upsert on the record type's canonical key, so a window query can
// never return two records for the same key.
//
//	spend       (date, platform, campaign)
//	conversion  (date, offer)
//	adjustment  (month, offer, campaign) when offer-tied

// SpendRepo stores daily advertising spend per platform.
type SpendRepo interface {
	// ListByWindow returns spend records inside [start, end] for one
	// campaign, or for all campaigns when campaignID is zero.
	ListByWindow(ctx context.Context, campaignID int64, start, end time.Time) ([]*models.SpendRecord, error)
	// ListRecent returns the most recently modified records, newest
	// first, for the activity feed.
	ListRecent(ctx context.Context, limit int) ([]*models.SpendRecord, error)
	// Upsert inserts or overwrites the record for its (date, platform,
	// campaign) key and stamps UpdatedAt.
	Upsert(ctx context.Context, rec *models.SpendRecord) error
	Delete(ctx context.Context, id string) error
}

// ConversionRepo stores daily lead/sale counts per offer.
type ConversionRepo interface {
	// ListByWindow returns conversions inside [start, end] restricted to
	// the given offers. A nil offerIDs means no offer restriction.
	ListByWindow(ctx context.Context, start, end time.Time, offerIDs []int64) ([]*models.ConversionRecord, error)
	// ListByOffer returns one offer's conversions inside the window,
	// ordered by date ascending.
	ListByOffer(ctx context.Context, offerID int64, start, end time.Time) ([]*models.ConversionRecord, error)
	// ListRecent returns the most recently modified records, newest
	// first, for the activity feed.
	ListRecent(ctx context.Context, limit int) ([]*models.ConversionRecord, error)
	// Upsert inserts or overwrites the record for its (date, offer) key
	// and stamps UpdatedAt.
	Upsert(ctx context.Context, rec *models.ConversionRecord) error
	Delete(ctx context.Context, id string) error
}

// AdjustmentRepo stores manual revenue corrections.
type AdjustmentRepo interface {
	ListByWindow(ctx context.Context, campaignID int64, start, end time.Time) ([]*models.AdjustmentRecord, error)
	// Insert adds a free-form adjustment with no uniqueness constraint.
	Insert(ctx context.Context, rec *models.AdjustmentRecord) error
	// UpsertMonthly inserts or overwrites the offer-tied revshare entry
	// for the calendar month of rec.Date. rec.OfferID must be set.
	UpsertMonthly(ctx context.Context, rec *models.AdjustmentRecord) error
	Delete(ctx context.Context, id string) error
}

// OfferRepo stores offers.
type OfferRepo interface {
	ListAll(ctx context.Context) ([]*models.Offer, error)
	// ListByCampaign returns one campaign's offers, or all offers when
	// campaignID is zero.
	ListByCampaign(ctx context.Context, campaignID int64) ([]*models.Offer, error)
	// GetByID returns the offer or nil if not found.
	GetByID(ctx context.Context, id int64) (*models.Offer, error)
	// Create stores a new offer and assigns its ID.
	Create(ctx context.Context, o *models.Offer) error
	Update(ctx context.Context, o *models.Offer) error
}

// CampaignRepo stores campaigns.
type CampaignRepo interface {
	ListAll(ctx context.Context) ([]*models.Campaign, error)
	// GetByID returns the campaign or nil if not found.
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	// Create stores a new campaign and assigns its ID.
	Create(ctx context.Context, c *models.Campaign) error
}
