package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/301digital/afftrack/internal/models"
)

// In-memory implementations back the service when PostgreSQL is not
// available and carry the test suite. They enforce the same upsert keys
// as the Postgres repos.

// dayKey normalizes a timestamp to its calendar day in loc, so records
// entered at different times of the same day collapse onto one key.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func monthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}

// MemorySpendRepo stores spend records keyed by (date, platform, campaign).
type MemorySpendRepo struct {
	mu      sync.RWMutex
	loc     *time.Location
	records map[string]*models.SpendRecord
}

func NewMemorySpendRepo(loc *time.Location) *MemorySpendRepo {
	return &MemorySpendRepo{loc: loc, records: make(map[string]*models.SpendRecord)}
}

func (r *MemorySpendRepo) key(rec *models.SpendRecord) string {
	return fmt.Sprintf("%s|%s|%d", dayKey(rec.Date, r.loc), rec.Platform, rec.CampaignID)
}

func (r *MemorySpendRepo) ListByWindow(_ context.Context, campaignID int64, start, end time.Time) ([]*models.SpendRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.SpendRecord
	for _, rec := range r.records {
		if campaignID != 0 && rec.CampaignID != campaignID {
			continue
		}
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemorySpendRepo) ListRecent(_ context.Context, limit int) ([]*models.SpendRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.SpendRecord, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemorySpendRepo) Upsert(_ context.Context, rec *models.SpendRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(rec)
	if existing, ok := r.records[key]; ok {
		rec.ID = existing.ID
	} else if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.UpdatedAt = time.Now()
	cp := *rec
	r.records[key] = &cp
	return nil
}

func (r *MemorySpendRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, rec := range r.records {
		if rec.ID == id {
			delete(r.records, key)
			return nil
		}
	}
	return nil
}

// MemoryConversionRepo stores conversions keyed by (date, offer).
type MemoryConversionRepo struct {
	mu      sync.RWMutex
	loc     *time.Location
	records map[string]*models.ConversionRecord
}

func NewMemoryConversionRepo(loc *time.Location) *MemoryConversionRepo {
	return &MemoryConversionRepo{loc: loc, records: make(map[string]*models.ConversionRecord)}
}

func (r *MemoryConversionRepo) key(rec *models.ConversionRecord) string {
	return fmt.Sprintf("%s|%d", dayKey(rec.Date, r.loc), rec.OfferID)
}

func (r *MemoryConversionRepo) ListByWindow(_ context.Context, start, end time.Time, offerIDs []int64) ([]*models.ConversionRecord, error) {
	var allowed map[int64]bool
	if offerIDs != nil {
		allowed = make(map[int64]bool, len(offerIDs))
		for _, id := range offerIDs {
			allowed[id] = true
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.ConversionRecord
	for _, rec := range r.records {
		if allowed != nil && !allowed[rec.OfferID] {
			continue
		}
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryConversionRepo) ListByOffer(ctx context.Context, offerID int64, start, end time.Time) ([]*models.ConversionRecord, error) {
	out, err := r.ListByWindow(ctx, start, end, []int64{offerID})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *MemoryConversionRepo) ListRecent(_ context.Context, limit int) ([]*models.ConversionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.ConversionRecord, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryConversionRepo) Upsert(_ context.Context, rec *models.ConversionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(rec)
	if existing, ok := r.records[key]; ok {
		rec.ID = existing.ID
	} else if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.UpdatedAt = time.Now()
	cp := *rec
	r.records[key] = &cp
	return nil
}

func (r *MemoryConversionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, rec := range r.records {
		if rec.ID == id {
			delete(r.records, key)
			return nil
		}
	}
	return nil
}

// MemoryAdjustmentRepo stores adjustments. Offer-tied monthly entries are
// additionally indexed by (month, offer, campaign) for the upsert.
type MemoryAdjustmentRepo struct {
	mu      sync.RWMutex
	loc     *time.Location
	records map[string]*models.AdjustmentRecord // by ID
	monthly map[string]string                   // (month, offer, campaign) -> ID
}

func NewMemoryAdjustmentRepo(loc *time.Location) *MemoryAdjustmentRepo {
	return &MemoryAdjustmentRepo{
		loc:     loc,
		records: make(map[string]*models.AdjustmentRecord),
		monthly: make(map[string]string),
	}
}

func (r *MemoryAdjustmentRepo) monthlyKey(rec *models.AdjustmentRecord) string {
	return fmt.Sprintf("%s|%d|%d", monthKey(rec.Date, r.loc), *rec.OfferID, rec.CampaignID)
}

func (r *MemoryAdjustmentRepo) ListByWindow(_ context.Context, campaignID int64, start, end time.Time) ([]*models.AdjustmentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.AdjustmentRecord
	for _, rec := range r.records {
		if campaignID != 0 && rec.CampaignID != campaignID {
			continue
		}
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryAdjustmentRepo) Insert(_ context.Context, rec *models.AdjustmentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *MemoryAdjustmentRepo) UpsertMonthly(_ context.Context, rec *models.AdjustmentRecord) error {
	if rec.OfferID == nil {
		return fmt.Errorf("monthly adjustment requires an offer")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.monthlyKey(rec)
	if id, ok := r.monthly[key]; ok {
		rec.ID = id
	} else if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	cp := *rec
	r.records[rec.ID] = &cp
	r.monthly[key] = rec.ID
	return nil
}

func (r *MemoryAdjustmentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil
	}
	if rec.OfferID != nil {
		delete(r.monthly, r.monthlyKey(rec))
	}
	delete(r.records, id)
	return nil
}

// MemoryOfferRepo stores offers keyed by ID.
type MemoryOfferRepo struct {
	mu     sync.RWMutex
	nextID int64
	offers map[int64]*models.Offer
}

func NewMemoryOfferRepo() *MemoryOfferRepo {
	return &MemoryOfferRepo{nextID: 1, offers: make(map[int64]*models.Offer)}
}

func (r *MemoryOfferRepo) ListAll(ctx context.Context) ([]*models.Offer, error) {
	return r.ListByCampaign(ctx, 0)
}

func (r *MemoryOfferRepo) ListByCampaign(_ context.Context, campaignID int64) ([]*models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Offer, 0, len(r.offers))
	for _, o := range r.offers {
		if campaignID != 0 && o.CampaignID != campaignID {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryOfferRepo) GetByID(_ context.Context, id int64) (*models.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *MemoryOfferRepo) Create(_ context.Context, o *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == 0 {
		o.ID = r.nextID
		r.nextID++
	} else if o.ID >= r.nextID {
		r.nextID = o.ID + 1
	}
	cp := *o
	r.offers[o.ID] = &cp
	return nil
}

func (r *MemoryOfferRepo) Update(_ context.Context, o *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offers[o.ID]; !ok {
		return fmt.Errorf("offer %d not found", o.ID)
	}
	cp := *o
	r.offers[o.ID] = &cp
	return nil
}

// MemoryCampaignRepo stores campaigns keyed by ID.
type MemoryCampaignRepo struct {
	mu        sync.RWMutex
	nextID    int64
	campaigns map[int64]*models.Campaign
}

func NewMemoryCampaignRepo() *MemoryCampaignRepo {
	return &MemoryCampaignRepo{nextID: 1, campaigns: make(map[int64]*models.Campaign)}
}

func (r *MemoryCampaignRepo) ListAll(_ context.Context) ([]*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryCampaignRepo) GetByID(_ context.Context, id int64) (*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryCampaignRepo) Create(_ context.Context, c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == 0 {
		c.ID = r.nextID
		r.nextID++
	} else if c.ID >= r.nextID {
		r.nextID = c.ID + 1
	}
	cp := *c
	r.campaigns[c.ID] = &cp
	return nil
}
