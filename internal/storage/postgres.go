package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/301digital/afftrack/internal/models"
)

// PostgreSQL-backed repositories. Uniqueness invariants live in the
// schema (see migrations/schema.sql) and every write goes through
// ON CONFLICT, so concurrent submissions of the same day can never
// produce duplicate rows.

// PostgresSpendRepo implements SpendRepo using PostgreSQL.
type PostgresSpendRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSpendRepo(pool *pgxpool.Pool) *PostgresSpendRepo {
	return &PostgresSpendRepo{pool: pool}
}

func (r *PostgresSpendRepo) ListByWindow(ctx context.Context, campaignID int64, start, end time.Time) ([]*models.SpendRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, platform, amount, currency, exchange_rate, campaign_id, updated_at
		FROM daily_spend
		WHERE date >= $1 AND date <= $2 AND ($3 = 0 OR campaign_id = $3)
	`, start, end, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list spend: %w", err)
	}
	defer rows.Close()
	return scanSpends(rows)
}

func (r *PostgresSpendRepo) ListRecent(ctx context.Context, limit int) ([]*models.SpendRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, platform, amount, currency, exchange_rate, campaign_id, updated_at
		FROM daily_spend
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent spend: %w", err)
	}
	defer rows.Close()
	return scanSpends(rows)
}

func scanSpends(rows pgx.Rows) ([]*models.SpendRecord, error) {
	var out []*models.SpendRecord
	for rows.Next() {
		var rec models.SpendRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Platform, &rec.Amount,
			&rec.Currency, &rec.ExchangeRate, &rec.CampaignID, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan spend: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *PostgresSpendRepo) Upsert(ctx context.Context, rec *models.SpendRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_spend (id, date, platform, amount, currency, exchange_rate, campaign_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date, platform, campaign_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			exchange_rate = EXCLUDED.exchange_rate,
			updated_at = now()
	`, rec.ID, rec.Date, rec.Platform, rec.Amount, rec.Currency, rec.ExchangeRate, rec.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to upsert spend: %w", err)
	}
	return nil
}

func (r *PostgresSpendRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM daily_spend WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete spend: %w", err)
	}
	return nil
}

// PostgresConversionRepo implements ConversionRepo using PostgreSQL.
type PostgresConversionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresConversionRepo(pool *pgxpool.Pool) *PostgresConversionRepo {
	return &PostgresConversionRepo{pool: pool}
}

func (r *PostgresConversionRepo) ListByWindow(ctx context.Context, start, end time.Time, offerIDs []int64) ([]*models.ConversionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, offer_id, leads, sales, updated_at
		FROM conversions
		WHERE date >= $1 AND date <= $2 AND ($3::bigint[] IS NULL OR offer_id = ANY($3))
	`, start, end, offerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()
	return scanConversions(rows)
}

func (r *PostgresConversionRepo) ListByOffer(ctx context.Context, offerID int64, start, end time.Time) ([]*models.ConversionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, offer_id, leads, sales, updated_at
		FROM conversions
		WHERE offer_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`, offerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list offer conversions: %w", err)
	}
	defer rows.Close()
	return scanConversions(rows)
}

func (r *PostgresConversionRepo) ListRecent(ctx context.Context, limit int) ([]*models.ConversionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, offer_id, leads, sales, updated_at
		FROM conversions
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent conversions: %w", err)
	}
	defer rows.Close()
	return scanConversions(rows)
}

func scanConversions(rows pgx.Rows) ([]*models.ConversionRecord, error) {
	var out []*models.ConversionRecord
	for rows.Next() {
		var rec models.ConversionRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.OfferID, &rec.Leads, &rec.Sales, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *PostgresConversionRepo) Upsert(ctx context.Context, rec *models.ConversionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversions (id, date, offer_id, leads, sales)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date, offer_id) DO UPDATE SET
			leads = EXCLUDED.leads,
			sales = EXCLUDED.sales,
			updated_at = now()
	`, rec.ID, rec.Date, rec.OfferID, rec.Leads, rec.Sales)
	if err != nil {
		return fmt.Errorf("failed to upsert conversion: %w", err)
	}
	return nil
}

func (r *PostgresConversionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM conversions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}
	return nil
}

// PostgresAdjustmentRepo implements AdjustmentRepo using PostgreSQL. The
// month column is computed in the reference timezone so the monthly
// upsert key matches what the dashboard considers "this month".
type PostgresAdjustmentRepo struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func NewPostgresAdjustmentRepo(pool *pgxpool.Pool, loc *time.Location) *PostgresAdjustmentRepo {
	return &PostgresAdjustmentRepo{pool: pool, loc: loc}
}

func (r *PostgresAdjustmentRepo) ListByWindow(ctx context.Context, campaignID int64, start, end time.Time) ([]*models.AdjustmentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, amount, type, description, offer_id, currency, exchange_rate, campaign_id
		FROM adjustments
		WHERE date >= $1 AND date <= $2 AND ($3 = 0 OR campaign_id = $3)
		ORDER BY date DESC
	`, start, end, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	defer rows.Close()

	var out []*models.AdjustmentRecord
	for rows.Next() {
		var rec models.AdjustmentRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Amount, &rec.Type, &rec.Description,
			&rec.OfferID, &rec.Currency, &rec.ExchangeRate, &rec.CampaignID); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *PostgresAdjustmentRepo) month(t time.Time) time.Time {
	lt := t.In(r.loc)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (r *PostgresAdjustmentRepo) Insert(ctx context.Context, rec *models.AdjustmentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO adjustments (id, date, month, amount, type, description, offer_id, currency, exchange_rate, campaign_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.ID, rec.Date, r.month(rec.Date), rec.Amount, rec.Type, rec.Description,
		rec.OfferID, rec.Currency, rec.ExchangeRate, rec.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to insert adjustment: %w", err)
	}
	return nil
}

func (r *PostgresAdjustmentRepo) UpsertMonthly(ctx context.Context, rec *models.AdjustmentRecord) error {
	if rec.OfferID == nil {
		return fmt.Errorf("monthly adjustment requires an offer")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO adjustments (id, date, month, amount, type, description, offer_id, currency, exchange_rate, campaign_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (month, offer_id, campaign_id) WHERE offer_id IS NOT NULL DO UPDATE SET
			amount = EXCLUDED.amount,
			date = EXCLUDED.date,
			type = EXCLUDED.type,
			currency = EXCLUDED.currency,
			exchange_rate = EXCLUDED.exchange_rate
	`, rec.ID, rec.Date, r.month(rec.Date), rec.Amount, rec.Type, rec.Description,
		rec.OfferID, rec.Currency, rec.ExchangeRate, rec.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to upsert monthly adjustment: %w", err)
	}
	return nil
}

func (r *PostgresAdjustmentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM adjustments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete adjustment: %w", err)
	}
	return nil
}

// PostgresOfferRepo implements OfferRepo using PostgreSQL.
type PostgresOfferRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresOfferRepo(pool *pgxpool.Pool) *PostgresOfferRepo {
	return &PostgresOfferRepo{pool: pool}
}

const offerColumns = `id, name, network, payout_lead, payout_sale, cap_leads, cap_revenue, status, campaign_id, currency`

func (r *PostgresOfferRepo) ListAll(ctx context.Context) ([]*models.Offer, error) {
	return r.ListByCampaign(ctx, 0)
}

func (r *PostgresOfferRepo) ListByCampaign(ctx context.Context, campaignID int64) ([]*models.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+`
		FROM offers
		WHERE ($1 = 0 OR campaign_id = $1)
		ORDER BY name ASC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var out []*models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresOfferRepo) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func scanOffer(row pgx.Row) (*models.Offer, error) {
	var o models.Offer
	err := row.Scan(&o.ID, &o.Name, &o.Network, &o.PayoutLead, &o.PayoutSale,
		&o.CapLeads, &o.CapRevenue, &o.Status, &o.CampaignID, &o.Currency)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan offer: %w", err)
	}
	return &o, nil
}

func (r *PostgresOfferRepo) Create(ctx context.Context, o *models.Offer) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO offers (name, network, payout_lead, payout_sale, cap_leads, cap_revenue, status, campaign_id, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, o.Name, o.Network, o.PayoutLead, o.PayoutSale, o.CapLeads, o.CapRevenue,
		o.Status, o.CampaignID, o.Currency).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *PostgresOfferRepo) Update(ctx context.Context, o *models.Offer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE offers SET
			name = $2, network = $3, payout_lead = $4, payout_sale = $5,
			cap_leads = $6, cap_revenue = $7, status = $8, currency = $9
		WHERE id = $1
	`, o.ID, o.Name, o.Network, o.PayoutLead, o.PayoutSale, o.CapLeads, o.CapRevenue, o.Status, o.Currency)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("offer %d not found", o.ID)
	}
	return nil
}

// PostgresCampaignRepo implements CampaignRepo using PostgreSQL.
type PostgresCampaignRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCampaignRepo(pool *pgxpool.Pool) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{pool: pool}
}

func (r *PostgresCampaignRepo) ListAll(ctx context.Context) ([]*models.Campaign, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, type, status FROM campaigns ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var out []*models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *PostgresCampaignRepo) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	var c models.Campaign
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, type, status FROM campaigns WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Type, &c.Status)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &c, nil
}

func (r *PostgresCampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (name, type, status) VALUES ($1, $2, $3) RETURNING id
	`, c.Name, c.Type, c.Status).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}
