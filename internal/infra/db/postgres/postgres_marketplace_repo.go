package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

var (
	_ repository.LeadListingRepository  = (*listingRepo)(nil)
	_ repository.LeadPurchaseRepository = (*purchaseRepo)(nil)
)

// Money is stored as integer cents and surfaced as decimal.Decimal.

type listingRepo struct{ pool *pgxpool.Pool }

func NewLeadListingRepo(pool *pgxpool.Pool) *listingRepo {
	return &listingRepo{pool: pool}
}

func (r *listingRepo) Save(ctx context.Context, tx repository.Tx, l *model.LeadListing) error {
	const q = `
INSERT INTO lead_listings (id, seller_id, title, price_cents, status, contact_name, contact_email, contact_phone, sold_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  title=EXCLUDED.title,
  price_cents=EXCLUDED.price_cents,
  status=EXCLUDED.status,
  contact_name=EXCLUDED.contact_name,
  contact_email=EXCLUDED.contact_email,
  contact_phone=EXCLUDED.contact_phone,
  sold_at=EXCLUDED.sold_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.SellerID, l.Title, model.ToCents(l.Price), l.Status,
		l.ContactName, l.ContactEmail, l.ContactPhone, l.SoldAt, l.CreatedAt)
	return err
}

func (r *listingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.LeadListing, error) {
	q := `
SELECT id, seller_id, title, price_cents, status, contact_name, contact_email, contact_phone, sold_at, created_at
FROM lead_listings WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var (
		l     model.LeadListing
		cents int64
	)
	if err := row.Scan(&l.ID, &l.SellerID, &l.Title, &cents, &l.Status,
		&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.SoldAt, &l.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	l.Price = model.FromCents(cents)
	return &l, nil
}

func (r *listingRepo) MarkSold(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `UPDATE lead_listings SET status='SOLD', sold_at=$2 WHERE id=$1 AND status='ACTIVE';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewLeadPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `id, listing_id, buyer_id, seller_id, amount_cents, platform_fee_cents, seller_amount_cents, status, COALESCE(provider_session_id,''), provider_payment_intent_id, created_at, completed_at`

func (r *purchaseRepo) Create(ctx context.Context, tx repository.Tx, p *model.LeadPurchase) error {
	const q = `
INSERT INTO lead_purchases (id, listing_id, buyer_id, seller_id, amount_cents, platform_fee_cents, seller_amount_cents,
  status, provider_session_id, provider_payment_intent_id, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.ListingID, p.BuyerID, p.SellerID,
		model.ToCents(p.Amount), model.ToCents(p.PlatformFee), model.ToCents(p.SellerAmount),
		p.Status, p.ProviderSessionID, p.ProviderPaymentIntentID, p.CreatedAt, p.CompletedAt)
	return err
}

func (r *purchaseRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.LeadPurchase, error) {
	return r.findOne(ctx, tx, `WHERE provider_session_id=$1`, sessionID)
}

func (r *purchaseRepo) FindPending(ctx context.Context, tx repository.Tx, listingID, buyerID string) (*model.LeadPurchase, error) {
	return r.findOne(ctx, tx, `WHERE listing_id=$1 AND buyer_id=$2 AND status='PENDING' ORDER BY created_at DESC LIMIT 1`, listingID, buyerID)
}

func (r *purchaseRepo) findOne(ctx context.Context, tx repository.Tx, where string, args ...interface{}) (*model.LeadPurchase, error) {
	q := `SELECT ` + purchaseColumns + ` FROM lead_purchases ` + where
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPurchase(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *purchaseRepo) ExistsCompleted(ctx context.Context, tx repository.Tx, keys model.NaturalKeys) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM lead_purchases
  WHERE status='COMPLETED'
    AND ((NULLIF($1,'') IS NOT NULL AND provider_session_id=$1)
      OR (NULLIF($2,'') IS NOT NULL AND provider_payment_intent_id=$2))
);`
	row, err := pickRow(ctx, r.pool, tx, q, keys.SessionID, keys.PaymentIntentID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

func (r *purchaseRepo) HasCompletedForBuyer(ctx context.Context, tx repository.Tx, listingID, buyerID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM lead_purchases WHERE listing_id=$1 AND buyer_id=$2 AND status='COMPLETED');`
	row, err := pickRow(ctx, r.pool, tx, q, listingID, buyerID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

func (r *purchaseRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id, paymentIntentID string, at time.Time) (bool, error) {
	const q = `
UPDATE lead_purchases
SET status='COMPLETED', provider_payment_intent_id=COALESCE(NULLIF($2,''), provider_payment_intent_id), completed_at=$3
WHERE id=$1 AND status='PENDING';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, paymentIntentID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanPurchase(row pgx.Row) (*model.LeadPurchase, error) {
	var (
		p                   model.LeadPurchase
		amount, fee, seller int64
	)
	if err := row.Scan(&p.ID, &p.ListingID, &p.BuyerID, &p.SellerID, &amount, &fee, &seller,
		&p.Status, &p.ProviderSessionID, &p.ProviderPaymentIntentID, &p.CreatedAt, &p.CompletedAt); err != nil {
		return nil, err
	}
	p.Amount = model.FromCents(amount)
	p.PlatformFee = model.FromCents(fee)
	p.SellerAmount = model.FromCents(seller)
	return &p, nil
}
