package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p2p-exchange/backend/internal/models"
	"github.com/shopspring/decimal"
)

type OfferRepo struct {
	pool *pgxpool.Pool
}

func NewOfferRepo(pool *pgxpool.Pool) *OfferRepo {
	return &OfferRepo{pool: pool}
}

const offerColumns = `id, seller_id, crypto_currency, fiat_currency, price_type, price_value,
	       min_amount, max_amount, crypto_amount, locked_amount, payment_methods, terms, active,
	       created_at, updated_at`

func scanOffer(row interface{ Scan(...any) error }, o *models.Offer) error {
	return row.Scan(&o.ID, &o.SellerID, &o.CryptoCurrency, &o.FiatCurrency, &o.PriceType, &o.PriceValue,
		&o.MinAmount, &o.MaxAmount, &o.CryptoAmount, &o.LockedAmount, &o.PaymentMethods, &o.Terms, &o.Active,
		&o.CreatedAt, &o.UpdatedAt)
}

func (r *OfferRepo) Create(ctx context.Context, o *models.Offer) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO offers (seller_id, crypto_currency, fiat_currency, price_type, price_value,
		                    min_amount, max_amount, crypto_amount, payment_methods, terms, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, locked_amount, created_at, updated_at
	`, o.SellerID, o.CryptoCurrency, o.FiatCurrency, o.PriceType, o.PriceValue,
		o.MinAmount, o.MaxAmount, o.CryptoAmount, o.PaymentMethods, o.Terms, o.Active,
	).Scan(&o.ID, &o.LockedAmount, &o.CreatedAt, &o.UpdatedAt)
}

func (r *OfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var o models.Offer
	err := scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id), &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

type OfferFilter struct {
	SellerID       *uuid.UUID
	CryptoCurrency *string
	FiatCurrency   *string
	PaymentMethod  *string
	ActiveOnly     bool
	Limit          int
	Offset         int
}

func (r *OfferRepo) List(ctx context.Context, f OfferFilter) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.SellerID != nil {
		where = append(where, fmt.Sprintf("seller_id = $%d", argIdx))
		args = append(args, *f.SellerID)
		argIdx++
	}
	if f.CryptoCurrency != nil {
		where = append(where, fmt.Sprintf("crypto_currency = $%d", argIdx))
		args = append(args, *f.CryptoCurrency)
		argIdx++
	}
	if f.FiatCurrency != nil {
		where = append(where, fmt.Sprintf("fiat_currency = $%d", argIdx))
		args = append(args, *f.FiatCurrency)
		argIdx++
	}
	if f.PaymentMethod != nil {
		where = append(where, fmt.Sprintf("$%d = ANY(payment_methods)", argIdx))
		args = append(args, *f.PaymentMethod)
		argIdx++
	}
	if f.ActiveOnly {
		where = append(where, "active AND crypto_amount - locked_amount > 0")
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := scanOffer(rows, &o); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, nil
}

// ReserveTx increments locked_amount for a new trade. The guard keeps the
// locked_amount <= crypto_amount invariant under concurrency; false means
// the offer no longer has that much available.
func (r *OfferRepo) ReserveTx(ctx context.Context, db DB, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE offers
		SET locked_amount = locked_amount + $1, updated_at = now()
		WHERE id = $2 AND active AND crypto_amount - locked_amount >= $1
	`, amount, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseReserveTx returns a reservation when the trade is cancelled or
// expires; the crypto goes back into the offer's available amount.
func (r *OfferRepo) ReleaseReserveTx(ctx context.Context, db DB, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE offers
		SET locked_amount = locked_amount - $1, updated_at = now()
		WHERE id = $2 AND locked_amount >= $1
	`, amount, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ConsumeReserveTx burns a reservation on completion: both the posted amount
// and the lock shrink, since the crypto left the offer for good.
func (r *OfferRepo) ConsumeReserveTx(ctx context.Context, db DB, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE offers
		SET crypto_amount = crypto_amount - $1, locked_amount = locked_amount - $1, updated_at = now()
		WHERE id = $2 AND locked_amount >= $1
	`, amount, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Deactivate soft-deletes the offer; only allowed when nothing is reserved.
func (r *OfferRepo) Deactivate(ctx context.Context, id, sellerID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE offers SET active = false, updated_at = now()
		WHERE id = $1 AND seller_id = $2 AND locked_amount = 0
	`, id, sellerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
