package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p2p-exchange/backend/internal/models"
)

type TradeRepo struct {
	pool *pgxpool.Pool
}

func NewTradeRepo(pool *pgxpool.Pool) *TradeRepo {
	return &TradeRepo{pool: pool}
}

const tradeColumns = `id, offer_id, buyer_id, seller_id, status, crypto_currency, fiat_currency,
	       crypto_amount, fiat_amount, price_per_unit, payment_method, expires_at,
	       paid_at, completed_at, cancelled_at, created_at, updated_at`

func scanTrade(row interface{ Scan(...any) error }, t *models.Trade) error {
	return row.Scan(&t.ID, &t.OfferID, &t.BuyerID, &t.SellerID, &t.Status, &t.CryptoCurrency, &t.FiatCurrency,
		&t.CryptoAmount, &t.FiatAmount, &t.PricePerUnit, &t.PaymentMethod, &t.ExpiresAt,
		&t.PaidAt, &t.CompletedAt, &t.CancelledAt, &t.CreatedAt, &t.UpdatedAt)
}

// CreateTx inserts the trade inside the same transaction that locks the
// seller's escrow and reserves the offer amount.
func (r *TradeRepo) CreateTx(ctx context.Context, db DB, t *models.Trade) error {
	return db.QueryRow(ctx, `
		INSERT INTO trades (offer_id, buyer_id, seller_id, status, crypto_currency, fiat_currency,
		                    crypto_amount, fiat_amount, price_per_unit, payment_method, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, t.OfferID, t.BuyerID, t.SellerID, t.Status, t.CryptoCurrency, t.FiatCurrency,
		t.CryptoAmount, t.FiatAmount, t.PricePerUnit, t.PaymentMethod, t.ExpiresAt,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TradeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	var t models.Trade
	err := scanTrade(r.pool.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id), &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TradeRepo) GetByIDWithParties(ctx context.Context, id uuid.UUID) (*models.TradeWithCounterparty, error) {
	var t models.TradeWithCounterparty
	err := r.pool.QueryRow(ctx, `
		SELECT t.id, t.offer_id, t.buyer_id, t.seller_id, t.status, t.crypto_currency, t.fiat_currency,
		       t.crypto_amount, t.fiat_amount, t.price_per_unit, t.payment_method, t.expires_at,
		       t.paid_at, t.completed_at, t.cancelled_at, t.created_at, t.updated_at,
		       b.username, s.username
		FROM trades t
		JOIN users b ON b.id = t.buyer_id
		JOIN users s ON s.id = t.seller_id
		WHERE t.id = $1
	`, id).Scan(&t.ID, &t.OfferID, &t.BuyerID, &t.SellerID, &t.Status, &t.CryptoCurrency, &t.FiatCurrency,
		&t.CryptoAmount, &t.FiatAmount, &t.PricePerUnit, &t.PaymentMethod, &t.ExpiresAt,
		&t.PaidAt, &t.CompletedAt, &t.CancelledAt, &t.CreatedAt, &t.UpdatedAt,
		&t.BuyerName, &t.SellerName)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatusTx performs the compare-and-swap at the heart of the state
// machine: the row only changes if it is still in the expected status.
// Returns false when a concurrent transition already moved it.
func (r *TradeRepo) UpdateStatusTx(ctx context.Context, db DB, id uuid.UUID, from, to string) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE trades SET status = $1, updated_at = now(),
			paid_at      = CASE WHEN $1 = 'payment_sent' THEN now() ELSE paid_at END,
			completed_at = CASE WHEN $1 = 'completed'    THEN now() ELSE completed_at END,
			cancelled_at = CASE WHEN $1 = 'cancelled'    THEN now() ELSE cancelled_at END
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type TradeFilter struct {
	UserID   *uuid.UUID // buyer or seller
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
	OfferID  *uuid.UUID
	Status   *string
	Limit    int
	Offset   int
}

func (r *TradeRepo) List(ctx context.Context, f TradeFilter) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.UserID != nil {
		where = append(where, fmt.Sprintf("(buyer_id = $%d OR seller_id = $%d)", argIdx, argIdx))
		args = append(args, *f.UserID)
		argIdx++
	}
	if f.BuyerID != nil {
		where = append(where, fmt.Sprintf("buyer_id = $%d", argIdx))
		args = append(args, *f.BuyerID)
		argIdx++
	}
	if f.SellerID != nil {
		where = append(where, fmt.Sprintf("seller_id = $%d", argIdx))
		args = append(args, *f.SellerID)
		argIdx++
	}
	if f.OfferID != nil {
		where = append(where, fmt.Sprintf("offer_id = $%d", argIdx))
		args = append(args, *f.OfferID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
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

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := scanTrade(rows, &t); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// GetExpiredPending lists pending_payment trades whose payment window has
// passed. The sweep re-checks status under CAS, so reading stale rows here
// is harmless.
func (r *TradeRepo) GetExpiredPending(ctx context.Context, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE status = 'pending_payment' AND expires_at < now()
		ORDER BY expires_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := scanTrade(rows, &t); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, nil
}
