package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p2p-exchange/backend/internal/models"
	"github.com/shopspring/decimal"
)

type BalanceRepo struct {
	pool *pgxpool.Pool
}

func NewBalanceRepo(pool *pgxpool.Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

func (r *BalanceRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Balance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, currency, available, locked, updated_at
		FROM balances WHERE user_id = $1 ORDER BY currency
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []models.Balance
	for rows.Next() {
		var b models.Balance
		if err := rows.Scan(&b.ID, &b.UserID, &b.Currency, &b.Available, &b.Locked, &b.UpdatedAt); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, nil
}

func (r *BalanceRepo) Get(ctx context.Context, userID uuid.UUID, currency string) (*models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, currency, available, locked, updated_at
		FROM balances WHERE user_id = $1 AND currency = $2
	`, userID, currency).Scan(&b.ID, &b.UserID, &b.Currency, &b.Available, &b.Locked, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetForUpdateTx loads (and creates if absent) the balance row with a row
// lock, serializing all mutations per (user, currency) for the duration of
// the enclosing transaction.
func (r *BalanceRepo) GetForUpdateTx(ctx context.Context, db DB, userID uuid.UUID, currency string) (*models.Balance, error) {
	if _, err := db.Exec(ctx, `
		INSERT INTO balances (user_id, currency) VALUES ($1, $2)
		ON CONFLICT (user_id, currency) DO NOTHING
	`, userID, currency); err != nil {
		return nil, err
	}

	var b models.Balance
	err := db.QueryRow(ctx, `
		SELECT id, user_id, currency, available, locked, updated_at
		FROM balances WHERE user_id = $1 AND currency = $2
		FOR UPDATE
	`, userID, currency).Scan(&b.ID, &b.UserID, &b.Currency, &b.Available, &b.Locked, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// MoveAvailableToLockedTx reserves amount for escrow. Returns false when the
// available balance cannot cover it; the guard is in the WHERE clause so a
// concurrent spender cannot slip between check and update.
func (r *BalanceRepo) MoveAvailableToLockedTx(ctx context.Context, db DB, userID uuid.UUID, currency string, amount decimal.Decimal) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE balances
		SET available = available - $1, locked = locked + $1, updated_at = now()
		WHERE user_id = $2 AND currency = $3 AND available >= $1
	`, amount, userID, currency)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MoveLockedToAvailableTx returns escrowed funds to the same user.
func (r *BalanceRepo) MoveLockedToAvailableTx(ctx context.Context, db DB, userID uuid.UUID, currency string, amount decimal.Decimal) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE balances
		SET locked = locked - $1, available = available + $1, updated_at = now()
		WHERE user_id = $2 AND currency = $3 AND locked >= $1
	`, amount, userID, currency)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DebitLockedTx removes amount from a user's locked sub-balance (the escrow
// side of a cross-user transfer).
func (r *BalanceRepo) DebitLockedTx(ctx context.Context, db DB, userID uuid.UUID, currency string, amount decimal.Decimal) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE balances
		SET locked = locked - $1, updated_at = now()
		WHERE user_id = $2 AND currency = $3 AND locked >= $1
	`, amount, userID, currency)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CreditAvailable adds amount to a user's available sub-balance outside any
// escrow transaction (deposits).
func (r *BalanceRepo) CreditAvailable(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) error {
	return r.CreditAvailableTx(ctx, r.pool, userID, currency, amount)
}

// CreditAvailableTx adds amount to a user's available sub-balance, creating
// the row if needed.
func (r *BalanceRepo) CreditAvailableTx(ctx context.Context, db DB, userID uuid.UUID, currency string, amount decimal.Decimal) error {
	_, err := db.Exec(ctx, `
		INSERT INTO balances (user_id, currency, available)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, currency) DO UPDATE SET
			available = balances.available + EXCLUDED.available,
			updated_at = now()
	`, userID, currency, amount)
	return err
}
