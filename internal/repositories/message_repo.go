package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p2p-exchange/backend/internal/models"
)

// MessageRepo is append-only: trade chat rows are never updated or deleted.
type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Append(ctx context.Context, m *models.TradeMessage) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO trade_messages (trade_id, sender_id, sender_role, message, attachment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, m.TradeID, m.SenderID, m.SenderRole, m.Message, m.Attachment).Scan(&m.ID, &m.CreatedAt)
}

func (r *MessageRepo) ListByTrade(ctx context.Context, tradeID uuid.UUID, limit, offset int) ([]models.TradeMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, trade_id, sender_id, sender_role, message, attachment, created_at
		FROM trade_messages WHERE trade_id = $1
		ORDER BY created_at LIMIT $2 OFFSET $3
	`, tradeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.TradeMessage
	for rows.Next() {
		var m models.TradeMessage
		if err := rows.Scan(&m.ID, &m.TradeID, &m.SenderID, &m.SenderRole, &m.Message, &m.Attachment, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}
