package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p2p-exchange/backend/internal/models"
)

type DisputeRepo struct {
	pool *pgxpool.Pool
}

func NewDisputeRepo(pool *pgxpool.Pool) *DisputeRepo {
	return &DisputeRepo{pool: pool}
}

const disputeColumns = `id, trade_id, opened_by, opener_role, reason, status, outcome,
	       resolved_by, resolved_at, created_at`

func scanDispute(row interface{ Scan(...any) error }, d *models.Dispute) error {
	return row.Scan(&d.ID, &d.TradeID, &d.OpenedBy, &d.OpenerRole, &d.Reason, &d.Status, &d.Outcome,
		&d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt)
}

// CreateTx inserts the dispute in the same transaction that flips the trade
// to disputed. A partial unique index on (trade_id) WHERE status = 'open'
// backs the one-open-dispute-per-trade guard.
func (r *DisputeRepo) CreateTx(ctx context.Context, db DB, d *models.Dispute) error {
	return db.QueryRow(ctx, `
		INSERT INTO disputes (trade_id, opened_by, opener_role, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, d.TradeID, d.OpenedBy, d.OpenerRole, d.Reason, d.Status).Scan(&d.ID, &d.CreatedAt)
}

func (r *DisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := scanDispute(r.pool.QueryRow(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id), &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetOpenByTradeID returns (nil, nil) when no open dispute exists.
func (r *DisputeRepo) GetOpenByTradeID(ctx context.Context, tradeID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := scanDispute(r.pool.QueryRow(ctx, `
		SELECT `+disputeColumns+` FROM disputes WHERE trade_id = $1 AND status = 'open'
	`, tradeID), &d)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MarkResolvedTx records the outcome inside the resolution transaction. The
// status guard makes double-resolution a no-op the service rejects.
func (r *DisputeRepo) MarkResolvedTx(ctx context.Context, db DB, id uuid.UUID, outcome string, adminID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE disputes SET status = 'resolved', outcome = $1, resolved_by = $2, resolved_at = now()
		WHERE id = $3 AND status = 'open'
	`, outcome, adminID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DisputeRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+disputeColumns+` FROM disputes WHERE status = 'open'
		ORDER BY created_at LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disputes []models.Dispute
	for rows.Next() {
		var d models.Dispute
		if err := scanDispute(rows, &d); err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, nil
}

// ---- Evidence ----

func (r *DisputeRepo) AddEvidence(ctx context.Context, e *models.DisputeEvidence) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO dispute_evidence (dispute_id, uploaded_by, evidence_type, description, file_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.DisputeID, e.UploadedBy, e.EvidenceType, e.Description, e.FileURL).Scan(&e.ID, &e.CreatedAt)
}

func (r *DisputeRepo) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeEvidence, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, dispute_id, uploaded_by, evidence_type, description, file_url, created_at
		FROM dispute_evidence WHERE dispute_id = $1 ORDER BY created_at
	`, disputeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evidence []models.DisputeEvidence
	for rows.Next() {
		var e models.DisputeEvidence
		if err := rows.Scan(&e.ID, &e.DisputeID, &e.UploadedBy, &e.EvidenceType, &e.Description, &e.FileURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		evidence = append(evidence, e)
	}
	return evidence, nil
}
