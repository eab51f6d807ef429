package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/p2p-exchange/backend/internal/apperr"
	"github.com/p2p-exchange/backend/internal/events"
	"github.com/p2p-exchange/backend/internal/models"
	"github.com/p2p-exchange/backend/internal/rbac"
	"github.com/p2p-exchange/backend/internal/repositories"
	"go.uber.org/zap"
)

// DisputeService freezes a trade's normal buyer/seller transitions and hands
// resolution to an admin. Resolution is the only path out of disputed.
type DisputeService struct {
	trades      *TradeService
	disputeRepo *repositories.DisputeRepo
	auditRepo   *repositories.AuditRepo
	publisher   events.Publisher
	log         *zap.Logger
}

func NewDisputeService(
	trades *TradeService,
	disputeRepo *repositories.DisputeRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	log *zap.Logger,
) *DisputeService {
	return &DisputeService{
		trades:      trades,
		disputeRepo: disputeRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		log:         log,
	}
}

// Open raises a dispute on a live trade. The trade flips to disputed in the
// same transaction as the dispute insert; escrow stays locked untouched.
func (s *DisputeService) Open(ctx context.Context, tradeID, actorID uuid.UUID, reason string) (*models.Dispute, error) {
	if len(reason) < models.MinDisputeReasonLen {
		return nil, fmt.Errorf("dispute reason must be at least %d characters", models.MinDisputeReasonLen)
	}

	trade, err := s.trades.getTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	role := trade.RoleOf(actorID)
	if !rbac.HasPermission(role, rbac.PermOpenDispute) {
		return nil, fmt.Errorf("%w: only the buyer or seller can open a dispute", apperr.ErrUnauthorized)
	}
	if models.IsTerminalStatus(trade.Status) {
		return nil, fmt.Errorf("%w: trade is %s", apperr.ErrTradeAlreadyClosed, trade.Status)
	}
	if trade.Status == models.TradeStatusDisputed {
		if existing, lookupErr := s.disputeRepo.GetOpenByTradeID(ctx, tradeID); lookupErr == nil && existing != nil {
			return nil, fmt.Errorf("%w: dispute %s already open for this trade", apperr.ErrDuplicateDispute, existing.ID)
		}
		return nil, apperr.ErrDuplicateDispute
	}
	if trade.IsExpired(time.Now()) {
		s.trades.expireNow(ctx, trade)
		return nil, fmt.Errorf("%w: payment window closed, trade auto-cancelled", apperr.ErrExpired)
	}

	dispute := &models.Dispute{
		TradeID:    tradeID,
		OpenedBy:   actorID,
		OpenerRole: role,
		Reason:     reason,
		Status:     models.DisputeStatusOpen,
	}

	oldStatus := trade.Status
	err = s.trades.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.trades.transitionTx(ctx, tx, trade, models.TradeStatusDisputed, &actorID, "user"); err != nil {
			return err
		}
		if err := s.disputeRepo.CreateTx(ctx, tx, dispute); err != nil {
			// Unique partial index on open disputes; a concurrent opener
			// hitting it surfaces as the duplicate guard.
			return fmt.Errorf("%w: %v", apperr.ErrDuplicateDispute, err)
		}
		return s.auditRepo.LogTx(ctx, tx, models.AuditLog{
			ActorUserID: &actorID,
			ActorType:   "user",
			Action:      "dispute_opened",
			EntityType:  "dispute",
			EntityID:    &dispute.ID,
			Meta:        map[string]any{"trade_id": tradeID.String(), "opener_role": role},
		})
	})
	if err != nil {
		trade.Status = oldStatus
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.StreamTrade, events.Event{
		Type: events.EventDisputeOpened,
		Payload: map[string]any{
			"trade_id":   tradeID.String(),
			"dispute_id": dispute.ID.String(),
			"buyer_id":   trade.BuyerID.String(),
			"seller_id":  trade.SellerID.String(),
			"opened_by":  actorID.String(),
		},
	})
	return dispute, nil
}

// Get returns the dispute with its evidence, gated to trade participants and
// admins.
func (s *DisputeService) Get(ctx context.Context, disputeID, viewerID uuid.UUID, viewerIsAdmin bool) (*models.DisputeWithEvidence, error) {
	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if !viewerIsAdmin {
		trade, err := s.trades.getTrade(ctx, dispute.TradeID)
		if err != nil {
			return nil, err
		}
		if trade.RoleOf(viewerID) == "" {
			return nil, fmt.Errorf("%w: not a participant of this dispute", apperr.ErrUnauthorized)
		}
	}

	evidence, err := s.disputeRepo.ListEvidence(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	return &models.DisputeWithEvidence{Dispute: *dispute, Evidence: evidence}, nil
}

// AddEvidence appends an evidence item; prior evidence is never replaced.
func (s *DisputeService) AddEvidence(ctx context.Context, disputeID, uploaderID uuid.UUID, evidenceType, description string, fileURL *string) (*models.DisputeEvidence, error) {
	if !models.IsValidEvidenceType(evidenceType) {
		return nil, fmt.Errorf("invalid evidence type %q, must be one of: screenshot, bank_statement, message", evidenceType)
	}
	if description == "" {
		return nil, fmt.Errorf("evidence description is required")
	}

	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status != models.DisputeStatusOpen {
		return nil, fmt.Errorf("%w: dispute is already resolved", apperr.ErrTradeAlreadyClosed)
	}

	trade, err := s.trades.getTrade(ctx, dispute.TradeID)
	if err != nil {
		return nil, err
	}
	if !rbac.HasPermission(trade.RoleOf(uploaderID), rbac.PermAddEvidence) {
		return nil, fmt.Errorf("%w: only the buyer or seller can submit evidence", apperr.ErrUnauthorized)
	}

	evidence := &models.DisputeEvidence{
		DisputeID:    disputeID,
		UploadedBy:   uploaderID,
		EvidenceType: evidenceType,
		Description:  description,
		FileURL:      fileURL,
	}
	if err := s.disputeRepo.AddEvidence(ctx, evidence); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &uploaderID,
		ActorType:   "user",
		Action:      "dispute_evidence_added",
		EntityType:  "dispute",
		EntityID:    &disputeID,
		Meta:        map[string]any{"evidence_type": evidenceType},
	})
	return evidence, nil
}

// Resolve closes the dispute by admin decision. The dispute CAS, trade CAS
// and escrow movement share one transaction; a concurrent resolution loses
// the CAS and is rejected, so funds move exactly once.
func (s *DisputeService) Resolve(ctx context.Context, disputeID, adminID uuid.UUID, outcome string) error {
	if !models.IsValidDisputeOutcome(outcome) {
		return fmt.Errorf("invalid outcome %q, must be release_to_buyer or refund_to_seller", outcome)
	}

	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return err
	}
	if dispute.Status != models.DisputeStatusOpen {
		return fmt.Errorf("%w: dispute already resolved", apperr.ErrInvalidTransition)
	}

	trade, err := s.trades.getTrade(ctx, dispute.TradeID)
	if err != nil {
		return err
	}

	target := models.TradeStatusCancelled
	if outcome == models.DisputeOutcomeReleaseToBuyer {
		target = models.TradeStatusCompleted
	}

	oldStatus := trade.Status
	err = s.trades.withTx(ctx, func(tx pgx.Tx) error {
		ok, err := s.disputeRepo.MarkResolvedTx(ctx, tx, disputeID, outcome, adminID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: dispute resolved concurrently", apperr.ErrInvalidTransition)
		}

		if err := s.trades.transitionTx(ctx, tx, trade, target, &adminID, "admin"); err != nil {
			return err
		}

		if target == models.TradeStatusCompleted {
			if err := s.trades.settleCompleted(ctx, tx, trade); err != nil {
				return err
			}
		} else {
			if err := s.trades.settleCancelled(ctx, tx, trade); err != nil {
				return err
			}
		}

		return s.auditRepo.LogTx(ctx, tx, models.AuditLog{
			ActorUserID: &adminID,
			ActorType:   "admin",
			Action:      "dispute_resolved",
			EntityType:  "dispute",
			EntityID:    &disputeID,
			Meta:        map[string]any{"outcome": outcome, "trade_id": trade.ID.String()},
		})
	})
	if err != nil {
		trade.Status = oldStatus
		return err
	}

	_ = s.publisher.Publish(ctx, events.StreamTrade, events.Event{
		Type: events.EventDisputeResolved,
		Payload: map[string]any{
			"trade_id":   trade.ID.String(),
			"dispute_id": disputeID.String(),
			"buyer_id":   trade.BuyerID.String(),
			"seller_id":  trade.SellerID.String(),
			"outcome":    outcome,
		},
	})
	s.trades.publishStatus(ctx, trade, oldStatus)
	return nil
}

func (s *DisputeService) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	return s.disputeRepo.ListOpen(ctx, limit, offset)
}

func (s *DisputeService) getDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: dispute %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return dispute, nil
}
