package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/p2p-exchange/backend/internal/apperr"
	"github.com/p2p-exchange/backend/internal/config"
	"github.com/p2p-exchange/backend/internal/events"
	"github.com/p2p-exchange/backend/internal/models"
	"github.com/p2p-exchange/backend/internal/rbac"
	"github.com/p2p-exchange/backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TradeService owns the trade lifecycle. Every status change is a
// compare-and-swap on the current status inside a transaction that also
// carries the matching escrow movement, so at most one terminal transition
// ever succeeds per trade.
type TradeService struct {
	pool        *pgxpool.Pool
	tradeRepo   *repositories.TradeRepo
	offerRepo   *repositories.OfferRepo
	messageRepo *repositories.MessageRepo
	auditRepo   *repositories.AuditRepo
	escrow      *EscrowService
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger
}

func NewTradeService(
	pool *pgxpool.Pool,
	tradeRepo *repositories.TradeRepo,
	offerRepo *repositories.OfferRepo,
	messageRepo *repositories.MessageRepo,
	auditRepo *repositories.AuditRepo,
	escrow *EscrowService,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *TradeService {
	return &TradeService{
		pool:        pool,
		tradeRepo:   tradeRepo,
		offerRepo:   offerRepo,
		messageRepo: messageRepo,
		auditRepo:   auditRepo,
		escrow:      escrow,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
	}
}

func (s *TradeService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// authorize resolves the actor's per-trade role and checks it against the
// permission table. Non-participants get the same error as participants
// lacking the permission.
func authorize(trade *models.Trade, actorID uuid.UUID, permission string) (string, error) {
	role := trade.RoleOf(actorID)
	if role == "" || !rbac.HasPermission(role, permission) {
		return "", fmt.Errorf("%w: %s is not permitted for this user on trade %s", apperr.ErrUnauthorized, permission, trade.ID)
	}
	return role, nil
}

// requireStatus rejects user actions arriving from the wrong lifecycle
// stage. The transition map alone is too permissive for this: it also
// encodes the disputed -> completed/cancelled edges that belong to
// arbitration, and a participant must not be able to walk those.
func requireStatus(trade *models.Trade, want, action string) error {
	if trade.Status != want {
		return fmt.Errorf("%w: %s requires %s, trade is %s", apperr.ErrInvalidTransition, action, want, trade.Status)
	}
	return nil
}

// transitionTx performs the CAS and writes the audit row. A lost CAS is the
// concurrency guard firing, reported as ErrInvalidTransition.
func (s *TradeService) transitionTx(ctx context.Context, db repositories.DB, trade *models.Trade, to string, actorID *uuid.UUID, actorType string) error {
	if !models.IsValidTransition(trade.Status, to) {
		return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, trade.Status, to)
	}

	ok, err := s.tradeRepo.UpdateStatusTx(ctx, db, trade.ID, trade.Status, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: trade %s left %s concurrently", apperr.ErrInvalidTransition, trade.ID, trade.Status)
	}

	oldStatus := trade.Status
	trade.Status = to

	return s.auditRepo.LogTx(ctx, db, models.AuditLog{
		ActorUserID: actorID,
		ActorType:   actorType,
		Action:      fmt.Sprintf("trade_status_%s_to_%s", oldStatus, to),
		EntityType:  "trade",
		EntityID:    &trade.ID,
		Meta:        map[string]any{"old_status": oldStatus, "new_status": to},
	})
}

func (s *TradeService) publishStatus(ctx context.Context, trade *models.Trade, oldStatus string) {
	_ = s.publisher.Publish(ctx, events.StreamTrade, events.Event{
		Type: events.EventTradeStatusChanged,
		Payload: map[string]any{
			"trade_id":   trade.ID.String(),
			"buyer_id":   trade.BuyerID.String(),
			"seller_id":  trade.SellerID.String(),
			"old_status": oldStatus,
			"new_status": trade.Status,
		},
	})
}

type CreateTradeInput struct {
	OfferID       uuid.UUID
	CryptoAmount  decimal.Decimal
	PaymentMethod string
	// PricePerUnit is resolved by the caller (fixed offers use the offer
	// value, floating ones the current market rate).
	PricePerUnit decimal.Decimal
}

// CreateTrade opens a trade against an offer: the seller's crypto moves into
// escrow and the offer's available amount shrinks, atomically with the
// trade row insert.
func (s *TradeService) CreateTrade(ctx context.Context, buyerID uuid.UUID, input CreateTradeInput) (*models.Trade, error) {
	offer, err := s.offerRepo.GetByID(ctx, input.OfferID)
	if err != nil {
		return nil, fmt.Errorf("%w: offer %s", apperr.ErrNotFound, input.OfferID)
	}

	if !offer.Active {
		return nil, fmt.Errorf("%w: offer is no longer active", apperr.ErrNotFound)
	}
	if offer.SellerID == buyerID {
		return nil, fmt.Errorf("%w: cannot trade against your own offer", apperr.ErrUnauthorized)
	}
	if input.CryptoAmount.LessThan(offer.MinAmount) || input.CryptoAmount.GreaterThan(offer.MaxAmount) {
		return nil, fmt.Errorf("amount %s outside offer limits %s-%s",
			input.CryptoAmount, offer.MinAmount, offer.MaxAmount)
	}
	if !offer.AcceptsPaymentMethod(input.PaymentMethod) {
		return nil, fmt.Errorf("payment method %q not accepted by this offer", input.PaymentMethod)
	}
	if input.PricePerUnit.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("price per unit must be positive")
	}

	now := time.Now()
	trade := &models.Trade{
		OfferID:        offer.ID,
		BuyerID:        buyerID,
		SellerID:       offer.SellerID,
		Status:         models.TradeStatusPendingPayment,
		CryptoCurrency: offer.CryptoCurrency,
		FiatCurrency:   offer.FiatCurrency,
		CryptoAmount:   input.CryptoAmount,
		PricePerUnit:   input.PricePerUnit,
		FiatAmount:     input.CryptoAmount.Mul(input.PricePerUnit).Round(2),
		PaymentMethod:  input.PaymentMethod,
		ExpiresAt:      now.Add(s.cfg.PaymentWindow),
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		reserved, err := s.offerRepo.ReserveTx(ctx, tx, offer.ID, input.CryptoAmount)
		if err != nil {
			return err
		}
		if !reserved {
			return fmt.Errorf("%w: offer has only %s %s available",
				apperr.ErrInsufficientBalance, offer.Available(), offer.CryptoCurrency)
		}

		if err := s.escrow.Lock(ctx, tx, offer.SellerID, offer.CryptoCurrency, input.CryptoAmount); err != nil {
			return err
		}

		if err := s.tradeRepo.CreateTx(ctx, tx, trade); err != nil {
			return err
		}

		return s.auditRepo.LogTx(ctx, tx, models.AuditLog{
			ActorUserID: &buyerID,
			ActorType:   "user",
			Action:      "trade_created",
			EntityType:  "trade",
			EntityID:    &trade.ID,
			Meta: map[string]any{
				"offer_id":      offer.ID.String(),
				"crypto_amount": trade.CryptoAmount.String(),
				"fiat_amount":   trade.FiatAmount.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishStatus(ctx, trade, "")
	return trade, nil
}

// MarkPaid is the buyer's declaration that fiat payment was sent. No funds
// move; the crypto stays escrowed.
func (s *TradeService) MarkPaid(ctx context.Context, tradeID, actorID uuid.UUID) error {
	trade, err := s.getTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	if _, err := authorize(trade, actorID, rbac.PermMarkPaid); err != nil {
		return err
	}
	if trade.IsExpired(time.Now()) {
		s.expireNow(ctx, trade)
		return fmt.Errorf("%w: payment window closed at %s", apperr.ErrExpired, trade.ExpiresAt.Format(time.RFC3339))
	}

	oldStatus := trade.Status
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		return s.transitionTx(ctx, tx, trade, models.TradeStatusPaymentSent, &actorID, "user")
	})
	if err != nil {
		return err
	}

	s.publishStatus(ctx, trade, oldStatus)
	return nil
}

// Release completes the trade: seller confirms fiat receipt and the escrowed
// crypto moves to the buyer. The offer's reserved amount is consumed.
func (s *TradeService) Release(ctx context.Context, tradeID, actorID uuid.UUID) error {
	trade, err := s.getTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	if _, err := authorize(trade, actorID, rbac.PermReleaseCrypto); err != nil {
		return err
	}
	if err := requireStatus(trade, models.TradeStatusPaymentSent, "release"); err != nil {
		return err
	}

	oldStatus := trade.Status
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.transitionTx(ctx, tx, trade, models.TradeStatusCompleted, &actorID, "user"); err != nil {
			return err
		}
		return s.settleCompleted(ctx, tx, trade)
	})
	if err != nil {
		trade.Status = oldStatus
		return err
	}

	s.publishStatus(ctx, trade, oldStatus)
	return nil
}

// Cancel is the buyer backing out before claiming payment. After mark-paid
// only seller release or a dispute can close the trade.
func (s *TradeService) Cancel(ctx context.Context, tradeID, actorID uuid.UUID) error {
	trade, err := s.getTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	if _, err := authorize(trade, actorID, rbac.PermCancelTrade); err != nil {
		return err
	}
	if err := requireStatus(trade, models.TradeStatusPendingPayment, "cancel"); err != nil {
		return err
	}

	oldStatus := trade.Status
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.transitionTx(ctx, tx, trade, models.TradeStatusCancelled, &actorID, "user"); err != nil {
			return err
		}
		return s.settleCancelled(ctx, tx, trade)
	})
	if err != nil {
		trade.Status = oldStatus
		return err
	}

	s.publishStatus(ctx, trade, oldStatus)
	return nil
}

// Expire applies the system-initiated cancellation for a trade whose payment
// window has passed. Losing the CAS is not an error: the sweep may race a
// user action or a second sweep, and exactly one of them wins.
func (s *TradeService) Expire(ctx context.Context, tradeID uuid.UUID) (bool, error) {
	trade, err := s.getTrade(ctx, tradeID)
	if err != nil {
		return false, err
	}
	if trade.Status != models.TradeStatusPendingPayment {
		return false, nil
	}
	if !time.Now().After(trade.ExpiresAt) {
		return false, nil
	}

	oldStatus := trade.Status
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.transitionTx(ctx, tx, trade, models.TradeStatusCancelled, nil, "system"); err != nil {
			return err
		}
		return s.settleCancelled(ctx, tx, trade)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}

	s.publishStatus(ctx, trade, oldStatus)
	return true, nil
}

// expireNow is the opportunistic in-request expiry; the periodic sweep is
// the backstop. Failures here are logged, not surfaced: the caller's action
// was already rejected as Expired.
func (s *TradeService) expireNow(ctx context.Context, trade *models.Trade) {
	if _, err := s.Expire(ctx, trade.ID); err != nil {
		s.log.Error("inline expiry failed", zap.String("trade_id", trade.ID.String()), zap.Error(err))
	}
}

// settleCompleted moves escrow to the buyer and consumes the offer reserve.
// Runs inside the transition transaction.
func (s *TradeService) settleCompleted(ctx context.Context, tx pgx.Tx, trade *models.Trade) error {
	if err := s.escrow.ReleaseTo(ctx, tx, trade.BuyerID, trade.SellerID, trade.CryptoCurrency, trade.CryptoAmount); err != nil {
		return err
	}
	ok, err := s.offerRepo.ConsumeReserveTx(ctx, tx, trade.OfferID, trade.CryptoAmount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("offer %s reserve underflow on completion", trade.OfferID)
	}
	return nil
}

// settleCancelled refunds escrow to the seller and returns the offer
// reserve. Runs inside the transition transaction.
func (s *TradeService) settleCancelled(ctx context.Context, tx pgx.Tx, trade *models.Trade) error {
	if err := s.escrow.Refund(ctx, tx, trade.SellerID, trade.CryptoCurrency, trade.CryptoAmount); err != nil {
		return err
	}
	ok, err := s.offerRepo.ReleaseReserveTx(ctx, tx, trade.OfferID, trade.CryptoAmount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("offer %s reserve underflow on cancellation", trade.OfferID)
	}
	return nil
}

func (s *TradeService) getTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	trade, err := s.tradeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: trade %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return trade, nil
}

// GetTrade returns the trade with participant names plus seconds remaining
// in the payment window, for the trade page's polling fetch.
func (s *TradeService) GetTrade(ctx context.Context, id, viewerID uuid.UUID, viewerIsAdmin bool) (*models.TradeWithCounterparty, error) {
	trade, err := s.tradeRepo.GetByIDWithParties(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: trade %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	if trade.RoleOf(viewerID) == "" && !viewerIsAdmin {
		return nil, fmt.Errorf("%w: not a participant of this trade", apperr.ErrUnauthorized)
	}
	return trade, nil
}

func (s *TradeService) ListTrades(ctx context.Context, f repositories.TradeFilter) ([]models.Trade, error) {
	return s.tradeRepo.List(ctx, f)
}

func (s *TradeService) GetTradeEvents(ctx context.Context, tradeID uuid.UUID) ([]models.AuditLog, error) {
	return s.auditRepo.GetByEntity(ctx, "trade", tradeID, 100, 0)
}

// PostMessage appends to the trade chat. Admins may write once the trade is
// disputed; buyer and seller may write while the trade is open.
func (s *TradeService) PostMessage(ctx context.Context, tradeID, senderID uuid.UUID, senderIsAdmin bool, text string, attachment *string) (*models.TradeMessage, error) {
	if text == "" && attachment == nil {
		return nil, fmt.Errorf("message text is required")
	}

	trade, err := s.getTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	role := trade.RoleOf(senderID)
	if role == "" {
		if !senderIsAdmin || trade.Status != models.TradeStatusDisputed {
			return nil, fmt.Errorf("%w: not a participant of this trade", apperr.ErrUnauthorized)
		}
		role = models.RoleAdmin
	}

	msg := &models.TradeMessage{
		TradeID:    tradeID,
		SenderID:   senderID,
		SenderRole: role,
		Message:    text,
		Attachment: attachment,
	}
	if err := s.messageRepo.Append(ctx, msg); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.StreamTrade, events.Event{
		Type: events.EventTradeMessage,
		Payload: map[string]any{
			"trade_id":    tradeID.String(),
			"buyer_id":    trade.BuyerID.String(),
			"seller_id":   trade.SellerID.String(),
			"message_id":  msg.ID.String(),
			"sender_role": role,
		},
	})
	return msg, nil
}

// ListMessages returns the chat log, participant- or admin-gated.
func (s *TradeService) ListMessages(ctx context.Context, tradeID, viewerID uuid.UUID, viewerIsAdmin bool, limit, offset int) ([]models.TradeMessage, error) {
	trade, err := s.getTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.RoleOf(viewerID) == "" && !viewerIsAdmin {
		return nil, fmt.Errorf("%w: not a participant of this trade", apperr.ErrUnauthorized)
	}
	return s.messageRepo.ListByTrade(ctx, tradeID, limit, offset)
}
