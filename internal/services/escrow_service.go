package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/p2p-exchange/backend/internal/apperr"
	"github.com/p2p-exchange/backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EscrowService moves value between available and locked sub-balances, and
// between users. Every method takes the caller's transaction: a fund
// movement must commit atomically with the trade status change that caused
// it, or not at all.
type EscrowService struct {
	balanceRepo *repositories.BalanceRepo
	log         *zap.Logger
}

func NewEscrowService(balanceRepo *repositories.BalanceRepo, log *zap.Logger) *EscrowService {
	return &EscrowService{balanceRepo: balanceRepo, log: log}
}

// Lock reserves amount of the seller's available balance for escrow.
func (s *EscrowService) Lock(ctx context.Context, db repositories.DB, sellerID uuid.UUID, currency string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("escrow lock amount must be positive, got %s", amount)
	}

	// Row lock first: creates the row if absent and serializes concurrent
	// mutations on this (user, currency).
	bal, err := s.balanceRepo.GetForUpdateTx(ctx, db, sellerID, currency)
	if err != nil {
		return fmt.Errorf("load seller balance: %w", err)
	}

	ok, err := s.balanceRepo.MoveAvailableToLockedTx(ctx, db, sellerID, currency, amount)
	if err != nil {
		return fmt.Errorf("lock escrow: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %s available, %s required",
			apperr.ErrInsufficientBalance, bal.Available, currency, amount)
	}

	s.log.Debug("escrow locked",
		zap.String("seller_id", sellerID.String()),
		zap.String("currency", currency),
		zap.String("amount", amount.String()),
	)
	return nil
}

// ReleaseTo transfers escrowed funds from the seller's locked balance into
// the buyer's available balance. Must never fail for a correctly locked
// trade; an underflow here means the ledger is corrupt, so the error aborts
// the enclosing transaction.
func (s *EscrowService) ReleaseTo(ctx context.Context, db repositories.DB, buyerID, sellerID uuid.UUID, currency string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("escrow release amount must be positive, got %s", amount)
	}

	if err := s.lockPair(ctx, db, buyerID, sellerID, currency); err != nil {
		return err
	}

	ok, err := s.balanceRepo.DebitLockedTx(ctx, db, sellerID, currency, amount)
	if err != nil {
		return fmt.Errorf("debit seller escrow: %w", err)
	}
	if !ok {
		return fmt.Errorf("escrow underflow: seller %s has less than %s %s locked", sellerID, amount, currency)
	}

	if err := s.balanceRepo.CreditAvailableTx(ctx, db, buyerID, currency, amount); err != nil {
		return fmt.Errorf("credit buyer: %w", err)
	}

	s.log.Debug("escrow released",
		zap.String("buyer_id", buyerID.String()),
		zap.String("seller_id", sellerID.String()),
		zap.String("currency", currency),
		zap.String("amount", amount.String()),
	)
	return nil
}

// Refund returns escrowed funds to the seller's available balance.
func (s *EscrowService) Refund(ctx context.Context, db repositories.DB, sellerID uuid.UUID, currency string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("escrow refund amount must be positive, got %s", amount)
	}

	if _, err := s.balanceRepo.GetForUpdateTx(ctx, db, sellerID, currency); err != nil {
		return fmt.Errorf("load seller balance: %w", err)
	}

	ok, err := s.balanceRepo.MoveLockedToAvailableTx(ctx, db, sellerID, currency, amount)
	if err != nil {
		return fmt.Errorf("refund escrow: %w", err)
	}
	if !ok {
		return fmt.Errorf("escrow underflow: seller %s has less than %s %s locked", sellerID, amount, currency)
	}
	return nil
}

// lockPair takes both balance row locks in a deterministic order so two
// opposing transfers cannot deadlock.
func (s *EscrowService) lockPair(ctx context.Context, db repositories.DB, a, b uuid.UUID, currency string) error {
	first, second := a, b
	if b.String() < a.String() {
		first, second = b, a
	}
	if _, err := s.balanceRepo.GetForUpdateTx(ctx, db, first, currency); err != nil {
		return fmt.Errorf("lock balance %s: %w", first, err)
	}
	if first != second {
		if _, err := s.balanceRepo.GetForUpdateTx(ctx, db, second, currency); err != nil {
			return fmt.Errorf("lock balance %s: %w", second, err)
		}
	}
	return nil
}
