package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/p2p-exchange/backend/internal/models"
	"github.com/p2p-exchange/backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletService is the user-facing view of the ledger: balance listing and
// deposits. Escrow movements go through EscrowService, never through here.
type WalletService struct {
	balanceRepo *repositories.BalanceRepo
	auditRepo   *repositories.AuditRepo
	log         *zap.Logger
}

func NewWalletService(balanceRepo *repositories.BalanceRepo, auditRepo *repositories.AuditRepo, log *zap.Logger) *WalletService {
	return &WalletService{balanceRepo: balanceRepo, auditRepo: auditRepo, log: log}
}

func (s *WalletService) ListBalances(ctx context.Context, userID uuid.UUID) ([]models.Balance, error) {
	return s.balanceRepo.ListByUser(ctx, userID)
}

// Deposit credits a user's available balance. Stands in for the external
// deposit pipeline; nothing here touches locked funds.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) (*models.Balance, error) {
	if currency == "" {
		return nil, fmt.Errorf("currency is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("deposit amount must be positive, got %s", amount)
	}

	if err := s.balanceRepo.CreditAvailable(ctx, userID, currency, amount); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "balance_deposited",
		EntityType:  "balance",
		EntityID:    &userID,
		Meta:        map[string]any{"currency": currency, "amount": amount.String()},
	})

	s.log.Info("deposit credited",
		zap.String("user_id", userID.String()),
		zap.String("currency", currency),
		zap.String("amount", amount.String()),
	)
	return s.balanceRepo.Get(ctx, userID, currency)
}
