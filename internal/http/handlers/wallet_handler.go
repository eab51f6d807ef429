package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/p2p-exchange/backend/internal/http/dto"
	"github.com/p2p-exchange/backend/internal/middleware"
	"github.com/p2p-exchange/backend/internal/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService *services.WalletService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, log: log}
}

// GET /me/balances
func (h *WalletHandler) ListBalances(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	balances, err := h.walletService.ListBalances(c.Context(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: balances})
}

// POST /me/deposit
func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	var req dto.DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Currency == "" {
		return badRequest(c, "currency is required")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return badRequest(c, "amount must be a decimal string")
	}

	userID := middleware.GetUserID(c)
	balance, err := h.walletService.Deposit(c.Context(), userID, req.Currency, amount)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: balance})
}
