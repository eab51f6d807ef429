package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/p2p-exchange/backend/internal/http/dto"
	"github.com/p2p-exchange/backend/internal/middleware"
	"github.com/p2p-exchange/backend/internal/models"
	"github.com/p2p-exchange/backend/internal/repositories"
	"github.com/p2p-exchange/backend/internal/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TradeHandler struct {
	tradeService *services.TradeService
	offerService *services.OfferService
	log          *zap.Logger
}

func NewTradeHandler(tradeService *services.TradeService, offerService *services.OfferService, log *zap.Logger) *TradeHandler {
	return &TradeHandler{tradeService: tradeService, offerService: offerService, log: log}
}

func (h *TradeHandler) CreateTrade(c *fiber.Ctx) error {
	var req dto.CreateTradeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		return badRequest(c, "invalid offer_id")
	}
	amount, err := decimal.NewFromString(req.CryptoAmount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return badRequest(c, "crypto_amount must be a positive decimal")
	}
	if req.PaymentMethod == "" {
		return badRequest(c, "payment_method is required")
	}

	offer, err := h.offerService.GetOffer(c.Context(), offerID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	price, err := h.offerService.ResolvePrice(c.Context(), offer)
	if err != nil {
		return respondError(c, h.log, err)
	}

	buyerID := middleware.GetUserID(c)
	trade, err := h.tradeService.CreateTrade(c.Context(), buyerID, services.CreateTradeInput{
		OfferID:       offerID,
		CryptoAmount:  amount,
		PaymentMethod: req.PaymentMethod,
		PricePerUnit:  price,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{Success: true, Data: trade})
}

func (h *TradeHandler) GetTrade(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid trade id")
	}

	trade, err := h.tradeService.GetTrade(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, h.log, err)
	}

	resp := dto.TradeDetailResponse{TradeWithCounterparty: *trade}
	if trade.Status == models.TradeStatusPendingPayment {
		if remaining := time.Until(trade.ExpiresAt); remaining > 0 {
			resp.TimeRemainingSeconds = int64(remaining.Seconds())
		}
	}

	return c.JSON(dto.SuccessResponse{Success: true, Data: resp})
}

func (h *TradeHandler) ListTrades(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	filter := repositories.TradeFilter{
		Limit: 20,
	}

	// role=buyer / role=seller narrows to one side, anything else means both
	switch c.Query("role") {
	case models.RoleBuyer:
		filter.BuyerID = &userID
	case models.RoleSeller:
		filter.SellerID = &userID
	default:
		filter.UserID = &userID
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	trades, err := h.tradeService.ListTrades(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: trades})
}

func (h *TradeHandler) MarkPaid(c *fiber.Ctx) error {
	return h.tradeAction(c, h.tradeService.MarkPaid)
}

func (h *TradeHandler) ReleaseCrypto(c *fiber.Ctx) error {
	return h.tradeAction(c, h.tradeService.Release)
}

func (h *TradeHandler) CancelTrade(c *fiber.Ctx) error {
	return h.tradeAction(c, h.tradeService.Cancel)
}

func (h *TradeHandler) tradeAction(c *fiber.Ctx, action func(ctx context.Context, tradeID, actorID uuid.UUID) error) error {
	var req dto.TradeActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	tradeID, err := uuid.Parse(req.ID())
	if err != nil {
		return badRequest(c, "trade_id is required")
	}

	if err := action(c.Context(), tradeID, middleware.GetUserID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *TradeHandler) PostMessage(c *fiber.Ctx) error {
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid trade id")
	}

	var req dto.PostMessageRequest
	if err := c.BodyParser(&req); err != nil || req.Body() == "" {
		return badRequest(c, "text is required")
	}

	msg, err := h.tradeService.PostMessage(c.Context(), tradeID, middleware.GetUserID(c), middleware.IsAdmin(c), req.Body(), req.AttachmentURL)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{Success: true, Data: msg})
}

func (h *TradeHandler) ListMessages(c *fiber.Ctx) error {
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid trade id")
	}

	limit, offset := 100, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	msgs, err := h.tradeService.ListMessages(c.Context(), tradeID, middleware.GetUserID(c), middleware.IsAdmin(c), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: msgs})
}

func (h *TradeHandler) GetTradeEvents(c *fiber.Ctx) error {
	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid trade id")
	}

	// visibility piggybacks on the trade read gate
	if _, err := h.tradeService.GetTrade(c.Context(), tradeID, middleware.GetUserID(c), middleware.IsAdmin(c)); err != nil {
		return respondError(c, h.log, err)
	}

	entries, err := h.tradeService.GetTradeEvents(c.Context(), tradeID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: entries})
}
