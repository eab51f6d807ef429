package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/p2p-exchange/backend/internal/http/dto"
	"github.com/p2p-exchange/backend/internal/middleware"
	"github.com/p2p-exchange/backend/internal/repositories"
	"github.com/p2p-exchange/backend/internal/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OfferHandler struct {
	offerService *services.OfferService
	log          *zap.Logger
}

func NewOfferHandler(offerService *services.OfferService, log *zap.Logger) *OfferHandler {
	return &OfferHandler{offerService: offerService, log: log}
}

func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	var req dto.CreateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	input := services.CreateOfferInput{
		CryptoCurrency: req.CryptoCurrency,
		FiatCurrency:   req.FiatCurrency,
		PriceType:      req.PriceType,
		PaymentMethods: req.PaymentMethods,
		Terms:          req.Terms,
	}
	var err error
	if input.PriceValue, err = decimal.NewFromString(req.PriceValue); err != nil {
		return badRequest(c, "invalid price_value")
	}
	if input.MinAmount, err = decimal.NewFromString(req.MinAmount); err != nil {
		return badRequest(c, "invalid min_amount")
	}
	if input.MaxAmount, err = decimal.NewFromString(req.MaxAmount); err != nil {
		return badRequest(c, "invalid max_amount")
	}
	if input.CryptoAmount, err = decimal.NewFromString(req.CryptoAmount); err != nil {
		return badRequest(c, "invalid crypto_amount")
	}

	sellerID := middleware.GetUserID(c)
	offer, err := h.offerService.CreateOffer(c.Context(), sellerID, input)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{Success: true, Data: offer})
}

func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	filter := repositories.OfferFilter{
		ActiveOnly: true,
		Limit:      20,
	}
	applyOfferQuery(c, &filter)

	offers, err := h.offerService.ListOffers(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: offers})
}

func (h *OfferHandler) MyOffers(c *fiber.Ctx) error {
	sellerID := middleware.GetUserID(c)
	filter := repositories.OfferFilter{
		SellerID: &sellerID,
		Limit:    50,
	}
	applyOfferQuery(c, &filter)

	offers, err := h.offerService.ListOffers(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: offers})
}

func applyOfferQuery(c *fiber.Ctx, filter *repositories.OfferFilter) {
	if v := c.Query("crypto_currency"); v != "" {
		filter.CryptoCurrency = &v
	}
	if v := c.Query("fiat_currency"); v != "" {
		filter.FiatCurrency = &v
	}
	if v := c.Query("payment_method"); v != "" {
		filter.PaymentMethod = &v
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
}

func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid offer id")
	}

	offer, err := h.offerService.GetOffer(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: offer})
}

func (h *OfferHandler) DeleteOffer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid offer id")
	}

	sellerID := middleware.GetUserID(c)
	if err := h.offerService.DeleteOffer(c.Context(), id, sellerID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
