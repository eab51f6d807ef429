package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/p2p-exchange/backend/internal/http/dto"
	"github.com/p2p-exchange/backend/internal/middleware"
	"github.com/p2p-exchange/backend/internal/services"
	"go.uber.org/zap"
)

type DisputeHandler struct {
	disputeService *services.DisputeService
	log            *zap.Logger
}

func NewDisputeHandler(disputeService *services.DisputeService, log *zap.Logger) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService, log: log}
}

// RaiseDispute serves both /raise-dispute and the older /disputes/initiate
// route; the request type accepts either id field name.
func (h *DisputeHandler) RaiseDispute(c *fiber.Ctx) error {
	var req dto.RaiseDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	tradeID, err := uuid.Parse(req.ID())
	if err != nil {
		return badRequest(c, "trade_id is required")
	}

	dispute, err := h.disputeService.Open(c.Context(), tradeID, middleware.GetUserID(c), req.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{Success: true, Data: dispute})
}

func (h *DisputeHandler) GetDispute(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid dispute id")
	}

	dispute, err := h.disputeService.Get(c.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: dispute})
}

func (h *DisputeHandler) AddEvidence(c *fiber.Ctx) error {
	var req dto.AddEvidenceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	disputeID, err := uuid.Parse(req.DisputeID)
	if err != nil {
		return badRequest(c, "dispute_id is required")
	}

	ev, err := h.disputeService.AddEvidence(c.Context(), disputeID, middleware.GetUserID(c), req.EvidenceType, req.Description, req.FileURL)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{Success: true, Data: ev})
}

func (h *DisputeHandler) ListOpenDisputes(c *fiber.Ctx) error {
	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	disputes, err := h.disputeService.ListOpen(c.Context(), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: disputes})
}

func (h *DisputeHandler) ResolveDispute(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid dispute id")
	}

	var req dto.ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil || req.Outcome == "" {
		return badRequest(c, "outcome is required")
	}

	if err := h.disputeService.Resolve(c.Context(), id, middleware.GetUserID(c), req.Outcome); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
