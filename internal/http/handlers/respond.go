package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/p2p-exchange/backend/internal/apperr"
	"github.com/p2p-exchange/backend/internal/http/dto"
	"github.com/p2p-exchange/backend/internal/middleware"
	"go.uber.org/zap"
)

// respondError maps a service error to the response envelope. Business errors
// surface verbatim; anything else is logged and hidden behind a 500.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := apperr.HTTPStatus(err)
	detail := "internal error"
	if apperr.IsBusiness(err) {
		detail = err.Error()
	} else {
		log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
	}
	return c.Status(status).JSON(dto.ErrorResponse{
		Detail:    detail,
		RequestID: middleware.GetRequestID(c),
	})
}

func badRequest(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Detail: detail})
}
