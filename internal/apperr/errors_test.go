package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, fiber.StatusNotFound},
		{ErrUnauthorized, fiber.StatusForbidden},
		{ErrInvalidTransition, fiber.StatusConflict},
		{ErrDuplicateDispute, fiber.StatusConflict},
		{ErrTradeAlreadyClosed, fiber.StatusConflict},
		{ErrExpired, fiber.StatusConflict},
		{ErrInsufficientBalance, fiber.StatusUnprocessableEntity},
		{errors.New("pg down"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHTTPStatusWrapped(t *testing.T) {
	wrapped := fmt.Errorf("trade abc: %w", ErrInvalidTransition)
	if got := HTTPStatus(wrapped); got != fiber.StatusConflict {
		t.Errorf("HTTPStatus(wrapped) = %d, want %d", got, fiber.StatusConflict)
	}
	if !IsBusiness(wrapped) {
		t.Error("wrapped sentinel should be a business error")
	}
	if IsBusiness(errors.New("boom")) {
		t.Error("unknown error should not be a business error")
	}
}
