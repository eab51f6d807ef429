// Package apperr defines the business-rule errors surfaced by the trade,
// escrow and dispute services. Handlers map them to HTTP statuses in one
// place; services wrap them with context via fmt.Errorf("%w", ...) so
// callers can test with errors.Is.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrInvalidTransition: the requested status change is not permitted
	// from the trade's current state. Also returned when a concurrent
	// caller won the compare-and-swap, which is what makes double-release
	// impossible.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInsufficientBalance: available funds cannot cover the requested
	// escrow lock. Never raised on release/refund since the locked amount
	// was reserved up front.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnauthorized: caller is not the buyer/seller/admin the action
	// requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDuplicateDispute: an open dispute already exists for the trade.
	ErrDuplicateDispute = errors.New("dispute already open for this trade")

	// ErrTradeAlreadyClosed: the trade is in a terminal state.
	ErrTradeAlreadyClosed = errors.New("trade already closed")

	// ErrExpired: the payment window has passed; the trade is treated as
	// already cancelled for authorization purposes.
	ErrExpired = errors.New("trade expired")

	// ErrNotFound: the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)

// HTTPStatus maps a business error to its response code. Unknown errors are
// treated as internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrDuplicateDispute),
		errors.Is(err, ErrTradeAlreadyClosed),
		errors.Is(err, ErrExpired):
		return fiber.StatusConflict
	case errors.Is(err, ErrInsufficientBalance):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// IsBusiness reports whether err belongs to the taxonomy above, i.e. is safe
// to surface verbatim in the response detail.
func IsBusiness(err error) bool {
	return HTTPStatus(err) != fiber.StatusInternalServerError
}
