package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "conflict", msg)
}

// errRouteUnavailable returns a 404 when no route could be computed.
func errRouteUnavailable(c *fiber.Ctx) error {
	return newError(c, fiber.StatusNotFound, "route_unavailable", domain.ErrRouteUnavailable.Error())
}

// errDomain maps service errors onto HTTP responses.
func errDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidBounds), errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrQueryUnavailable):
		LoggerFromCtx(c.UserContext()).Warn("place query unavailable", "error", err)
		return newError(c, fiber.StatusServiceUnavailable, "query_unavailable", "place data is temporarily unavailable")
	case errors.Is(err, domain.ErrRouteUnavailable):
		return errRouteUnavailable(c)
	case errors.Is(err, domain.ErrEmailTaken):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return errUnauthorized(c, err.Error())
	}
	LoggerFromCtx(c.UserContext()).Error("unhandled error", slog.Any("error", err))
	return errInternal(c, "internal error")
}
