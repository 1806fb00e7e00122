package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int               `json:"status"`
	Code      string            `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string            `json:"message"` // Human-readable message
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
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
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "bad_gateway", msg)
}

// errValidation returns a 422 error listing every invalid field.
func errValidation(c *fiber.Ctx, v *domain.ValidationError) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(422).JSON(APIError{
		Status:    422,
		Code:      "validation_failed",
		Message:   v.Error(),
		Fields:    v.Fields,
		RequestID: reqID,
	})
}

// errFrom maps a usecase error to its HTTP response.
func errFrom(c *fiber.Ctx, err error) error {
	var v *domain.ValidationError
	if errors.As(err, &v) {
		return errValidation(c, v)
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		switch {
		case be.Status == 401:
			return errUnauthorized(c, be.Message)
		case be.Status == 404:
			return errNotFound(c, be.Message)
		case be.Status == 409:
			return errConflict(c, be.Message)
		case be.Status >= 400 && be.Status < 500:
			return newError(c, be.Status, "bad_request", be.Message)
		}
		logging.FromContext(c.UserContext()).Error("backend error", "status", be.Status, "message", be.Message)
		return errBadGateway(c, "the delivery service is having trouble, please try again")
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return errUnauthorized(c, "not authenticated")
	case errors.Is(err, domain.ErrInvalidVehicleType):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "not found")
	case errors.Is(err, domain.ErrNoActiveBooking):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrBackendUnavailable):
		logging.FromContext(c.UserContext()).Error("backend unavailable", "error", err)
		return errBadGateway(c, "the delivery service is unavailable, please try again")
	}

	logging.FromContext(c.UserContext()).Error("request failed", "error", err)
	return errInternal(c, "internal error")
}
