package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// RegisterHandler creates an account.
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.Registration
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		user, err := deps.Auth.Register(c.UserContext(), in)
		if err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// LoginHandler signs in and hands out a session token, as a cookie and in
// the body for non-browser clients.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in loginRequest
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		sess, token, err := deps.Auth.Login(c.UserContext(), in.Email, in.Password)
		if err != nil {
			return errFrom(c, err)
		}

		setSessionCookie(c, deps.Cookie, token)
		return c.JSON(sessionResponse{
			Token:     token,
			ExpiresAt: sess.UpdatedAt.Add(deps.Cookie.TTL),
			User:      sess.User,
		})
	}
}

// LogoutHandler ends the current session.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := currentSession(c)
		if err := deps.Auth.Logout(c.UserContext(), sess.ID); err != nil {
			return errFrom(c, err)
		}
		clearSessionCookie(c, deps.Cookie)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MeHandler returns the signed-in user, refreshed from the backend.
func MeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := deps.Auth.CurrentUser(c.UserContext(), currentSession(c))
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				clearSessionCookie(c, deps.Cookie)
			}
			return errFrom(c, err)
		}
		return c.JSON(user)
	}
}

// ListVehiclesHandler returns the vehicle catalog.
func ListVehiclesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Bookings.Vehicles())
	}
}

// GetVehicleHandler returns one vehicle class.
func GetVehicleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := domain.LookupVehicle(c.Params("type"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(v)
	}
}

// PackageTypesHandler returns the selectable package categories.
func PackageTypesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Bookings.PackageTypes())
	}
}

// StartBookingHandler selects a vehicle and returns the booking screen.
func StartBookingHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		VehicleType string `json:"vehicle_type"`
	}
	return func(c *fiber.Ctx) error {
		var in request
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if in.VehicleType == "" {
			return errBadRequest(c, "vehicle_type is required")
		}

		start, err := deps.Bookings.StartBooking(c.UserContext(), currentSession(c), in.VehicleType)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(start)
	}
}

// SubmitBookingHandler places the booking and returns its summary.
func SubmitBookingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.BookingInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		summary, err := deps.Bookings.SubmitBooking(c.UserContext(), currentSession(c), in)
		if err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(summary)
	}
}

// BookingSummaryHandler returns the confirmation summary.
func BookingSummaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := deps.Bookings.Summary(c.UserContext(), currentSession(c))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(summary)
	}
}

// ConfirmBookingHandler confirms the booking and returns the success view.
func ConfirmBookingHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		PaymentMethod string `json:"payment_method"`
	}
	return func(c *fiber.Ctx) error {
		var in request
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		success, err := deps.Bookings.ConfirmBooking(c.UserContext(), currentSession(c), in.PaymentMethod)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(success)
	}
}
