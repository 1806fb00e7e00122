package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

func GetProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Profile.Profile(c.UserContext(), currentSession(c))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(p)
	}
}

func UpdateProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.ProfileUpdate
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		user, err := deps.Profile.UpdateProfile(c.UserContext(), currentSession(c), in)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(user)
	}
}

func ChangePasswordHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.PasswordChange
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Profile.ChangePassword(c.UserContext(), currentSession(c), in); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteAccountHandler deletes the account and signs the browser out.
func DeleteAccountHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Profile.DeleteAccount(c.UserContext(), currentSession(c)); err != nil {
			return errFrom(c, err)
		}
		clearSessionCookie(c, deps.Cookie)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func GetSettingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Profile.Settings(c.UserContext(), currentSession(c))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(s)
	}
}

func UpdateNotificationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.NotificationSettings
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		s, err := deps.Profile.UpdateNotifications(c.UserContext(), currentSession(c), in)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(s)
	}
}

func UpdatePreferencesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.Preferences
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		s, err := deps.Profile.UpdatePreferences(c.UserContext(), currentSession(c), in)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(s)
	}
}

// ContactSupportHandler files a support ticket.
func ContactSupportHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Message string `json:"message"`
	}
	return func(c *fiber.Ctx) error {
		var in request
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		t, err := deps.Profile.ContactSupport(c.UserContext(), currentSession(c), in.Message)
		if err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}
