package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

const sessionLocal = "session"

// sessionToken reads the token from the session cookie or a Bearer header.
func sessionToken(c *fiber.Ctx, cookie string) string {
	if cookie != "" {
		if v := c.Cookies(cookie); v != "" {
			return v
		}
	}
	if h := c.Get(fiber.HeaderAuthorization); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireSession rejects requests without a live session.
func RequireSession(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Resolve(c.UserContext(), sessionToken(c, deps.Cookie.Name))
		if err != nil {
			return errFrom(c, err)
		}
		c.Locals(sessionLocal, sess)
		return c.Next()
	}
}

// OptionalSession resolves a session when one is presented and carries on
// anonymously otherwise.
func OptionalSession(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := sessionToken(c, deps.Cookie.Name); token != "" {
			if sess, err := deps.Sessions.Resolve(c.UserContext(), token); err == nil {
				c.Locals(sessionLocal, sess)
			}
		}
		return c.Next()
	}
}

// currentSession returns the session resolved by RequireSession or
// OptionalSession, or nil.
func currentSession(c *fiber.Ctx) *domain.Session {
	sess, _ := c.Locals(sessionLocal).(*domain.Session)
	return sess
}

func setSessionCookie(c *fiber.Ctx, ck SessionCookie, token string) {
	if ck.Name == "" {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     ck.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ck.TTL / time.Second),
		Secure:   ck.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c *fiber.Ctx, ck SessionCookie) {
	if ck.Name == "" {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     ck.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   ck.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
