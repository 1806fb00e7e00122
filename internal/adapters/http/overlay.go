package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cargoconnect/gateway/internal/core/domain"
	"github.com/cargoconnect/gateway/internal/pkg/geospatial"
)

// OverlayHandler renders a map overlay. The route may be given as
// coordinates in the body or as an encoded polyline in ?polyline=, which
// takes precedence. A signed-in client gets its last reported viewport.
func OverlayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.OverlayRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		if encoded := c.Query("polyline"); encoded != "" {
			route, err := geospatial.DecodeRoute(encoded)
			if err != nil {
				return errBadRequest(c, "invalid polyline: "+err.Error())
			}
			req.Route = route
		}

		if req.InitialViewState != nil {
			if err := req.InitialViewState.Validate(); err != nil {
				return errFrom(c, err)
			}
		}

		return c.JSON(deps.Overlay.Render(c.UserContext(), currentSession(c), req))
	}
}

// TrackViewportHandler stores the viewport the client reports after the
// user pans or zooms.
func TrackViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vp domain.Viewport
		if err := c.BodyParser(&vp); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Overlay.TrackViewport(c.UserContext(), currentSession(c).ID, vp); err != nil {
			return errFrom(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
