package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cargoconnect/gateway/internal/core/domain"
)

// ListDeliveriesHandler returns the delivery history, newest first. With
// ?tab=active or ?tab=completed it returns that shipments tab instead.
func ListDeliveriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := currentSession(c)

		if tab := c.Query("tab"); tab != "" {
			list, err := deps.Deliveries.Shipments(c.UserContext(), sess, tab)
			if err != nil {
				return errFrom(c, err)
			}
			return c.JSON(list)
		}

		offset, limit := pageParams(c)
		items, total, err := deps.Deliveries.History(c.UserContext(), sess, offset, limit)
		if err != nil {
			return errFrom(c, err)
		}
		if items == nil {
			items = []domain.Delivery{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// GetDeliveryHandler returns one shipment with its timeline and map.
func GetDeliveryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sh, err := deps.Deliveries.Shipment(c.UserContext(), currentSession(c), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(sh)
	}
}

// TrackingHandler returns the live tracking view of a delivery.
func TrackingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tr, err := deps.Deliveries.Track(c.UserContext(), currentSession(c), c.Params("id"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(tr)
	}
}

// PublishTrackingHandler accepts a rider position and relays it to every
// client watching the delivery.
func PublishTrackingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u domain.TrackingUpdate
		if err := c.BodyParser(&u); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		u.TrackingID = c.Params("id")

		if err := deps.Deliveries.PublishTrackingUpdate(c.UserContext(), currentSession(c), &u); err != nil {
			return errFrom(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(u)
	}
}
