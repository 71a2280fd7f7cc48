package handlers

import (
	"context"
	"palcontent/internal/app"
	"palcontent/internal/services"

	"github.com/gofiber/fiber/v2"
)

type reverseGeocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*services.GeocodeResult, error)
}

type GeocodeHandler struct {
	Handler
	geocoder reverseGeocoder
}

func NewGeocodeHandler(app app.App, router fiber.Router) *GeocodeHandler {
	return &GeocodeHandler{
		geocoder: app.Services.Geocode,
		Handler:  newHandler(app, router, "geocode_handler"),
	}
}

func (h *GeocodeHandler) Register() {
	h.router.Get("/geocode/reverse", h.reverse)
}

func (h *GeocodeHandler) reverse(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat", 999)
	lng := c.QueryFloat("lng", 999)
	if !services.ValidCoordinates(lat, lng) {
		return badRequest(c, "lat and lng must be valid coordinates")
	}

	result, err := h.geocoder.Reverse(c.UserContext(), lat, lng)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":    "Could not resolve an address for this location, enter it manually",
			"details":  err.Error(),
			"fallback": "manual",
		})
	}
	return c.JSON(result)
}
