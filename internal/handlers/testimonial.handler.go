package handlers

import (
	"palcontent/internal/app"
	"palcontent/internal/handlers/middleware"

	testimonialController "palcontent/internal/controllers/testimonials"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const TrackingStatusHeader = "X-Tracking-Status"

type TestimonialHandler struct {
	Handler
	controller testimonialController.TestimonialControllerInterface
}

func NewTestimonialHandler(app app.App, router fiber.Router) *TestimonialHandler {
	return &TestimonialHandler{
		controller: app.Controllers.Testimonial,
		Handler:    newHandler(app, router, "testimonial_handler"),
	}
}

// RegisterPublic mounts the customer-facing routes that carry no session.
func (h *TestimonialHandler) RegisterPublic() {
	h.router.Post("/testimonials", h.create)
	h.router.Get("/reviews/r/:token", h.redirect)
}

func (h *TestimonialHandler) Register() {
	testimonials := h.router.Group("/testimonials")
	testimonials.Get("/", h.list)
	testimonials.Post("/request", h.requestReview)
	testimonials.Patch("/:id", h.moderate)
}

func (h *TestimonialHandler) create(c *fiber.Ctx) error {
	var req testimonialController.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.controller.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *TestimonialHandler) list(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	franchiseeID, err := optionalUUID(c.Query("franchiseeId"))
	if err != nil {
		return badRequest(c, "Invalid franchiseeId")
	}

	testimonials, err := h.controller.List(c.UserContext(), user, franchiseeID, c.Query("status", "all"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"testimonials": testimonials})
}

func (h *TestimonialHandler) moderate(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid testimonial id")
	}

	var req testimonialController.ModerateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	testimonial, err := h.controller.Moderate(c.UserContext(), user, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(testimonial)
}

// requestReview reports the recorded delivery outcome even when the
// provider refused the message.
func (h *TestimonialHandler) requestReview(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req testimonialController.ReviewRequestInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.controller.RequestReview(c.UserContext(), user, req)
	if err != nil {
		if result != nil {
			return c.Status(fiber.StatusBadGateway).JSON(result)
		}
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *TestimonialHandler) redirect(c *fiber.Ctx) error {
	result, err := h.controller.Redirect(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(TrackingStatusHeader, string(result.TrackingStatus))
	return c.Redirect(result.URL, fiber.StatusFound)
}
