package handlers

import (
	"palcontent/internal/app"
	"palcontent/internal/handlers/middleware"

	techHubController "palcontent/internal/controllers/techHub"

	"github.com/gofiber/fiber/v2"
)

type TechHubHandler struct {
	Handler
	controller techHubController.TechHubControllerInterface
}

func NewTechHubHandler(app app.App, router fiber.Router) *TechHubHandler {
	return &TechHubHandler{
		controller: app.Controllers.TechHub,
		Handler:    newHandler(app, router, "tech_hub_handler"),
	}
}

func (h *TechHubHandler) Register() {
	hub := h.router.Group("/tech-hub")
	hub.Get("/messages", h.messages)
	hub.Post("/messages", h.post)
	hub.Post("/job-share", h.shareJob)
}

func (h *TechHubHandler) messages(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	franchiseeID, err := optionalUUID(c.Query("franchiseeId"))
	if err != nil {
		return badRequest(c, "Invalid franchiseeId")
	}

	messages, err := h.controller.Messages(c.UserContext(), user, franchiseeID, c.Query("room"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *TechHubHandler) post(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req techHubController.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	messages, err := h.controller.Post(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"messages": messages})
}

func (h *TechHubHandler) shareJob(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req techHubController.ShareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	message, err := h.controller.ShareJob(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}
