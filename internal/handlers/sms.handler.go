package handlers

import (
	"palcontent/internal/app"
	"palcontent/internal/handlers/middleware"
	"palcontent/internal/models"

	smsController "palcontent/internal/controllers/sms"

	"github.com/gofiber/fiber/v2"
)

type SMSHandler struct {
	Handler
	controller smsController.SMSControllerInterface
}

func NewSMSHandler(app app.App, router fiber.Router) *SMSHandler {
	return &SMSHandler{
		controller: app.Controllers.SMS,
		Handler:    newHandler(app, router, "sms_handler"),
	}
}

func (h *SMSHandler) Register() {
	twilio := h.router.Group(
		"/twilio",
		h.middleware.RequireRole(models.RoleAdmin, models.RoleFranchisee),
	)
	twilio.Get("/config", h.getConfig)
	twilio.Post("/config", h.saveConfig)
	twilio.Post("/test", h.test)
	twilio.Post("/send-sms", h.send)
}

func (h *SMSHandler) getConfig(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	franchiseeID, err := optionalUUID(c.Query("franchiseeId"))
	if err != nil {
		return badRequest(c, "Invalid franchiseeId")
	}

	view, err := h.controller.GetConfig(c.UserContext(), user, franchiseeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (h *SMSHandler) saveConfig(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req smsController.ConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.controller.SaveConfig(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (h *SMSHandler) test(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req smsController.TestRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.controller.Test(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *SMSHandler) send(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req smsController.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.controller.Send(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
