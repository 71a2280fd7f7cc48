package handlers

import (
	"errors"
	"palcontent/internal/app"
	"palcontent/internal/services"
	"palcontent/internal/types"

	submitCodeController "palcontent/internal/controllers/submitCodes"

	"github.com/gofiber/fiber/v2"
)

type SubmitCodeHandler struct {
	Handler
	controller submitCodeController.SubmitCodeControllerInterface
}

type validateCodeRequest struct {
	Code string `json:"code"`
}

func NewSubmitCodeHandler(app app.App, router fiber.Router) *SubmitCodeHandler {
	return &SubmitCodeHandler{
		controller: app.Controllers.SubmitCode,
		Handler:    newHandler(app, router, "submit_code_handler"),
	}
}

func (h *SubmitCodeHandler) Register() {
	h.router.Post("/validate-submit-code", h.validate)
}

func (h *SubmitCodeHandler) validate(c *fiber.Ctx) error {
	var req validateCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"valid": false, "error": "Invalid request body"})
	}

	result, err := h.controller.Validate(c.UserContext(), c.IP(), req.Code)
	if errors.Is(err, services.ErrRateLimited) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"valid": false, "error": "Too many attempts, try again shortly"})
	}
	if errors.Is(err, types.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"valid": false, "error": "Submit code not recognized"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
