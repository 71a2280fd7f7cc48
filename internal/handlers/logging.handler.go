package handlers

import (
	"palcontent/internal/app"
	"palcontent/internal/handlers/middleware"
	"palcontent/internal/types"

	loggingController "palcontent/internal/controllers/logging"

	"github.com/gofiber/fiber/v2"
)

type LoggingHandler struct {
	Handler
	loggingController loggingController.LoggingControllerInterface
}

func NewLoggingHandler(app app.App, router fiber.Router) *LoggingHandler {
	return &LoggingHandler{
		loggingController: app.Controllers.Logging,
		Handler:           newHandler(app, router, "logging_handler"),
	}
}

func (h *LoggingHandler) Register() {
	h.router.Post("/logs", h.handleLogBatch)
}

func (h *LoggingHandler) handleLogBatch(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("handleLogBatch")

	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req types.LogBatchRequest
	if err := c.BodyParser(&req); err != nil {
		log.Er("Failed to parse log batch request", err)
		return badRequest(c, "Invalid request body")
	}

	response, err := h.loggingController.ProcessLogBatch(c.UserContext(), req, user.ID.String())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(response)
}
