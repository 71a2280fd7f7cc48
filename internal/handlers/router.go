package handlers

import (
	"errors"
	"palcontent/internal/app"
	"palcontent/internal/handlers/middleware"
	"palcontent/internal/models"
	"palcontent/internal/services"
	"palcontent/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	if app.Websocket != nil {
		setupWebSocketRoute(router, app)
	}
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := router.Group("/api")
	HealthHandler(api, app.Config, app.Database)

	// Public and webhook routes register before the authenticated group.
	NewSubmitCodeHandler(*app, api).Register()
	NewTestimonialHandler(*app, api).RegisterPublic()
	NewJobSubmissionHandler(*app, api).RegisterWebhook()

	protected := api.Group("", app.Middleware.RequireAuth(app.Services.Auth))
	NewJobSubmissionHandler(*app, protected).Register()
	NewUserHandler(*app, protected).Register()
	NewTechnicianHandler(*app, protected).Register()
	NewSMSHandler(*app, protected).Register()
	NewTestimonialHandler(*app, protected).Register()
	NewTechHubHandler(*app, protected).Register()
	NewGeocodeHandler(*app, protected).Register()
	NewLoggingHandler(*app, protected).Register()

	return nil
}

func newHandler(app app.App, router fiber.Router, file string) Handler {
	return Handler{
		log:        logger.New("handlers").File(file),
		router:     router,
		middleware: app.Middleware,
	}
}

// respondError maps domain errors onto statuses. Upstream failures keep
// their message so the dashboard can show why a provider call failed.
func respondError(c *fiber.Ctx, err error) error {
	var fieldErr *types.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   types.ErrValidation.Error(),
			"details": fieldErr.Details,
		})
	case errors.Is(err, types.ErrInvalidCode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"valid": false, "error": err.Error()})
	case errors.Is(err, types.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, types.ErrApprovedDelete):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, types.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, types.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	case errors.Is(err, types.ErrInvalidSignature):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, types.ErrUnsupportedUpload):
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, try again later"})
	case errors.Is(err, types.ErrUpstream), errors.Is(err, types.ErrNotConfigured):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"traceId": middleware.GetTraceID(c),
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
}

// optionalUUID parses a query value; empty means unset.
func optionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
