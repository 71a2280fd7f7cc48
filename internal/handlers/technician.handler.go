package handlers

import (
	"palcontent/internal/app"
	"palcontent/internal/handlers/middleware"

	technicianController "palcontent/internal/controllers/technicians"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TechnicianHandler struct {
	Handler
	controller technicianController.TechnicianControllerInterface
}

func NewTechnicianHandler(app app.App, router fiber.Router) *TechnicianHandler {
	return &TechnicianHandler{
		controller: app.Controllers.Technician,
		Handler:    newHandler(app, router, "technician_handler"),
	}
}

func (h *TechnicianHandler) Register() {
	technicians := h.router.Group("/technicians")
	technicians.Get("/", h.list)
	technicians.Post("/", h.create)
	technicians.Post("/invite", h.invite)
	technicians.Put("/:id", h.update)
	technicians.Delete("/:id", h.delete)
}

func (h *TechnicianHandler) list(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	franchiseeID, err := optionalUUID(c.Query("franchiseeId"))
	if err != nil {
		return badRequest(c, "Invalid franchiseeId")
	}

	technicians, err := h.controller.List(c.UserContext(), user, franchiseeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"technicians": technicians})
}

func (h *TechnicianHandler) create(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req technicianController.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	technician, err := h.controller.Create(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(technician)
}

func (h *TechnicianHandler) update(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid technician id")
	}

	var req technicianController.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	technician, err := h.controller.Update(c.UserContext(), user, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(technician)
}

func (h *TechnicianHandler) delete(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid technician id")
	}

	if err := h.controller.Delete(c.UserContext(), user, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TechnicianHandler) invite(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req technicianController.InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.controller.Invite(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
