package handlers

import (
	"io"
	"palcontent/internal/app"
	"palcontent/internal/handlers/middleware"
	"palcontent/internal/services"

	userController "palcontent/internal/controllers/users"

	"github.com/gofiber/fiber/v2"
)

const avatarFormField = "avatar"

type UserHandler struct {
	Handler
	userController userController.UserControllerInterface
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	return &UserHandler{
		userController: app.Controllers.User,
		Handler:        newHandler(app, router, "user_handler"),
	}
}

func (h *UserHandler) Register() {
	h.router.Get("/profile", h.getProfile)
	h.router.Post("/profile", h.updateProfile)
	h.router.Post("/upload-avatar", h.uploadAvatar)
}

func (h *UserHandler) getProfile(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	return c.JSON(fiber.Map{"user": h.userController.GetProfile(c.UserContext(), user)})
}

func (h *UserHandler) updateProfile(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req userController.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	profile, err := h.userController.UpdateProfile(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": profile})
}

func (h *UserHandler) uploadAvatar(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("uploadAvatar")

	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	header, err := c.FormFile(avatarFormField)
	if err != nil {
		return badRequest(c, "Multipart field 'avatar' is required")
	}
	if header.Size > services.MaxAvatarBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "Avatar is too large"})
	}

	file, err := header.Open()
	if err != nil {
		log.Er("failed to open avatar upload", err, "userID", user.ID)
		return badRequest(c, "Unreadable upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxAvatarBytes+1))
	if err != nil {
		log.Er("failed to read avatar upload", err, "userID", user.ID)
		return badRequest(c, "Unreadable upload")
	}

	profile, err := h.userController.UploadAvatar(c.UserContext(), user, header.Header.Get("Content-Type"), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": profile})
}
