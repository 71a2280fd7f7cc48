package handlers

import (
	"palcontent/internal/app"
	"palcontent/internal/handlers/middleware"

	jobSubmissionController "palcontent/internal/controllers/jobSubmissions"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type JobSubmissionHandler struct {
	Handler
	controller    jobSubmissionController.JobSubmissionControllerInterface
	webhookSecret string
}

func NewJobSubmissionHandler(app app.App, router fiber.Router) *JobSubmissionHandler {
	return &JobSubmissionHandler{
		controller:    app.Controllers.JobSubmission,
		webhookSecret: app.Config.AIReportWebhookSecret,
		Handler:       newHandler(app, router, "job_submission_handler"),
	}
}

type validateStepRequest struct {
	Step int `json:"step"`
	jobSubmissionController.SubmissionDraft
}

type aiReportRequest struct {
	AIReport string `json:"aiReport"`
}

func (h *JobSubmissionHandler) RegisterWebhook() {
	h.router.Post(
		"/job-submissions/:id/ai-report",
		h.middleware.RequireWebhookSecret(h.webhookSecret),
		h.attachAIReport,
	)
}

func (h *JobSubmissionHandler) Register() {
	submissions := h.router.Group("/job-submissions")
	submissions.Get("/", h.list)
	submissions.Post("/", h.create)
	submissions.Patch("/", h.update)
	submissions.Delete("/", h.delete)
	submissions.Post("/validate-step", h.validateStep)
	submissions.Post("/photos/presign", h.presign)
	submissions.Get("/:id", h.get)
	submissions.Get("/:id/ai-report", h.getAIReport)
	submissions.Post("/:id/share", h.share)

	photos := h.router.Group("/franchisee-photos")
	photos.Get("/", h.listPhotos)
	photos.Patch("/", h.update)
	photos.Delete("/", h.delete)
}

func (h *JobSubmissionHandler) listFilter(c *fiber.Ctx) (jobSubmissionController.ListFilter, error) {
	filter := jobSubmissionController.ListFilter{
		Status:          c.Query("status"),
		Category:        c.Query("category"),
		IncludeArchived: c.QueryBool("includeArchived", false),
	}

	var err error
	if filter.TechnicianID, err = optionalUUID(c.Query("technicianId")); err != nil {
		return filter, err
	}
	if filter.FranchiseeID, err = optionalUUID(c.Query("franchiseeId")); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *JobSubmissionHandler) list(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	filter, err := h.listFilter(c)
	if err != nil {
		return badRequest(c, "Invalid id filter")
	}

	result, err := h.controller.List(c.UserContext(), user, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *JobSubmissionHandler) listPhotos(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	filter, err := h.listFilter(c)
	if err != nil {
		return badRequest(c, "Invalid id filter")
	}

	result, err := h.controller.ListPhotos(c.UserContext(), user, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *JobSubmissionHandler) create(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("job_submission_handler").Function("create")

	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var draft jobSubmissionController.SubmissionDraft
	if err := c.BodyParser(&draft); err != nil {
		log.Info("invalid submission body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	submission, err := h.controller.Create(c.UserContext(), user, draft)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(submission)
}

func (h *JobSubmissionHandler) validateStep(c *fiber.Ctx) error {
	var req validateStepRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.controller.ValidateStep(req.SubmissionDraft, req.Step)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *JobSubmissionHandler) presign(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req jobSubmissionController.PresignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	uploads, err := h.controller.PresignPhotos(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"uploads": uploads})
}

func (h *JobSubmissionHandler) update(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	var req jobSubmissionController.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ID == uuid.Nil {
		return badRequest(c, "Submission id is required")
	}

	submission, err := h.controller.Update(c.UserContext(), user, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(submission)
}

func (h *JobSubmissionHandler) delete(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		return badRequest(c, "Submission id is required")
	}

	if err := h.controller.Delete(c.UserContext(), user, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true, "id": id})
}

func (h *JobSubmissionHandler) get(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid submission id")
	}

	submission, err := h.controller.Get(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(submission)
}

func (h *JobSubmissionHandler) getAIReport(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid submission id")
	}

	state, err := h.controller.GetAIReport(c.UserContext(), user, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

func (h *JobSubmissionHandler) attachAIReport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid submission id")
	}

	var req aiReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	state, err := h.controller.AttachAIReport(c.UserContext(), id, req.AIReport)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

func (h *JobSubmissionHandler) share(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid submission id")
	}

	var req jobSubmissionController.ShareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.controller.Share(c.UserContext(), user, id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
