package testimonialController

import (
	"context"
	"errors"
	"fmt"
	"palcontent/config"
	"palcontent/internal/database"
	"palcontent/internal/models"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/types"
	"palcontent/internal/utils"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

const (
	maxCommentLength = 2000
	// Ratings at or above this are offered the public Google review page.
	googleRedirectRating = 4
	reviewLinkPath       = "/api/reviews/r/"
)

type TrackingStatus string

const (
	TrackingRecorded TrackingStatus = "recorded"
	TrackingFailed   TrackingStatus = "failed"
)

type smsSender interface {
	Send(ctx context.Context, smsConfig *models.SMSConfig, to string, body string) (services.SMSResult, error)
}

type emailSender interface {
	Send(ctx context.Context, message services.EmailMessage) (string, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, limit services.RateLimit, subject string) error
}

type CreateRequest struct {
	FranchiseeID    uuid.UUID  `json:"franchiseeId"              validate:"required"`
	TechnicianID    *uuid.UUID `json:"technicianId,omitempty"`
	JobSubmissionID *uuid.UUID `json:"jobSubmissionId,omitempty"`
	CustomerName    string     `json:"customerName"              validate:"required,max=120"`
	CustomerEmail   string     `json:"customerEmail,omitempty"   validate:"omitempty,email"`
	Rating          int        `json:"rating"                    validate:"min=1,max=5"`
	Comment         string     `json:"comment"`
}

type CreateResult struct {
	Testimonial     *models.Testimonial `json:"testimonial"`
	GoogleReviewURL string              `json:"googleReviewUrl,omitempty"`
}

type ModerateRequest struct {
	Status models.TestimonialStatus `json:"status" validate:"required,oneof=pending published hidden"`
}

type ReviewRequestInput struct {
	FranchiseeID    *uuid.UUID           `json:"franchiseeId,omitempty"`
	JobSubmissionID *uuid.UUID           `json:"jobSubmissionId,omitempty"`
	CustomerName    string               `json:"customerName"              validate:"required,max=120"`
	Channel         models.ReviewChannel `json:"channel"                   validate:"required,oneof=sms email"`
	To              string               `json:"to"                        validate:"required"`
}

// ReviewRequestResult reports what the provider did with the request. A
// failed delivery is still recorded and returned alongside the error.
type ReviewRequestResult struct {
	ID             uuid.UUID             `json:"id"`
	Channel        models.ReviewChannel  `json:"channel"`
	DeliveryStatus models.DeliveryStatus `json:"deliveryStatus"`
	MessageID      string                `json:"messageId,omitempty"`
	Error          string                `json:"error,omitempty"`
	Link           string                `json:"link"`
}

type RedirectResult struct {
	URL            string
	TrackingStatus TrackingStatus
}

type TestimonialController struct {
	repos   repositories.Repository
	db      database.DB
	config  config.Config
	sms     smsSender
	email   emailSender
	limiter rateLimiter
	now     func() time.Time
	log     logger.Logger
}

type TestimonialControllerInterface interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	List(ctx context.Context, user *models.User, franchiseeID *uuid.UUID, status string) ([]*models.Testimonial, error)
	Moderate(ctx context.Context, user *models.User, id uuid.UUID, req ModerateRequest) (*models.Testimonial, error)
	RequestReview(ctx context.Context, user *models.User, req ReviewRequestInput) (*ReviewRequestResult, error)
	Redirect(ctx context.Context, token string) (*RedirectResult, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) TestimonialControllerInterface {
	return &TestimonialController{
		repos:   repos,
		db:      db,
		config:  config,
		sms:     services.SMS,
		email:   services.Email,
		limiter: services.RateLimiter,
		now:     time.Now,
		log:     logger.New("testimonialController"),
	}
}

// Create stores a customer testimonial awaiting moderation. Happy customers
// get the franchise's Google review link back.
func (c *TestimonialController) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	log := c.log.TraceFromContext(ctx).Function("Create")

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if details := utils.ValidateStruct(req); len(details) > 0 {
		return nil, log.Err("invalid testimonial", types.NewFieldError(details...))
	}

	franchisee, err := c.repos.Franchisee.GetByID(ctx, c.db.SQL, req.FranchiseeID)
	if err != nil {
		return nil, err
	}
	if !franchisee.IsActive {
		return nil, log.Err("franchise is inactive", types.ErrNotFound, "franchiseeID", franchisee.ID)
	}

	if req.TechnicianID != nil {
		technician, err := c.repos.Technician.GetByID(ctx, c.db.SQL, *req.TechnicianID)
		if err != nil {
			return nil, err
		}
		if technician.FranchiseeID != franchisee.ID {
			return nil, log.Err("technician outside franchise", types.ErrNotFound, "technicianID", technician.ID)
		}
	}

	comment, _ := utils.CleanUTF8(strings.TrimSpace(req.Comment))
	testimonial := &models.Testimonial{
		FranchiseeID:    franchisee.ID,
		TechnicianID:    req.TechnicianID,
		JobSubmissionID: req.JobSubmissionID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		Rating:          req.Rating,
		Comment:         utils.Truncate(comment, maxCommentLength),
		Status:          models.TestimonialStatusPending,
	}

	result := &CreateResult{Testimonial: testimonial}
	if req.Rating >= googleRedirectRating && franchisee.GoogleReviewURL != "" {
		testimonial.RedirectedToGoogle = true
		result.GoogleReviewURL = franchisee.GoogleReviewURL
	}

	if err := c.repos.Testimonial.Create(ctx, c.db.SQL, testimonial); err != nil {
		return nil, err
	}

	log.Info("testimonial received", "franchiseeID", franchisee.ID, "rating", req.Rating)
	return result, nil
}

func (c *TestimonialController) List(
	ctx context.Context,
	user *models.User,
	franchiseeID *uuid.UUID,
	status string,
) ([]*models.Testimonial, error) {
	log := c.log.TraceFromContext(ctx).Function("List")

	if err := c.requireManager(ctx, user); err != nil {
		return nil, err
	}

	var scope *uuid.UUID
	if !user.IsAdmin() || (franchiseeID != nil && *franchiseeID != uuid.Nil) {
		id, ok := user.FranchiseFor(franchiseeID)
		if !ok {
			return nil, log.Err("franchise not accessible", types.ErrForbidden, "userID", user.ID)
		}
		scope = &id
	}

	filter := models.TestimonialStatus(strings.ToLower(strings.TrimSpace(status)))
	switch filter {
	case "all":
		filter = ""
	case "", models.TestimonialStatusPending, models.TestimonialStatusPublished, models.TestimonialStatusHidden:
	default:
		return nil, log.Err("unknown status filter", types.NewFieldError("status must be one of: all pending published hidden"))
	}

	return c.repos.Testimonial.List(ctx, c.db.SQL, scope, filter)
}

func (c *TestimonialController) Moderate(
	ctx context.Context,
	user *models.User,
	id uuid.UUID,
	req ModerateRequest,
) (*models.Testimonial, error) {
	log := c.log.TraceFromContext(ctx).Function("Moderate")

	if err := c.requireManager(ctx, user); err != nil {
		return nil, err
	}
	if details := utils.ValidateStruct(req); len(details) > 0 {
		return nil, log.Err("invalid moderation", types.NewFieldError(details...))
	}

	testimonial, err := c.repos.Testimonial.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}
	if !user.CanAccessFranchise(testimonial.FranchiseeID) {
		return nil, log.Err("testimonial outside caller's franchise", types.ErrNotFound, "testimonialID", id)
	}

	if err := c.repos.Testimonial.Update(ctx, c.db.SQL, id, map[string]any{"status": req.Status}); err != nil {
		return nil, err
	}

	testimonial.Status = req.Status
	log.Info("testimonial moderated", "testimonialID", id, "status", req.Status, "moderatedBy", user.ID)
	return testimonial, nil
}

// RequestReview records a review request and sends its tracked link to the
// customer. The recorded delivery status is the provider's answer.
func (c *TestimonialController) RequestReview(
	ctx context.Context,
	user *models.User,
	req ReviewRequestInput,
) (*ReviewRequestResult, error) {
	log := c.log.TraceFromContext(ctx).Function("RequestReview")

	if details := utils.ValidateStruct(req); len(details) > 0 {
		return nil, log.Err("invalid review request", types.NewFieldError(details...))
	}

	franchiseeID, ok := user.FranchiseFor(req.FranchiseeID)
	if !ok {
		return nil, log.Err("franchise not accessible", types.NewFieldError("franchiseeId is required"), "userID", user.ID)
	}
	franchisee, err := c.repos.Franchisee.GetByID(ctx, c.db.SQL, franchiseeID)
	if err != nil {
		return nil, err
	}

	destination, err := normalizeDestination(req.Channel, req.To)
	if err != nil {
		return nil, log.Err("invalid review destination", err, "channel", req.Channel)
	}

	if req.JobSubmissionID != nil {
		submission, err := c.repos.JobSubmission.GetByID(ctx, c.db.SQL, *req.JobSubmissionID)
		if err != nil {
			return nil, err
		}
		if submission.FranchiseeID != franchiseeID {
			return nil, log.Err("submission outside franchise", types.ErrNotFound, "submissionID", submission.ID)
		}
	}

	if err := c.limiter.Allow(ctx, services.ReviewRequestLimit, destination); err != nil {
		return nil, err
	}

	request := &models.ReviewRequest{
		FranchiseeID:    franchiseeID,
		JobSubmissionID: req.JobSubmissionID,
		RequestedBy:     user.ID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Channel:         req.Channel,
		Destination:     destination,
	}
	if err := c.repos.ReviewRequest.Create(ctx, c.db.SQL, request); err != nil {
		return nil, err
	}

	link := c.ReviewLink(request.Token)
	sent, sendErr := c.deliver(ctx, franchisee, request, link)

	result := &ReviewRequestResult{
		ID:             request.ID,
		Channel:        request.Channel,
		DeliveryStatus: models.DeliveryStatusAccepted,
		MessageID:      sent.MessageID,
		Link:           link,
	}
	if sent.Status != "" {
		result.DeliveryStatus = sent.Status
	}

	updates := map[string]any{
		"delivery_status":     result.DeliveryStatus,
		"provider_message_id": result.MessageID,
	}
	if sendErr != nil {
		result.DeliveryStatus = models.DeliveryStatusFailed
		result.Error = sendErr.Error()
		updates["delivery_status"] = models.DeliveryStatusFailed
		updates["delivery_error"] = utils.Truncate(sendErr.Error(), 500)
	}
	if err := c.repos.ReviewRequest.Update(ctx, c.db.SQL, request.ID, updates); err != nil {
		log.Warn("failed to record review delivery outcome", "reviewRequestID", request.ID, "error", err)
	}

	if sendErr != nil {
		return result, sendErr
	}

	log.Info("review requested", "reviewRequestID", request.ID, "channel", request.Channel, "status", result.DeliveryStatus)
	return result, nil
}

func (c *TestimonialController) deliver(
	ctx context.Context,
	franchisee *models.Franchisee,
	request *models.ReviewRequest,
	link string,
) (services.SMSResult, error) {
	switch request.Channel {
	case models.ReviewChannelSMS:
		smsConfig, err := c.repos.SMSConfig.GetByFranchisee(ctx, c.db.SQL, franchisee.ID)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return services.SMSResult{}, err
		}
		template := models.DefaultSMSTemplates[models.TemplateReviewRequest]
		if smsConfig != nil {
			template = smsConfig.Template(models.TemplateReviewRequest)
		}
		body := models.RenderTemplate(template, map[string]string{
			"customer": request.CustomerName,
			"business": franchisee.BusinessName,
			"link":     link,
		})
		return c.sms.Send(ctx, smsConfig, request.Destination, body)

	default:
		id, err := c.email.Send(ctx, services.EmailMessage{
			To:       request.Destination,
			Subject:  fmt.Sprintf("How did %s do?", franchisee.BusinessName),
			TextBody: ReviewEmailBody(request.CustomerName, franchisee.BusinessName, link),
		})
		return services.SMSResult{MessageID: id, Status: models.DeliveryStatusAccepted}, err
	}
}

func ReviewEmailBody(customer string, business string, link string) string {
	greeting := "Hi"
	if customer = strings.TrimSpace(customer); customer != "" {
		greeting += " " + customer
	}
	return fmt.Sprintf(
		"%s,\n\nThank you for choosing %s. It only takes a minute to tell us how we did:\n\n%s\n",
		greeting, business, link,
	)
}

func (c *TestimonialController) ReviewLink(token string) string {
	return strings.TrimRight(c.config.PublicAppURL, "/") + reviewLinkPath + token
}

// Redirect resolves a tracked review link. Click tracking failures are
// reported in the result and never prevent the redirect.
func (c *TestimonialController) Redirect(ctx context.Context, token string) (*RedirectResult, error) {
	log := c.log.TraceFromContext(ctx).Function("Redirect")

	request, err := c.repos.ReviewRequest.GetByToken(ctx, c.db.SQL, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	franchisee, err := c.repos.Franchisee.GetByID(ctx, c.db.SQL, request.FranchiseeID)
	if err != nil {
		return nil, err
	}
	if franchisee.GoogleReviewURL == "" {
		return nil, log.Err("franchise has no review page", types.ErrNotFound, "franchiseeID", franchisee.ID)
	}

	result := &RedirectResult{URL: franchisee.GoogleReviewURL, TrackingStatus: TrackingRecorded}
	if err := c.repos.ReviewRequest.RecordClick(ctx, c.db.SQL, request.ID, c.now().UTC()); err != nil {
		log.Warn("failed to record review click", "reviewRequestID", request.ID, "error", err)
		result.TrackingStatus = TrackingFailed
	}
	return result, nil
}

func (c *TestimonialController) requireManager(ctx context.Context, user *models.User) error {
	if user.HasRole(models.RoleAdmin, models.RoleFranchisee) {
		return nil
	}
	return c.log.TraceFromContext(ctx).Function("requireManager").
		Err("testimonials are managed by franchisees", types.ErrForbidden, "userID", user.ID)
}

func normalizeDestination(channel models.ReviewChannel, to string) (string, error) {
	to = strings.TrimSpace(to)
	if channel == models.ReviewChannelSMS {
		if !utils.IsValidPhone(to) {
			return "", types.NewFieldError("to must be a valid phone number")
		}
		return utils.NormalizePhone(to), nil
	}
	to = strings.ToLower(to)
	if !utils.IsValidEmail(to) {
		return "", types.NewFieldError("to must be a valid email address")
	}
	return to, nil
}
