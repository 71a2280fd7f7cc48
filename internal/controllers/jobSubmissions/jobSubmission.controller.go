package jobSubmissionController

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"palcontent/config"
	"palcontent/internal/database"
	"palcontent/internal/events"
	"palcontent/internal/metrics"
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

const maxReviewNotesLength = 2000

type reportPoller interface {
	Start(submissionID uuid.UUID) bool
	Stop(submissionID uuid.UUID) bool
	IsPolling(submissionID uuid.UUID) bool
}

type smsSender interface {
	Send(ctx context.Context, smsConfig *models.SMSConfig, to string, body string) (services.SMSResult, error)
}

type rateLimiter interface {
	AllowFranchise(ctx context.Context, limit services.RateLimit, franchiseeID uuid.UUID) error
}

type photoPresigner interface {
	PresignPhotoUploads(
		ctx context.Context,
		franchiseeID uuid.UUID,
		technicianID uuid.UUID,
		contentTypes []string,
	) ([]services.PresignedUpload, error)
}

type ListFilter struct {
	TechnicianID    *uuid.UUID
	FranchiseeID    *uuid.UUID
	Status          string
	Category        string
	IncludeArchived bool
}

type ListResult struct {
	Submissions []*models.JobSubmission         `json:"submissions"`
	Counts      map[models.SubmissionStatus]int `json:"counts"`
	Total       int                             `json:"total"`
}

type Photo struct {
	URL  string           `json:"url"`
	Type models.PhotoType `json:"type"`
}

type PhotoSubmission struct {
	*models.JobSubmission
	Photos []Photo `json:"photos"`
}

type PhotoListResult struct {
	Submissions []PhotoSubmission               `json:"submissions"`
	Counts      map[models.SubmissionStatus]int `json:"counts"`
	Total       int                             `json:"total"`
}

type UpdateRequest struct {
	ID          uuid.UUID                `json:"id"`
	Status      *models.SubmissionStatus `json:"status,omitempty"`
	ReviewNotes *string                  `json:"reviewNotes,omitempty"`
	Archived    *bool                    `json:"archived,omitempty"`
}

type AIReportState struct {
	SubmissionID uuid.UUID  `json:"submissionId"`
	Ready        bool       `json:"ready"`
	AIReport     *string    `json:"aiReport,omitempty"`
	GeneratedAt  *time.Time `json:"generatedAt,omitempty"`
	Polling      bool       `json:"polling"`
}

type ShareRequest struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
}

type ShareResult struct {
	Channel   string `json:"channel"`
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	MailtoURL string `json:"mailtoUrl,omitempty"`
}

type PresignRequest struct {
	ContentTypes []string `json:"contentTypes"`
}

type JobSubmissionController struct {
	repos     repositories.Repository
	db        database.DB
	config    config.Config
	publisher events.Publisher
	poller    reportPoller
	sms       smsSender
	limiter   rateLimiter
	storage   photoPresigner
	log       logger.Logger
}

type JobSubmissionControllerInterface interface {
	ValidateStep(draft SubmissionDraft, step int) (StepResult, error)
	Create(ctx context.Context, user *models.User, draft SubmissionDraft) (*models.JobSubmission, error)
	List(ctx context.Context, user *models.User, filter ListFilter) (*ListResult, error)
	ListPhotos(ctx context.Context, user *models.User, filter ListFilter) (*PhotoListResult, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.JobSubmission, error)
	Update(ctx context.Context, user *models.User, req UpdateRequest) (*models.JobSubmission, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
	GetAIReport(ctx context.Context, user *models.User, id uuid.UUID) (*AIReportState, error)
	AttachAIReport(ctx context.Context, id uuid.UUID, report string) (*AIReportState, error)
	Share(ctx context.Context, user *models.User, id uuid.UUID, req ShareRequest) (*ShareResult, error)
	PresignPhotos(ctx context.Context, user *models.User, req PresignRequest) ([]services.PresignedUpload, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus events.Publisher,
	config config.Config,
	db database.DB,
) JobSubmissionControllerInterface {
	return &JobSubmissionController{
		repos:     repos,
		db:        db,
		config:    config,
		publisher: eventBus,
		poller:    services.AIReports,
		sms:       services.SMS,
		limiter:   services.RateLimiter,
		storage:   services.Storage,
		log:       logger.New("jobSubmissionController"),
	}
}

func (c *JobSubmissionController) ValidateStep(draft SubmissionDraft, step int) (StepResult, error) {
	return ValidateStep(draft, step)
}

func (c *JobSubmissionController) Create(
	ctx context.Context,
	user *models.User,
	draft SubmissionDraft,
) (*models.JobSubmission, error) {
	log := c.log.TraceFromContext(ctx).Function("Create")

	technician, err := c.submittingTechnician(ctx, user, draft.TechnicianID)
	if err != nil {
		return nil, err
	}

	submission, err := BuildSubmission(draft, technician)
	if err != nil {
		return nil, log.Err("invalid submission draft", err, "technicianID", technician.ID)
	}

	if err := c.repos.JobSubmission.Create(ctx, c.db.SQL, submission); err != nil {
		return nil, log.Err("failed to store submission", err, "technicianID", technician.ID)
	}
	submission.Technician = technician

	metrics.SubmissionsCreated.WithLabelValues(string(submission.Service.Category)).Inc()
	c.publish(ctx, events.SUBMISSION_CREATED, submission, map[string]any{
		"category":    submission.Service.Category,
		"serviceType": submission.Service.Type,
		"photoCount":  submission.Media.Count(),
	})

	if !submission.HasAIReport() {
		c.poller.Start(submission.ID)
	}

	c.notifySubmission(ctx, submission, technician)

	log.Info("submission created",
		"submissionID", submission.ID,
		"technicianID", technician.ID,
		"category", submission.Service.Category)
	return submission, nil
}

// submittingTechnician resolves who the submission is filed for. Technicians
// always submit as themselves.
func (c *JobSubmissionController) submittingTechnician(
	ctx context.Context,
	user *models.User,
	requested *uuid.UUID,
) (*models.Technician, error) {
	log := c.log.TraceFromContext(ctx).Function("submittingTechnician")

	var technicianID uuid.UUID
	switch {
	case user.Role == models.RoleTechnician:
		if user.TechnicianID == nil {
			return nil, log.Err("user is not linked to a technician", types.ErrForbidden, "userID", user.ID)
		}
		technicianID = *user.TechnicianID
	case requested != nil:
		technicianID = *requested
	default:
		return nil, log.Err("technician is required", types.NewFieldError("technicianId is required"))
	}

	technician, err := c.repos.Technician.GetByID(ctx, c.db.SQL, technicianID)
	if err != nil {
		return nil, err
	}

	if !technician.IsActive {
		return nil, log.Err("technician is inactive", types.ErrForbidden, "technicianID", technician.ID)
	}
	if user.Role != models.RoleTechnician && !user.CanAccessFranchise(technician.FranchiseeID) {
		return nil, log.Err("technician outside caller's franchise", types.ErrNotFound, "technicianID", technician.ID)
	}

	return technician, nil
}

func (c *JobSubmissionController) List(
	ctx context.Context,
	user *models.User,
	filter ListFilter,
) (*ListResult, error) {
	submissions, status, category, err := c.scopedSubmissions(ctx, user, filter)
	if err != nil {
		return nil, err
	}

	byCategory := FilterSubmissions(submissions, "", category)
	filtered := FilterSubmissions(byCategory, status, "")

	return &ListResult{
		Submissions: filtered,
		Counts:      CountByStatus(byCategory),
		Total:       len(filtered),
	}, nil
}

// ListPhotos is the photo-centric view; submissions without photos are dropped.
func (c *JobSubmissionController) ListPhotos(
	ctx context.Context,
	user *models.User,
	filter ListFilter,
) (*PhotoListResult, error) {
	submissions, status, category, err := c.scopedSubmissions(ctx, user, filter)
	if err != nil {
		return nil, err
	}

	withPhotos := make([]*models.JobSubmission, 0, len(submissions))
	for _, submission := range FilterSubmissions(submissions, "", category) {
		if submission.HasPhotos() {
			withPhotos = append(withPhotos, submission)
		}
	}

	filtered := FilterSubmissions(withPhotos, status, "")
	entries := make([]PhotoSubmission, 0, len(filtered))
	for _, submission := range filtered {
		entries = append(entries, PhotoSubmission{JobSubmission: submission, Photos: photosOf(submission)})
	}

	return &PhotoListResult{
		Submissions: entries,
		Counts:      CountByStatus(withPhotos),
		Total:       len(entries),
	}, nil
}

func (c *JobSubmissionController) scopedSubmissions(
	ctx context.Context,
	user *models.User,
	filter ListFilter,
) ([]*models.JobSubmission, models.SubmissionStatus, models.ServiceCategory, error) {
	log := c.log.TraceFromContext(ctx).Function("scopedSubmissions")

	status := models.SubmissionStatus(strings.ToLower(strings.TrimSpace(filter.Status)))
	if status == "all" {
		status = ""
	}
	if status != "" && !status.IsValid() {
		return nil, "", "", log.Err("unknown status filter", types.NewFieldError("status is not a known status"))
	}

	category := models.ServiceCategory(strings.TrimSpace(filter.Category))
	if strings.EqualFold(string(category), "all") {
		category = ""
	}
	if category != "" && !category.IsValid() {
		return nil, "", "", log.Err("unknown category filter", types.NewFieldError("category is not a known category"))
	}

	scope := repositories.SubmissionScope{IncludeArchived: filter.IncludeArchived}
	switch user.Role {
	case models.RoleTechnician:
		if user.TechnicianID == nil {
			return nil, "", "", log.Err("user is not linked to a technician", types.ErrForbidden, "userID", user.ID)
		}
		scope.TechnicianID = user.TechnicianID
	case models.RoleFranchisee:
		franchiseeID, ok := user.FranchiseFor(filter.FranchiseeID)
		if !ok {
			return nil, "", "", log.Err("franchise not accessible", types.ErrForbidden, "userID", user.ID)
		}
		scope.FranchiseeID = &franchiseeID
		scope.TechnicianID = filter.TechnicianID
	default:
		scope.FranchiseeID = filter.FranchiseeID
		scope.TechnicianID = filter.TechnicianID
	}

	submissions, err := c.repos.JobSubmission.List(ctx, c.db.SQL, scope)
	if err != nil {
		return nil, "", "", err
	}

	return submissions, status, category, nil
}

// FilterSubmissions keeps exactly the submissions matching the status and the
// category. An empty status or category matches everything.
func FilterSubmissions(
	submissions []*models.JobSubmission,
	status models.SubmissionStatus,
	category models.ServiceCategory,
) []*models.JobSubmission {
	filtered := make([]*models.JobSubmission, 0, len(submissions))
	for _, submission := range submissions {
		if status != "" && submission.Status != status {
			continue
		}
		if category != "" && submission.Service.Category != category {
			continue
		}
		filtered = append(filtered, submission)
	}
	return filtered
}

// CountByStatus returns the per-tab counts, with every status present.
func CountByStatus(submissions []*models.JobSubmission) map[models.SubmissionStatus]int {
	counts := make(map[models.SubmissionStatus]int, len(models.SubmissionStatuses))
	for _, status := range models.SubmissionStatuses {
		counts[status] = 0
	}
	for _, submission := range submissions {
		counts[submission.Status]++
	}
	return counts
}

func photosOf(submission *models.JobSubmission) []Photo {
	photos := make([]Photo, 0, submission.Media.Count())
	for _, photoURL := range submission.Media.BeforePhotos {
		photos = append(photos, Photo{URL: photoURL, Type: models.PhotoTypeBefore})
	}
	for _, photoURL := range submission.Media.AfterPhotos {
		photos = append(photos, Photo{URL: photoURL, Type: models.PhotoTypeAfter})
	}
	for _, photoURL := range submission.Media.ProcessPhotos {
		photos = append(photos, Photo{URL: photoURL, Type: models.PhotoTypeProcess})
	}
	return photos
}

func (c *JobSubmissionController) Get(
	ctx context.Context,
	user *models.User,
	id uuid.UUID,
) (*models.JobSubmission, error) {
	log := c.log.TraceFromContext(ctx).Function("Get")

	submission, err := c.repos.JobSubmission.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if !canView(user, submission) {
		return nil, log.Err("submission not visible to user", types.ErrNotFound, "submissionID", id, "userID", user.ID)
	}

	return submission, nil
}

func canView(user *models.User, submission *models.JobSubmission) bool {
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTechnician:
		return user.TechnicianID != nil && *user.TechnicianID == submission.TechnicianID
	default:
		return user.CanAccessFranchise(submission.FranchiseeID)
	}
}

// Update applies a review decision, review notes or the archive flag. Status
// changes must follow the transition table.
func (c *JobSubmissionController) Update(
	ctx context.Context,
	user *models.User,
	req UpdateRequest,
) (*models.JobSubmission, error) {
	log := c.log.TraceFromContext(ctx).Function("Update")

	if !user.HasRole(models.RoleAdmin, models.RoleFranchisee) {
		return nil, log.Err("only reviewers may update submissions", types.ErrForbidden, "userID", user.ID)
	}
	if req.ID == uuid.Nil {
		return nil, log.Err("submission id is required", types.NewFieldError("id is required"))
	}
	if req.Status == nil && req.ReviewNotes == nil && req.Archived == nil {
		return nil, log.Err("nothing to update", types.NewFieldError("one of status, reviewNotes or archived is required"))
	}

	submission, err := c.Get(ctx, user, req.ID)
	if err != nil {
		return nil, err
	}

	previous := submission.Status
	updates := map[string]any{}

	if req.Status != nil {
		if err := models.ValidateTransition(previous, *req.Status); err != nil {
			return nil, log.Err("rejected status change", err, "submissionID", submission.ID)
		}
		now := time.Now().UTC()
		updates["status"] = *req.Status
		updates["reviewed_at"] = now
		updates["reviewed_by"] = user.ID
	}
	if req.ReviewNotes != nil {
		notes := utils.Truncate(strings.TrimSpace(*req.ReviewNotes), maxReviewNotesLength)
		updates["review_notes"] = notes
	}
	if req.Archived != nil {
		updates["archived"] = *req.Archived
	}

	if req.Status != nil {
		err = c.repos.JobSubmission.UpdateFromStatus(ctx, c.db.SQL, submission.ID, previous, updates)
	} else {
		err = c.repos.JobSubmission.Update(ctx, c.db.SQL, submission.ID, updates)
	}
	if err != nil {
		return nil, err
	}

	updated, err := c.repos.JobSubmission.GetByID(ctx, c.db.SQL, submission.ID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		metrics.SubmissionTransitions.WithLabelValues(string(previous), string(updated.Status)).Inc()
		c.publish(ctx, events.SUBMISSION_STATUS_CHANGED, updated, map[string]any{
			"from":       previous,
			"to":         updated.Status,
			"reviewedBy": user.ID.String(),
		})
		if updated.Status == models.SubmissionStatusApproved {
			c.notifyApproval(ctx, updated)
		}
	} else {
		c.publish(ctx, events.SUBMISSION_UPDATED, updated, map[string]any{"archived": updated.Archived})
	}

	log.Info("submission updated", "submissionID", updated.ID, "status", updated.Status, "archived", updated.Archived)
	return updated, nil
}

// Delete hard-deletes the submission. Technicians may not delete approved work.
func (c *JobSubmissionController) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	log := c.log.TraceFromContext(ctx).Function("Delete")

	submission, err := c.Get(ctx, user, id)
	if err != nil {
		return err
	}

	if !submission.CanBeDeletedBy(user) {
		return log.Err("technician cannot delete approved submission", types.ErrApprovedDelete,
			"submissionID", id,
			"userID", user.ID)
	}

	if err := c.repos.JobSubmission.Delete(ctx, c.db.SQL, id); err != nil {
		return err
	}

	c.poller.Stop(id)
	c.publish(ctx, events.SUBMISSION_DELETED, submission, nil)

	log.Info("submission deleted", "submissionID", id, "userID", user.ID)
	return nil
}

func (c *JobSubmissionController) GetAIReport(
	ctx context.Context,
	user *models.User,
	id uuid.UUID,
) (*AIReportState, error) {
	submission, err := c.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return c.reportState(submission), nil
}

func (c *JobSubmissionController) reportState(submission *models.JobSubmission) *AIReportState {
	return &AIReportState{
		SubmissionID: submission.ID,
		Ready:        submission.HasAIReport(),
		AIReport:     submission.AIReport,
		GeneratedAt:  submission.AIReportGeneratedAt,
		Polling:      c.poller.IsPolling(submission.ID),
	}
}

// AttachAIReport stores a report delivered by the generator and sends the
// ready event. A running poller for the submission is stopped first so it does
// not report a timeout afterwards.
func (c *JobSubmissionController) AttachAIReport(
	ctx context.Context,
	id uuid.UUID,
	report string,
) (*AIReportState, error) {
	log := c.log.TraceFromContext(ctx).Function("AttachAIReport")

	report, _ = utils.CleanUTF8(strings.TrimSpace(report))
	if report == "" {
		return nil, log.Err("empty AI report", types.NewFieldError("aiReport is required"))
	}

	if err := c.repos.JobSubmission.AttachAIReport(ctx, c.db.SQL, id, report); err != nil {
		return nil, err
	}

	submission, err := c.repos.JobSubmission.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	c.poller.Stop(id)
	if c.publisher != nil {
		err := c.publisher.Publish(events.AI_REPORTS_CHANNEL, events.Event{
			Type:         events.AI_REPORT_READY,
			FranchiseeID: &submission.FranchiseeID,
			TechnicianID: &submission.TechnicianID,
			Data: map[string]any{
				"submissionId": submission.ID.String(),
				"technicianId": submission.TechnicianID.String(),
				"outcome":      string(services.PollOutcomeReady),
				"aiReport":     report,
			},
		})
		if err != nil {
			log.Warn("failed to publish AI report event", "submissionID", id, "error", err)
		}
	}

	log.Info("AI report attached", "submissionID", id, "length", len(report))
	return c.reportState(submission), nil
}

// Share sends the submission summary by SMS, or prepares a mailto link for email.
func (c *JobSubmissionController) Share(
	ctx context.Context,
	user *models.User,
	id uuid.UUID,
	req ShareRequest,
) (*ShareResult, error) {
	log := c.log.TraceFromContext(ctx).Function("Share")

	submission, err := c.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = ShareMessage(submission)
	}

	switch req.Channel {
	case string(models.ReviewChannelSMS):
		if err := c.limiter.AllowFranchise(ctx, services.SMSSendLimit, submission.FranchiseeID); err != nil {
			return nil, err
		}
		result, err := c.sms.Send(ctx, c.smsConfig(ctx, submission.FranchiseeID), req.To, message)
		if err != nil {
			return nil, err
		}
		return &ShareResult{Channel: req.Channel, Status: string(result.Status), MessageID: result.MessageID}, nil
	case string(models.ReviewChannelEmail):
		to := strings.TrimSpace(req.To)
		if to != "" && !utils.IsValidEmail(to) {
			return nil, log.Err("invalid share email", types.NewFieldError("to must be a valid email address"))
		}
		subject := fmt.Sprintf("%s job: %s", submission.Service.Category, submission.Service.Type)
		return &ShareResult{Channel: req.Channel, Status: "prepared", MailtoURL: MailtoURL(to, subject, message)}, nil
	default:
		return nil, log.Err("unsupported share channel", types.NewFieldError("channel must be one of: sms email"))
	}
}

// ShareMessage summarizes a submission for SMS or email sharing.
func ShareMessage(submission *models.JobSubmission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s", submission.Service.Category, submission.Service.Type)
	if submission.Service.Location != "" {
		fmt.Fprintf(&b, " at %s", submission.Service.Location)
	}
	if submission.Service.Date != nil {
		fmt.Fprintf(&b, " on %s", submission.Service.Date.Format("Jan 2, 2006"))
	}
	if submission.Service.Description != "" {
		fmt.Fprintf(&b, ". %s", submission.Service.Description)
	}
	return b.String()
}

// MailtoURL builds a mailto link with spaces encoded as %20, which mail
// clients decode reliably.
func MailtoURL(to string, subject string, body string) string {
	escape := func(s string) string {
		return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	}
	return "mailto:" + escape(to) + "?subject=" + escape(subject) + "&body=" + escape(body)
}

func (c *JobSubmissionController) PresignPhotos(
	ctx context.Context,
	user *models.User,
	req PresignRequest,
) ([]services.PresignedUpload, error) {
	log := c.log.TraceFromContext(ctx).Function("PresignPhotos")

	technicianID := user.ID
	var franchiseeID uuid.UUID
	if user.TechnicianID != nil {
		technician, err := c.repos.Technician.GetByID(ctx, c.db.SQL, *user.TechnicianID)
		if err != nil {
			return nil, err
		}
		technicianID = technician.ID
		franchiseeID = technician.FranchiseeID
	} else if user.FranchiseeID != nil {
		franchiseeID = *user.FranchiseeID
	} else {
		return nil, log.Err("user has no franchise for uploads", types.ErrForbidden, "userID", user.ID)
	}

	return c.storage.PresignPhotoUploads(ctx, franchiseeID, technicianID, req.ContentTypes)
}

func (c *JobSubmissionController) smsConfig(ctx context.Context, franchiseeID uuid.UUID) *models.SMSConfig {
	smsConfig, err := c.repos.SMSConfig.GetByFranchisee(ctx, c.db.SQL, franchiseeID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			c.log.Function("smsConfig").Warn("failed to load SMS config", "franchiseeID", franchiseeID, "error", err)
		}
		return nil
	}
	return smsConfig
}

// notifySubmission texts the franchisee about new work when they opted in.
func (c *JobSubmissionController) notifySubmission(
	ctx context.Context,
	submission *models.JobSubmission,
	technician *models.Technician,
) {
	log := c.log.TraceFromContext(ctx).Function("notifySubmission")

	smsConfig := c.smsConfig(ctx, submission.FranchiseeID)
	if smsConfig == nil || !smsConfig.NotifyOnSubmission {
		return
	}

	franchisee, err := c.repos.Franchisee.GetByID(ctx, c.db.SQL, submission.FranchiseeID)
	if err != nil || franchisee.Phone == "" {
		log.Warn("franchisee has no phone for notifications", "franchiseeID", submission.FranchiseeID)
		return
	}

	body := models.RenderTemplate(smsConfig.Template(models.TemplateSubmissionReceived), map[string]string{
		"category":    string(submission.Service.Category),
		"serviceType": submission.Service.Type,
		"technician":  technician.Name,
		"business":    franchisee.BusinessName,
	})
	if _, err := c.sms.Send(ctx, smsConfig, franchisee.Phone, body); err != nil {
		log.Warn("submission notification failed", "submissionID", submission.ID, "error", err)
	}
}

// notifyApproval texts the technician when their submission is approved.
func (c *JobSubmissionController) notifyApproval(ctx context.Context, submission *models.JobSubmission) {
	log := c.log.TraceFromContext(ctx).Function("notifyApproval")

	smsConfig := c.smsConfig(ctx, submission.FranchiseeID)
	if smsConfig == nil || !smsConfig.NotifyOnApproval {
		return
	}
	if submission.Technician == nil || submission.Technician.Phone == "" {
		log.Debug("technician has no phone for notifications", "submissionID", submission.ID)
		return
	}

	body := models.RenderTemplate(smsConfig.Template(models.TemplateSubmissionApproved), map[string]string{
		"category":    string(submission.Service.Category),
		"serviceType": submission.Service.Type,
		"technician":  submission.Technician.Name,
	})
	if _, err := c.sms.Send(ctx, smsConfig, submission.Technician.Phone, body); err != nil {
		log.Warn("approval notification failed", "submissionID", submission.ID, "error", err)
	}
}

func (c *JobSubmissionController) publish(
	ctx context.Context,
	eventType events.MessageType,
	submission *models.JobSubmission,
	data map[string]any,
) {
	if c.publisher == nil {
		return
	}

	payload := map[string]any{
		"submissionId": submission.ID.String(),
		"technicianId": submission.TechnicianID.String(),
		"status":       submission.Status,
	}
	for key, value := range data {
		payload[key] = value
	}

	err := c.publisher.Publish(events.SUBMISSIONS_CHANNEL, events.Event{
		Type:         eventType,
		FranchiseeID: &submission.FranchiseeID,
		TechnicianID: &submission.TechnicianID,
		Data:         payload,
	})
	if err != nil {
		c.log.TraceFromContext(ctx).Function("publish").
			Warn("failed to publish submission event", "type", eventType, "submissionID", submission.ID, "error", err)
	}
}
