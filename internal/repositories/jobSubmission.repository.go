package repositories

import (
	"context"
	. "palcontent/internal/models"
	"palcontent/internal/types"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionScope narrows a listing to the rows a caller may see. Status and
// category filtering happen in memory so tab counts share the same result set.
type SubmissionScope struct {
	TechnicianID    *uuid.UUID
	FranchiseeID    *uuid.UUID
	IncludeArchived bool
}

type JobSubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *JobSubmission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*JobSubmission, error)
	List(ctx context.Context, tx *gorm.DB, scope SubmissionScope) ([]*JobSubmission, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	UpdateFromStatus(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		from SubmissionStatus,
		updates map[string]any,
	) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	AttachAIReport(ctx context.Context, tx *gorm.DB, id uuid.UUID, report string) error
}

type jobSubmissionRepository struct {
	log logger.Logger
}

func NewJobSubmissionRepository() JobSubmissionRepository {
	return &jobSubmissionRepository{
		log: logger.New("jobSubmissionRepository"),
	}
}

func (r *jobSubmissionRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	submission *JobSubmission,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(submission).Error; err != nil {
		return log.Err(
			"failed to create job submission",
			err,
			"technicianID",
			submission.TechnicianID,
			"category",
			submission.Service.Category,
		)
	}

	if err := tx.WithContext(ctx).
		Model(&Technician{}).
		Where("id = ?", submission.TechnicianID).
		Update("last_submission_at", submission.SubmittedAt).Error; err != nil {
		log.Warn("failed to stamp technician last submission", "technicianID", submission.TechnicianID, "error", err)
	}

	return nil
}

func (r *jobSubmissionRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*JobSubmission, error) {
	log := r.log.Function("GetByID")

	var submission JobSubmission
	if err := tx.WithContext(ctx).
		Preload("Technician").
		First(&submission, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get job submission", notFound(err), "id", id)
	}

	return &submission, nil
}

func (r *jobSubmissionRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	scope SubmissionScope,
) ([]*JobSubmission, error) {
	log := r.log.Function("List")

	query := tx.WithContext(ctx).Preload("Technician")
	if scope.TechnicianID != nil {
		query = query.Where("technician_id = ?", *scope.TechnicianID)
	}
	if scope.FranchiseeID != nil {
		query = query.Where("franchisee_id = ?", *scope.FranchiseeID)
	}
	if !scope.IncludeArchived {
		query = query.Where("archived = ?", false)
	}

	var submissions []*JobSubmission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, log.Err("failed to list job submissions", err)
	}

	return submissions, nil
}

func (r *jobSubmissionRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).
		Model(&JobSubmission{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return log.Err("failed to update job submission", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return log.Err("job submission not found", types.ErrNotFound, "id", id)
	}

	return nil
}

// Delete removes the row permanently; submissions are not soft-deleted.
// UpdateFromStatus applies updates only while the row still holds the status
// the caller validated against. A row that moved on reports
// ErrInvalidTransition.
func (r *jobSubmissionRepository) UpdateFromStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	from SubmissionStatus,
	updates map[string]any,
) error {
	log := r.log.Function("UpdateFromStatus")

	result := tx.WithContext(ctx).
		Model(&JobSubmission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)

	if result.Error != nil {
		return log.Err("failed to update job submission", result.Error, "id", id)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.WithContext(ctx).Model(&JobSubmission{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return log.Err("failed to check job submission", err, "id", id)
	}
	if count == 0 {
		return log.Err("job submission not found", types.ErrNotFound, "id", id)
	}
	return log.Err("job submission status changed concurrently", ErrInvalidTransition, "id", id, "from", from)
}

func (r *jobSubmissionRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := r.log.Function("Delete")

	result := tx.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&JobSubmission{})

	if result.Error != nil {
		return log.Err("failed to delete job submission", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return log.Err("job submission not found", types.ErrNotFound, "id", id)
	}

	return nil
}

func (r *jobSubmissionRepository) AttachAIReport(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	report string,
) error {
	return r.Update(ctx, tx, id, map[string]any{
		"ai_report":              report,
		"ai_report_generated_at": time.Now().UTC(),
	})
}
