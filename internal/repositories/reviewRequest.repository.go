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

type ReviewRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *ReviewRequest) error
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (*ReviewRequest, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	RecordClick(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
}

type reviewRequestRepository struct {
	log logger.Logger
}

func NewReviewRequestRepository() ReviewRequestRepository {
	return &reviewRequestRepository{
		log: logger.New("reviewRequestRepository"),
	}
}

func (r *reviewRequestRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	request *ReviewRequest,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(request).Error; err != nil {
		return log.Err("failed to create review request", err, "franchiseeID", request.FranchiseeID)
	}

	return nil
}

func (r *reviewRequestRepository) GetByToken(
	ctx context.Context,
	tx *gorm.DB,
	token string,
) (*ReviewRequest, error) {
	var request ReviewRequest
	if err := tx.WithContext(ctx).First(&request, "token = ?", token).Error; err != nil {
		return nil, r.log.Function("GetByToken").Err("failed to get review request", notFound(err))
	}

	return &request, nil
}

func (r *reviewRequestRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).
		Model(&ReviewRequest{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return log.Err("failed to update review request", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return log.Err("review request not found", types.ErrNotFound, "id", id)
	}

	return nil
}

// RecordClick keeps the first click time and counts every redirect.
func (r *reviewRequestRepository) RecordClick(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	at time.Time,
) error {
	log := r.log.Function("RecordClick")

	result := tx.WithContext(ctx).
		Model(&ReviewRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"click_count": gorm.Expr("click_count + 1"),
			"clicked_at":  gorm.Expr("COALESCE(clicked_at, ?)", at),
		})

	if result.Error != nil {
		return log.Err("failed to record review click", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return log.Err("review request not found", types.ErrNotFound, "id", id)
	}

	return nil
}
