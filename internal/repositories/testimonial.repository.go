package repositories

import (
	"context"
	. "palcontent/internal/models"
	"palcontent/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestimonialRepository interface {
	Create(ctx context.Context, tx *gorm.DB, testimonial *Testimonial) error
	List(
		ctx context.Context,
		tx *gorm.DB,
		franchiseeID *uuid.UUID,
		status TestimonialStatus,
	) ([]*Testimonial, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Testimonial, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
}

type testimonialRepository struct {
	log logger.Logger
}

func NewTestimonialRepository() TestimonialRepository {
	return &testimonialRepository{
		log: logger.New("testimonialRepository"),
	}
}

func (r *testimonialRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	testimonial *Testimonial,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(testimonial).Error; err != nil {
		return log.Err("failed to create testimonial", err, "franchiseeID", testimonial.FranchiseeID)
	}

	return nil
}

// List returns testimonials newest first. A nil franchisee lists every franchise.
func (r *testimonialRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	franchiseeID *uuid.UUID,
	status TestimonialStatus,
) ([]*Testimonial, error) {
	log := r.log.Function("List")

	query := tx.WithContext(ctx)
	if franchiseeID != nil {
		query = query.Where("franchisee_id = ?", *franchiseeID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var testimonials []*Testimonial
	if err := query.Order("created_at DESC").Find(&testimonials).Error; err != nil {
		return nil, log.Err("failed to list testimonials", err)
	}

	return testimonials, nil
}

func (r *testimonialRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Testimonial, error) {
	var testimonial Testimonial
	if err := tx.WithContext(ctx).First(&testimonial, "id = ?", id).Error; err != nil {
		return nil, r.log.Function("GetByID").Err("failed to get testimonial", notFound(err), "id", id)
	}

	return &testimonial, nil
}

func (r *testimonialRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).
		Model(&Testimonial{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return log.Err("failed to update testimonial", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return log.Err("testimonial not found", types.ErrNotFound, "id", id)
	}

	return nil
}
