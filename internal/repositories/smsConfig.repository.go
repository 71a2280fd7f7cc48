package repositories

import (
	"context"
	"errors"
	. "palcontent/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SMSConfig rows carry provider credentials, so they are never cached.
type SMSConfigRepository interface {
	GetByFranchisee(ctx context.Context, tx *gorm.DB, franchiseeID uuid.UUID) (*SMSConfig, error)
	Upsert(ctx context.Context, tx *gorm.DB, config *SMSConfig) error
}

type smsConfigRepository struct {
	log logger.Logger
}

func NewSMSConfigRepository() SMSConfigRepository {
	return &smsConfigRepository{
		log: logger.New("smsConfigRepository"),
	}
}

func (r *smsConfigRepository) GetByFranchisee(
	ctx context.Context,
	tx *gorm.DB,
	franchiseeID uuid.UUID,
) (*SMSConfig, error) {
	log := r.log.Function("GetByFranchisee")

	var config SMSConfig
	if err := tx.WithContext(ctx).
		First(&config, "franchisee_id = ?", franchiseeID).Error; err != nil {
		return nil, log.Err("failed to get sms config", notFound(err), "franchiseeID", franchiseeID)
	}

	return &config, nil
}

func (r *smsConfigRepository) Upsert(ctx context.Context, tx *gorm.DB, config *SMSConfig) error {
	log := r.log.Function("Upsert")

	var existing SMSConfig
	err := tx.WithContext(ctx).
		Select("id", "created_at").
		First(&existing, "franchisee_id = ?", config.FranchiseeID).Error
	switch {
	case err == nil:
		config.ID = existing.ID
		config.CreatedAt = existing.CreatedAt
		if err := tx.WithContext(ctx).Save(config).Error; err != nil {
			return log.Err("failed to update sms config", err, "franchiseeID", config.FranchiseeID)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.WithContext(ctx).Create(config).Error; err != nil {
			return log.Err("failed to create sms config", err, "franchiseeID", config.FranchiseeID)
		}
	default:
		return log.Err("failed to look up sms config", err, "franchiseeID", config.FranchiseeID)
	}

	return nil
}
