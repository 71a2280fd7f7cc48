package repositories

import (
	"context"
	"palcontent/internal/constants"
	"palcontent/internal/database"
	. "palcontent/internal/models"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FranchiseeRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Franchisee, error)
	GetByCodePrefix(ctx context.Context, tx *gorm.DB, prefix string) (*Franchisee, error)
	Create(ctx context.Context, tx *gorm.DB, franchisee *Franchisee) error
}

type franchiseeRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewFranchiseeRepository(cache database.CacheClient) FranchiseeRepository {
	return &franchiseeRepository{
		cache: cache,
		log:   logger.New("franchiseeRepository"),
	}
}

func (r *franchiseeRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Franchisee, error) {
	log := r.log.Function("GetByID")

	var franchisee Franchisee
	found, err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.FranchiseeCachePrefix).
		Get(&franchisee)
	if err != nil {
		log.Warn("failed to get franchisee from cache", "franchiseeID", id, "error", err)
	}
	if found {
		return &franchisee, nil
	}

	if err := tx.WithContext(ctx).First(&franchisee, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get franchisee", notFound(err), "franchiseeID", id)
	}

	if err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.FranchiseeCachePrefix).
		WithStruct(franchisee).
		WithTTL(constants.FranchiseeCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache franchisee", "franchiseeID", id, "error", err)
	}

	return &franchisee, nil
}

func (r *franchiseeRepository) GetByCodePrefix(
	ctx context.Context,
	tx *gorm.DB,
	prefix string,
) (*Franchisee, error) {
	log := r.log.Function("GetByCodePrefix")

	var franchisee Franchisee
	if err := tx.WithContext(ctx).
		Where("code_prefix = ? AND is_active = ?", strings.ToUpper(prefix), true).
		First(&franchisee).Error; err != nil {
		return nil, log.Err("failed to get franchisee by code prefix", notFound(err), "prefix", prefix)
	}

	return &franchisee, nil
}

func (r *franchiseeRepository) Create(ctx context.Context, tx *gorm.DB, franchisee *Franchisee) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(franchisee).Error; err != nil {
		return log.Err("failed to create franchisee", err, "businessName", franchisee.BusinessName)
	}

	return nil
}
