package repositories

import (
	"context"
	"palcontent/internal/constants"
	"palcontent/internal/database"
	. "palcontent/internal/models"
	"palcontent/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TechnicianRepository interface {
	List(ctx context.Context, tx *gorm.DB, franchiseeID uuid.UUID) ([]*Technician, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Technician, error)
	GetBySubmitCode(ctx context.Context, tx *gorm.DB, code string) (*Technician, error)
	FindByPhoneSuffix(
		ctx context.Context,
		tx *gorm.DB,
		franchiseeID uuid.UUID,
		suffix string,
	) (*Technician, error)
	SubmitCodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error)
	CountByFranchisee(ctx context.Context, tx *gorm.DB, franchiseeID uuid.UUID) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, technician *Technician) error
	Update(
		ctx context.Context,
		tx *gorm.DB,
		franchiseeID uuid.UUID,
		id uuid.UUID,
		updates map[string]any,
	) error
	Delete(ctx context.Context, tx *gorm.DB, franchiseeID uuid.UUID, id uuid.UUID) error
}

type technicianRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewTechnicianRepository(cache database.CacheClient) TechnicianRepository {
	return &technicianRepository{
		cache: cache,
		log:   logger.New("technicianRepository"),
	}
}

func (r *technicianRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	franchiseeID uuid.UUID,
) ([]*Technician, error) {
	log := r.log.Function("List")

	var cached []*Technician
	found, err := database.NewCacheBuilder(r.cache, franchiseeID).
		WithContext(ctx).
		WithHash(constants.TechnicianRosterPrefix).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get technicians from cache", "franchiseeID", franchiseeID, "error", err)
	}
	if found {
		return cached, nil
	}

	var technicians []*Technician
	if err := tx.WithContext(ctx).
		Where("franchisee_id = ?", franchiseeID).
		Order("name ASC").
		Find(&technicians).Error; err != nil {
		return nil, log.Err("failed to list technicians", err, "franchiseeID", franchiseeID)
	}

	if err := database.NewCacheBuilder(r.cache, franchiseeID).
		WithContext(ctx).
		WithHash(constants.TechnicianRosterPrefix).
		WithStruct(technicians).
		WithTTL(constants.TechnicianRosterExpiry).
		Set(); err != nil {
		log.Warn("failed to cache technicians", "franchiseeID", franchiseeID, "error", err)
	}

	return technicians, nil
}

func (r *technicianRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Technician, error) {
	log := r.log.Function("GetByID")

	var technician Technician
	if err := tx.WithContext(ctx).First(&technician, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get technician", notFound(err), "technicianID", id)
	}

	return &technician, nil
}

func (r *technicianRepository) GetBySubmitCode(
	ctx context.Context,
	tx *gorm.DB,
	code string,
) (*Technician, error) {
	log := r.log.Function("GetBySubmitCode")

	var technician Technician
	if err := tx.WithContext(ctx).
		Preload("Franchisee").
		Where("submit_code = ? AND is_active = ?", code, true).
		First(&technician).Error; err != nil {
		return nil, log.Err("failed to get technician by submit code", notFound(err), "code", code)
	}

	return &technician, nil
}

// FindByPhoneSuffix returns the first active technician of the franchise whose
// phone number ends with suffix. Phone numbers are stored formatted, so the
// comparison runs on digits only.
func (r *technicianRepository) FindByPhoneSuffix(
	ctx context.Context,
	tx *gorm.DB,
	franchiseeID uuid.UUID,
	suffix string,
) (*Technician, error) {
	log := r.log.Function("FindByPhoneSuffix")

	var technicians []*Technician
	if err := tx.WithContext(ctx).
		Preload("Franchisee").
		Where("franchisee_id = ? AND is_active = ?", franchiseeID, true).
		Order("created_at ASC").
		Find(&technicians).Error; err != nil {
		return nil, log.Err("failed to list technicians", err, "franchiseeID", franchiseeID)
	}

	for _, technician := range technicians {
		if technician.PhoneSuffix(len(suffix)) == suffix {
			return technician, nil
		}
	}

	return nil, log.Err("no technician matches phone suffix", types.ErrNotFound, "franchiseeID", franchiseeID)
}

func (r *technicianRepository) SubmitCodeExists(
	ctx context.Context,
	tx *gorm.DB,
	code string,
) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).
		Unscoped().
		Model(&Technician{}).
		Where("submit_code = ?", code).
		Count(&count).Error; err != nil {
		return false, r.log.Function("SubmitCodeExists").Err("failed to check submit code", err, "code", code)
	}

	return count > 0, nil
}

func (r *technicianRepository) CountByFranchisee(
	ctx context.Context,
	tx *gorm.DB,
	franchiseeID uuid.UUID,
) (int64, error) {
	var count int64
	if err := tx.WithContext(ctx).
		Unscoped().
		Model(&Technician{}).
		Where("franchisee_id = ?", franchiseeID).
		Count(&count).Error; err != nil {
		return 0, r.log.Function("CountByFranchisee").
			Err("failed to count technicians", err, "franchiseeID", franchiseeID)
	}

	return count, nil
}

func (r *technicianRepository) Create(ctx context.Context, tx *gorm.DB, technician *Technician) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(technician).Error; err != nil {
		return log.Err("failed to create technician", err, "franchiseeID", technician.FranchiseeID)
	}

	r.clearRosterCache(ctx, technician.FranchiseeID)

	return nil
}

func (r *technicianRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	franchiseeID uuid.UUID,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).
		Model(&Technician{}).
		Where("id = ? AND franchisee_id = ?", id, franchiseeID).
		Updates(updates)

	if result.Error != nil {
		return log.Err("failed to update technician", result.Error, "technicianID", id)
	}

	if result.RowsAffected == 0 {
		return log.Err(
			"technician not found or not owned by franchise",
			types.ErrNotFound,
			"technicianID",
			id,
			"franchiseeID",
			franchiseeID,
		)
	}

	r.clearRosterCache(ctx, franchiseeID)

	return nil
}

func (r *technicianRepository) Delete(
	ctx context.Context,
	tx *gorm.DB,
	franchiseeID uuid.UUID,
	id uuid.UUID,
) error {
	log := r.log.Function("Delete")

	result := tx.WithContext(ctx).
		Where("id = ? AND franchisee_id = ?", id, franchiseeID).
		Delete(&Technician{})

	if result.Error != nil {
		return log.Err("failed to delete technician", result.Error, "technicianID", id)
	}

	if result.RowsAffected == 0 {
		return log.Err(
			"technician not found or not owned by franchise",
			types.ErrNotFound,
			"technicianID",
			id,
			"franchiseeID",
			franchiseeID,
		)
	}

	r.clearRosterCache(ctx, franchiseeID)

	return nil
}

func (r *technicianRepository) clearRosterCache(ctx context.Context, franchiseeID uuid.UUID) {
	if err := database.NewCacheBuilder(r.cache, franchiseeID).
		WithContext(ctx).
		WithHash(constants.TechnicianRosterPrefix).
		Delete(); err != nil {
		r.log.Warn("failed to clear technician roster cache", "franchiseeID", franchiseeID, "error", err)
	}
}
