package repositories

import (
	"context"
	"palcontent/internal/constants"
	"palcontent/internal/database"
	. "palcontent/internal/models"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	GetByAuthUserID(ctx context.Context, tx *gorm.DB, authUserID string) (*User, error)
	FindOrCreate(ctx context.Context, tx *gorm.DB, user *User) (*User, error)
	Update(ctx context.Context, tx *gorm.DB, user *User) error
	ClearCache(ctx context.Context, user *User)
}

type userRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewUserRepository(cache database.CacheClient) UserRepository {
	return &userRepository{
		cache: cache,
		log:   logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	found, err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		Get(&user)
	if err != nil {
		log.Warn("failed to get user from cache", "userID", id, "error", err)
	}
	if found {
		return &user, nil
	}

	if err := tx.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get user by id", notFound(err), "userID", id)
	}

	r.addToCache(ctx, &user)

	return &user, nil
}

func (r *userRepository) GetByAuthUserID(
	ctx context.Context,
	tx *gorm.DB,
	authUserID string,
) (*User, error) {
	log := r.log.Function("GetByAuthUserID")

	var userID string
	found, err := database.NewCacheBuilder(r.cache, authUserID).
		WithContext(ctx).
		WithHash(constants.UserAuthCachePrefix).
		Get(&userID)
	if err != nil {
		log.Warn("failed to get auth mapping from cache", "authUserID", authUserID, "error", err)
	}
	if found {
		if id, parseErr := uuid.Parse(userID); parseErr == nil {
			return r.GetByID(ctx, tx, id)
		}
	}

	var user User
	if err := tx.WithContext(ctx).First(&user, "auth_user_id = ?", authUserID).Error; err != nil {
		return nil, log.Err("failed to get user by auth user id", notFound(err), "authUserID", authUserID)
	}

	r.addToCache(ctx, &user)

	return &user, nil
}

// FindOrCreate resolves the IdP subject to a local user, linking an existing
// account by email before creating a new one.
func (r *userRepository) FindOrCreate(ctx context.Context, tx *gorm.DB, user *User) (*User, error) {
	log := r.log.Function("FindOrCreate")
	now := time.Now().UTC()

	var existing User
	err := tx.WithContext(ctx).First(&existing, "auth_user_id = ?", user.AuthUserID).Error
	if err == nil {
		existing.LastLoginAt = &now
		if err := r.Update(ctx, tx, &existing); err != nil {
			log.Warn("failed to stamp last login", "userID", existing.ID, "error", err)
		}
		return &existing, nil
	}

	if user.Email != nil && *user.Email != "" {
		err = tx.WithContext(ctx).First(&existing, "email = ?", *user.Email).Error
		if err == nil {
			existing.AuthUserID = user.AuthUserID
			existing.LastLoginAt = &now
			if err := r.Update(ctx, tx, &existing); err != nil {
				return nil, log.Err("failed to link existing user", err, "userID", existing.ID)
			}
			return &existing, nil
		}
	}

	user.IsActive = true
	user.LastLoginAt = &now
	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		return nil, log.Err("failed to create user", err, "authUserID", user.AuthUserID)
	}

	r.addToCache(ctx, user)

	return user, nil
}

func (r *userRepository) Update(ctx context.Context, tx *gorm.DB, user *User) error {
	log := r.log.Function("Update")

	if err := tx.WithContext(ctx).Save(user).Error; err != nil {
		return log.Err("failed to update user", err, "userID", user.ID)
	}

	r.ClearCache(ctx, user)

	return nil
}

func (r *userRepository) ClearCache(ctx context.Context, user *User) {
	log := r.log.Function("ClearCache")

	if err := database.NewCacheBuilder(r.cache, user.ID).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		Delete(); err != nil {
		log.Warn("failed to clear user cache", "userID", user.ID, "error", err)
	}

	if user.AuthUserID == "" {
		return
	}

	if err := database.NewCacheBuilder(r.cache, user.AuthUserID).
		WithContext(ctx).
		WithHash(constants.UserAuthCachePrefix).
		Delete(); err != nil {
		log.Warn("failed to clear auth mapping cache", "authUserID", user.AuthUserID, "error", err)
	}
}

func (r *userRepository) addToCache(ctx context.Context, user *User) {
	log := r.log.Function("addToCache")

	if err := database.NewCacheBuilder(r.cache, user.ID).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix).
		WithStruct(user).
		WithTTL(constants.UserCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to add user to cache", "userID", user.ID, "error", err)
	}

	if err := database.NewCacheBuilder(r.cache, user.AuthUserID).
		WithContext(ctx).
		WithHash(constants.UserAuthCachePrefix).
		WithStruct(user.ID.String()).
		WithTTL(constants.UserCacheExpiry).
		Set(); err != nil {
		log.Warn("failed to cache auth mapping", "authUserID", user.AuthUserID, "error", err)
	}
}
