package userController

import (
	"context"
	"palcontent/config"
	"palcontent/internal/database"
	. "palcontent/internal/models"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/types"
	"palcontent/internal/utils"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxPreferenceLength = 500

var (
	validThemes      = []string{"light", "dark", "system"}
	validTableStyles = []string{"comfortable", "compact", "striped"}
)

type avatarUploader interface {
	UploadAvatar(ctx context.Context, userID uuid.UUID, contentType string, data []byte) (string, error)
}

// UpdateProfileRequest carries only the fields being changed.
type UpdateProfileRequest struct {
	FullName    *string      `json:"fullName,omitempty" validate:"omitempty,max=120"`
	Phone       *string      `json:"phone,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

type UserController struct {
	userRepo repositories.UserRepository
	storage  avatarUploader
	db       database.DB
	Config   config.Config
	log      logger.Logger
}

type UserControllerInterface interface {
	GetProfile(ctx context.Context, user *User) Profile
	UpdateProfile(ctx context.Context, user *User, req UpdateProfileRequest) (*Profile, error)
	UploadAvatar(ctx context.Context, user *User, contentType string, data []byte) (*Profile, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) UserControllerInterface {
	return &UserController{
		userRepo: repos.User,
		storage:  services.Storage,
		db:       db,
		Config:   config,
		log:      logger.New("userController"),
	}
}

func (uc *UserController) GetProfile(ctx context.Context, user *User) Profile {
	return user.ToProfile()
}

func (uc *UserController) UpdateProfile(
	ctx context.Context,
	user *User,
	req UpdateProfileRequest,
) (*Profile, error) {
	log := uc.log.TraceFromContext(ctx).Function("UpdateProfile")

	if details := utils.ValidateStruct(req); len(details) > 0 {
		return nil, log.Err("invalid profile update", types.NewFieldError(details...), "userID", user.ID)
	}
	if req.FullName == nil && req.Phone == nil && req.Preferences == nil {
		return nil, log.Err("nothing to update", types.NewFieldError("no fields to update"), "userID", user.ID)
	}

	updated := *user
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, log.Err("empty name", types.NewFieldError("fullName is required"))
		}
		updated.FullName = name
	}

	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone != "" {
			if !utils.IsValidPhone(phone) {
				return nil, log.Err("invalid phone", types.NewFieldError("phone must be a valid phone number"))
			}
			phone = utils.NormalizePhone(phone)
		}
		updated.Phone = phone
	}

	if req.Preferences != nil {
		preferences, details := mergePreferences(user.Preferences.Data(), *req.Preferences)
		if len(details) > 0 {
			return nil, log.Err("invalid preferences", types.NewFieldError(details...), "userID", user.ID)
		}
		updated.Preferences = datatypes.NewJSONType(preferences)
	}

	if err := uc.userRepo.Update(ctx, uc.db.SQL, &updated); err != nil {
		return nil, log.Err("failed to update profile", err, "userID", user.ID)
	}

	*user = updated
	profile := user.ToProfile()
	return &profile, nil
}

// mergePreferences applies the non-empty incoming values over the stored ones.
func mergePreferences(current Preferences, incoming Preferences) (Preferences, []string) {
	var details []string

	if theme := strings.ToLower(strings.TrimSpace(incoming.Theme)); theme != "" {
		if !contains(validThemes, theme) {
			details = append(details, "theme must be one of: "+strings.Join(validThemes, " "))
		}
		current.Theme = theme
	}
	if style := strings.ToLower(strings.TrimSpace(incoming.TableStyle)); style != "" {
		if !contains(validTableStyles, style) {
			details = append(details, "tableStyle must be one of: "+strings.Join(validTableStyles, " "))
		}
		current.TableStyle = style
	}
	if logo := strings.TrimSpace(incoming.LogoURL); logo != "" {
		if len(logo) > maxPreferenceLength || !strings.HasPrefix(logo, "https://") {
			details = append(details, "logoUrl must be an https URL")
		}
		current.LogoURL = logo
	}

	return current, details
}

func (uc *UserController) UploadAvatar(
	ctx context.Context,
	user *User,
	contentType string,
	data []byte,
) (*Profile, error) {
	log := uc.log.TraceFromContext(ctx).Function("UploadAvatar")

	url, err := uc.storage.UploadAvatar(ctx, user.ID, contentType, data)
	if err != nil {
		return nil, err
	}

	updated := *user
	updated.AvatarURL = url
	if err := uc.userRepo.Update(ctx, uc.db.SQL, &updated); err != nil {
		return nil, log.Err("failed to save avatar url", err, "userID", user.ID)
	}

	*user = updated
	profile := user.ToProfile()
	return &profile, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
