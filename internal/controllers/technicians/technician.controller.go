package technicianController

import (
	"context"
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
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxCodeAttempts = 100

type inviter interface {
	InviteUser(ctx context.Context, email string, redirectTo string, metadata map[string]any) (string, error)
}

type CreateRequest struct {
	FranchiseeID *uuid.UUID            `json:"franchiseeId,omitempty"`
	Name         string                `json:"name"                   validate:"required,max=120"`
	Email        string                `json:"email"                  validate:"omitempty,email"`
	Phone        string                `json:"phone"`
	Role         models.TechnicianRole `json:"role"                   validate:"omitempty,oneof=technician lead apprentice"`
	SubmitCode   string                `json:"submitCode,omitempty"`
	Specialties  []string              `json:"specialties"`
}

type UpdateRequest struct {
	Name        *string                `json:"name,omitempty"        validate:"omitempty,min=1,max=120"`
	Email       *string                `json:"email,omitempty"       validate:"omitempty,email"`
	Phone       *string                `json:"phone,omitempty"`
	Role        *models.TechnicianRole `json:"role,omitempty"        validate:"omitempty,oneof=technician lead apprentice"`
	IsActive    *bool                  `json:"isActive,omitempty"`
	Rating      *decimal.Decimal       `json:"rating,omitempty"`
	Specialties *[]string              `json:"specialties,omitempty"`
}

type InviteRequest struct {
	TechnicianID uuid.UUID `json:"technicianId"    validate:"required"`
	Email        string    `json:"email,omitempty" validate:"omitempty,email"`
}

type InviteResult struct {
	Technician *models.Technician `json:"technician"`
	AuthUserID string             `json:"authUserId"`
}

type TechnicianController struct {
	repos   repositories.Repository
	db      database.DB
	config  config.Config
	inviter inviter
	tx      *services.TransactionService
	log     logger.Logger
}

type TechnicianControllerInterface interface {
	List(ctx context.Context, user *models.User, franchiseeID *uuid.UUID) ([]*models.Technician, error)
	Create(ctx context.Context, user *models.User, req CreateRequest) (*models.Technician, error)
	Update(ctx context.Context, user *models.User, id uuid.UUID, req UpdateRequest) (*models.Technician, error)
	Delete(ctx context.Context, user *models.User, id uuid.UUID) error
	Invite(ctx context.Context, user *models.User, req InviteRequest) (*InviteResult, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) TechnicianControllerInterface {
	return &TechnicianController{
		repos:   repos,
		db:      db,
		config:  config,
		inviter: services.Auth,
		tx:      services.Transaction,
		log:     logger.New("technicianController"),
	}
}

// requireManager keeps roster changes with franchisees and admins.
func (c *TechnicianController) requireManager(ctx context.Context, user *models.User) error {
	if user.HasRole(models.RoleAdmin, models.RoleFranchisee) {
		return nil
	}
	return c.log.TraceFromContext(ctx).Function("requireManager").
		Err("roster is managed by franchisees", types.ErrForbidden, "userID", user.ID)
}

func (c *TechnicianController) List(
	ctx context.Context,
	user *models.User,
	franchiseeID *uuid.UUID,
) ([]*models.Technician, error) {
	log := c.log.TraceFromContext(ctx).Function("List")

	if err := c.requireManager(ctx, user); err != nil {
		return nil, err
	}

	id, ok := user.FranchiseFor(franchiseeID)
	if !ok {
		return nil, log.Err("franchise not accessible", types.NewFieldError("franchiseeId is required"), "userID", user.ID)
	}

	return c.repos.Technician.List(ctx, c.db.SQL, id)
}

func (c *TechnicianController) Create(
	ctx context.Context,
	user *models.User,
	req CreateRequest,
) (*models.Technician, error) {
	log := c.log.TraceFromContext(ctx).Function("Create")

	if err := c.requireManager(ctx, user); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if details := utils.ValidateStruct(req); len(details) > 0 {
		return nil, log.Err("invalid technician", types.NewFieldError(details...))
	}

	franchiseeID, ok := user.FranchiseFor(req.FranchiseeID)
	if !ok {
		return nil, log.Err("franchise not accessible", types.NewFieldError("franchiseeId is required"), "userID", user.ID)
	}

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, log.Err("invalid technician phone", err)
	}

	franchisee, err := c.repos.Franchisee.GetByID(ctx, c.db.SQL, franchiseeID)
	if err != nil {
		return nil, err
	}

	technician := &models.Technician{
		FranchiseeID: franchiseeID,
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        phone,
		Role:         req.Role,
		IsActive:     true,
		Specialties:  cleanList(req.Specialties),
	}

	err = c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		code, err := c.resolveSubmitCode(ctx, tx, franchisee, req.SubmitCode)
		if err != nil {
			return err
		}
		technician.SubmitCode = code
		return c.repos.Technician.Create(ctx, tx, technician)
	})
	if err != nil {
		return nil, log.Err("failed to create technician", err, "franchiseeID", franchiseeID)
	}

	log.Info("technician created", "technicianID", technician.ID, "submitCode", technician.SubmitCode)
	return technician, nil
}

// resolveSubmitCode validates a supplied code or generates the next free one
// from the franchise prefix.
func (c *TechnicianController) resolveSubmitCode(
	ctx context.Context,
	tx *gorm.DB,
	franchisee *models.Franchisee,
	requested string,
) (string, error) {
	log := c.log.TraceFromContext(ctx).Function("resolveSubmitCode")

	if requested = models.NormalizeSubmitCode(requested); requested != "" {
		if !models.SubmitCodePattern.MatchString(requested) {
			return "", log.Err("malformed submit code", types.NewFieldError("submitCode must look like ABC-1234"))
		}
		if !strings.HasPrefix(requested, franchisee.CodePrefix+"-") {
			return "", log.Err("submit code prefix mismatch", types.NewFieldError("submitCode must start with "+franchisee.CodePrefix))
		}
		exists, err := c.repos.Technician.SubmitCodeExists(ctx, tx, requested)
		if err != nil {
			return "", err
		}
		if exists {
			return "", log.Err("submit code taken", types.NewFieldError("submitCode is already in use"))
		}
		return requested, nil
	}

	count, err := c.repos.Technician.CountByFranchisee(ctx, tx, franchisee.ID)
	if err != nil {
		return "", err
	}

	return GenerateSubmitCode(franchisee.CodePrefix, int(count)+1, func(code string) (bool, error) {
		return c.repos.Technician.SubmitCodeExists(ctx, tx, code)
	})
}

// GenerateSubmitCode returns the first unused code at or after start.
func GenerateSubmitCode(prefix string, start int, exists func(code string) (bool, error)) (string, error) {
	for attempt := range maxCodeAttempts {
		code := models.FormatSubmitCode(prefix, start+attempt)
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", types.NewFieldError("no free submit code for prefix " + prefix)
}

func (c *TechnicianController) scoped(
	ctx context.Context,
	user *models.User,
	id uuid.UUID,
) (*models.Technician, error) {
	if err := c.requireManager(ctx, user); err != nil {
		return nil, err
	}

	technician, err := c.repos.Technician.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}
	if !user.CanAccessFranchise(technician.FranchiseeID) {
		return nil, c.log.TraceFromContext(ctx).Function("scoped").
			Err("technician outside caller's franchise", types.ErrNotFound, "technicianID", id)
	}
	return technician, nil
}

func (c *TechnicianController) Update(
	ctx context.Context,
	user *models.User,
	id uuid.UUID,
	req UpdateRequest,
) (*models.Technician, error) {
	log := c.log.TraceFromContext(ctx).Function("Update")

	if details := utils.ValidateStruct(req); len(details) > 0 {
		return nil, log.Err("invalid technician update", types.NewFieldError(details...))
	}

	technician, err := c.scoped(ctx, user, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, log.Err("empty technician name", types.NewFieldError("name is required"))
		}
		updates["name"] = name
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		phone, err := normalizePhone(*req.Phone)
		if err != nil {
			return nil, log.Err("invalid technician phone", err)
		}
		updates["phone"] = phone
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Rating != nil {
		if req.Rating.IsNegative() || req.Rating.GreaterThan(decimal.NewFromInt(5)) {
			return nil, log.Err("rating out of range", types.NewFieldError("rating must be between 0 and 5"))
		}
		updates["rating"] = req.Rating.Round(2)
	}
	if req.Specialties != nil {
		updates["specialties"] = datatypes.JSONSlice[string](cleanList(*req.Specialties))
	}
	if len(updates) == 0 {
		return nil, log.Err("nothing to update", types.NewFieldError("no fields to update"))
	}

	if err := c.repos.Technician.Update(ctx, c.db.SQL, technician.FranchiseeID, id, updates); err != nil {
		return nil, err
	}

	return c.repos.Technician.GetByID(ctx, c.db.SQL, id)
}

// Delete soft-deletes the technician; the submit code stays reserved.
func (c *TechnicianController) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	technician, err := c.scoped(ctx, user, id)
	if err != nil {
		return err
	}
	return c.repos.Technician.Delete(ctx, c.db.SQL, technician.FranchiseeID, id)
}

// Invite sends a magic link and pre-provisions the technician's login so the
// first sign-in lands on the right franchise.
func (c *TechnicianController) Invite(
	ctx context.Context,
	user *models.User,
	req InviteRequest,
) (*InviteResult, error) {
	log := c.log.TraceFromContext(ctx).Function("Invite")

	if details := utils.ValidateStruct(req); len(details) > 0 {
		return nil, log.Err("invalid invite", types.NewFieldError(details...))
	}

	technician, err := c.scoped(ctx, user, req.TechnicianID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = technician.Email
	}
	if !utils.IsValidEmail(email) {
		return nil, log.Err("technician has no email", types.NewFieldError("email is required"))
	}

	authUserID, err := c.inviter.InviteUser(ctx, email, strings.TrimRight(c.config.PublicAppURL, "/")+"/technician", map[string]any{
		"full_name":     technician.Name,
		"franchisee_id": technician.FranchiseeID.String(),
		"technician_id": technician.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	err = c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		login, err := c.repos.User.FindOrCreate(ctx, tx, &models.User{
			AuthUserID:   authUserID,
			Email:        &email,
			FullName:     technician.Name,
			Phone:        technician.Phone,
			Role:         models.RoleTechnician,
			FranchiseeID: &technician.FranchiseeID,
			TechnicianID: &technician.ID,
		})
		if err != nil {
			return err
		}
		if login.TechnicianID == nil || login.FranchiseeID == nil {
			login.TechnicianID = &technician.ID
			login.FranchiseeID = &technician.FranchiseeID
			if err := c.repos.User.Update(ctx, tx, login); err != nil {
				return err
			}
		}

		return c.repos.Technician.Update(ctx, tx, technician.FranchiseeID, technician.ID, map[string]any{
			"email":         email,
			"user_id":       login.ID,
			"invite_status": models.InviteStatusInvited,
			"invited_at":    time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, log.Err("failed to link invited technician", err, "technicianID", technician.ID)
	}

	updated, err := c.repos.Technician.GetByID(ctx, c.db.SQL, technician.ID)
	if err != nil {
		return nil, err
	}

	log.Info("technician invited", "technicianID", technician.ID, "authUserID", authUserID)
	return &InviteResult{Technician: updated, AuthUserID: authUserID}, nil
}

func normalizePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", nil
	}
	if !utils.IsValidPhone(phone) {
		return "", types.NewFieldError("phone must be a valid phone number")
	}
	return utils.NormalizePhone(phone), nil
}

func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			cleaned = append(cleaned, value)
		}
	}
	return cleaned
}
