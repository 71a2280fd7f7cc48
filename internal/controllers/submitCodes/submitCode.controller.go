package submitCodeController

import (
	"context"
	"errors"
	"palcontent/internal/database"
	"palcontent/internal/models"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/types"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type MatchedBy string

const (
	MatchedByCode  MatchedBy = "code"
	MatchedByPhone MatchedBy = "phone"
)

type TechnicianSummary struct {
	ID         uuid.UUID             `json:"id"`
	Name       string                `json:"name"`
	SubmitCode string                `json:"submitCode"`
	Role       models.TechnicianRole `json:"role"`
}

type FranchiseeSummary struct {
	ID           uuid.UUID `json:"id"`
	BusinessName string    `json:"businessName"`
	CodePrefix   string    `json:"codePrefix"`
	LogoURL      string    `json:"logoUrl,omitempty"`
}

type ValidationResult struct {
	Valid      bool               `json:"valid"`
	Technician *TechnicianSummary `json:"technician,omitempty"`
	Franchisee *FranchiseeSummary `json:"franchisee,omitempty"`
	MatchedBy  MatchedBy          `json:"matchedBy,omitempty"`
}

type rateLimiter interface {
	Allow(ctx context.Context, limit services.RateLimit, subject string) error
}

type SubmitCodeController struct {
	technicians repositories.TechnicianRepository
	franchisees repositories.FranchiseeRepository
	limiter     rateLimiter
	db          database.DB
	log         logger.Logger
}

type SubmitCodeControllerInterface interface {
	Validate(ctx context.Context, clientIP string, code string) (*ValidationResult, error)
}

func New(repos repositories.Repository, services services.Service, db database.DB) SubmitCodeControllerInterface {
	return &SubmitCodeController{
		technicians: repos.Technician,
		franchisees: repos.Franchisee,
		limiter:     services.RateLimiter,
		db:          db,
		log:         logger.New("submitCodeController"),
	}
}

// Validate resolves a technician from their submit code. Attempts are counted
// per client address before anything else, so guessing codes is throttled.
// Malformed codes are rejected with ErrInvalidCode before any lookup. A code
// whose number does not match falls back to the last four digits of a
// technician's phone within the franchise owning the prefix.
func (c *SubmitCodeController) Validate(ctx context.Context, clientIP string, code string) (*ValidationResult, error) {
	log := c.log.TraceFromContext(ctx).Function("Validate")

	if err := c.limiter.Allow(ctx, services.SubmitCodeLimit, clientIP); err != nil {
		return nil, err
	}

	code = models.NormalizeSubmitCode(code)
	if !models.SubmitCodePattern.MatchString(code) {
		return nil, log.Err("malformed submit code", types.ErrInvalidCode, "code", code)
	}

	technician, err := c.technicians.GetBySubmitCode(ctx, c.db.SQL, code)
	switch {
	case err == nil:
		if technician.Franchisee != nil && !technician.Franchisee.IsActive {
			return nil, log.Err("franchise is inactive", types.ErrNotFound, "code", code)
		}
		return newResult(technician, technician.Franchisee, MatchedByCode), nil
	case !errors.Is(err, types.ErrNotFound):
		return nil, err
	}

	prefix, digits, _ := strings.Cut(code, "-")
	franchisee, err := c.franchisees.GetByCodePrefix(ctx, c.db.SQL, prefix)
	if err != nil {
		return nil, err
	}

	technician, err = c.technicians.FindByPhoneSuffix(ctx, c.db.SQL, franchisee.ID, digits)
	if err != nil {
		return nil, err
	}

	log.Info("submit code matched by phone", "technicianID", technician.ID, "prefix", prefix)
	return newResult(technician, franchisee, MatchedByPhone), nil
}

func newResult(technician *models.Technician, franchisee *models.Franchisee, matchedBy MatchedBy) *ValidationResult {
	result := &ValidationResult{
		Valid: true,
		Technician: &TechnicianSummary{
			ID:         technician.ID,
			Name:       technician.Name,
			SubmitCode: technician.SubmitCode,
			Role:       technician.Role,
		},
		MatchedBy: matchedBy,
	}
	if franchisee != nil {
		result.Franchisee = &FranchiseeSummary{
			ID:           franchisee.ID,
			BusinessName: franchisee.BusinessName,
			CodePrefix:   franchisee.CodePrefix,
			LogoURL:      franchisee.LogoURL,
		}
	}
	return result
}
