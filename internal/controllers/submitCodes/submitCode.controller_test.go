package submitCodeController

import (
	"context"
	"errors"
	"palcontent/internal/models"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/testutil"
	"palcontent/internal/types"
	"testing"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingTechnicians struct {
	repositories.TechnicianRepository
	calls int
}

func (c *countingTechnicians) GetBySubmitCode(ctx context.Context, tx *gorm.DB, code string) (*models.Technician, error) {
	c.calls++
	return c.TechnicianRepository.GetBySubmitCode(ctx, tx, code)
}

const testClientIP = "203.0.113.7"

type countingLimiter struct {
	limit    int
	attempts map[string]int
}

func (l *countingLimiter) Allow(ctx context.Context, limit services.RateLimit, subject string) error {
	l.attempts[subject]++
	if l.limit > 0 && l.attempts[subject] > l.limit {
		return services.ErrRateLimited
	}
	return nil
}

func newController(t *testing.T) (*SubmitCodeController, *countingTechnicians, *models.Technician) {
	t.Helper()
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	technicians := &countingTechnicians{TechnicianRepository: repos.Technician}
	controller := &SubmitCodeController{
		technicians: technicians,
		franchisees: repos.Franchisee,
		limiter:     &countingLimiter{attempts: map[string]int{}},
		db:          db,
		log:         logger.New("submitCodeController"),
	}
	franchisee := testutil.SeedFranchisee(t, db, "ABC")
	technician := testutil.SeedTechnician(t, db, franchisee, "ABC-0001", "(555) 123-4567")
	return controller, technicians, technician
}

func TestValidate_RejectsMalformedBeforeLookup(t *testing.T) {
	controller, technicians, _ := newController(t)

	for _, code := range []string{"", "AB-1234", "ABCDE-1234", "ABC-123", "ABC1234", "ABC-12345", "A1C-1234"} {
		t.Run(code, func(t *testing.T) {
			result, err := controller.Validate(context.Background(), testClientIP, code)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, types.ErrInvalidCode))
		})
	}
	assert.Zero(t, technicians.calls)
}

func TestValidate_ExactMatch(t *testing.T) {
	controller, _, technician := newController(t)

	result, err := controller.Validate(context.Background(), testClientIP, "  abc-0001 ")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, MatchedByCode, result.MatchedBy)
	assert.Equal(t, technician.ID, result.Technician.ID)
	require.NotNil(t, result.Franchisee)
	assert.Equal(t, "ABC", result.Franchisee.CodePrefix)
}

func TestValidate_PhoneSuffixFallback(t *testing.T) {
	controller, _, technician := newController(t)

	result, err := controller.Validate(context.Background(), testClientIP, "ABC-4567")
	require.NoError(t, err)
	assert.Equal(t, MatchedByPhone, result.MatchedBy)
	assert.Equal(t, technician.ID, result.Technician.ID)

	_, err = controller.Validate(context.Background(), testClientIP, "ABC-9999")
	assert.True(t, errors.Is(err, types.ErrNotFound))

	_, err = controller.Validate(context.Background(), testClientIP, "XYZ-4567")
	assert.True(t, errors.Is(err, types.ErrNotFound), "prefix with no franchise")
}

func TestValidate_InactiveTechnician(t *testing.T) {
	controller, _, technician := newController(t)
	require.NoError(t, controller.db.SQL.Model(technician).Update("is_active", false).Error)

	_, err := controller.Validate(context.Background(), testClientIP, "ABC-0001")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestValidate_ThrottledPerClient(t *testing.T) {
	controller, technicians, _ := newController(t)
	limiter := &countingLimiter{limit: 2, attempts: map[string]int{}}
	controller.limiter = limiter

	_, err := controller.Validate(context.Background(), testClientIP, "ABC-0001")
	require.NoError(t, err)
	_, err = controller.Validate(context.Background(), testClientIP, "not-a-code")
	assert.True(t, errors.Is(err, types.ErrInvalidCode), "malformed attempts still count")

	_, err = controller.Validate(context.Background(), testClientIP, "ABC-0001")
	assert.True(t, errors.Is(err, services.ErrRateLimited))
	assert.Equal(t, 1, technicians.calls, "throttled attempts never reach the lookup")

	_, err = controller.Validate(context.Background(), "198.51.100.2", "ABC-0001")
	assert.NoError(t, err, "other clients keep their own budget")
}
