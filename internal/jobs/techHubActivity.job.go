package jobs

import (
	"context"
	"palcontent/internal/database"
	"palcontent/internal/models"
	"palcontent/internal/services"
	"palcontent/internal/types"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type activityHub interface {
	ActiveFranchises() []uuid.UUID
	SynthesizeActivity(ctx context.Context, franchiseeID uuid.UUID, roster []string) types.ChatMessage
}

type rosterSource interface {
	List(ctx context.Context, tx *gorm.DB, franchiseeID uuid.UUID) ([]*models.Technician, error)
}

// TechHubActivityJob keeps every open Tech Hub feed lively by posting a
// synthesized job-completion entry per franchise on each tick.
type TechHubActivityJob struct {
	hub      activityHub
	roster   rosterSource
	db       database.DB
	interval time.Duration
	log      logger.Logger
}

func NewTechHubActivityJob(
	hub activityHub,
	roster rosterSource,
	db database.DB,
	interval time.Duration,
) *TechHubActivityJob {
	log := logger.New("techHubActivityJob")
	log.Info("Creating Tech Hub activity job", "interval", interval)

	return &TechHubActivityJob{
		hub:      hub,
		roster:   roster,
		db:       db,
		interval: interval,
		log:      log,
	}
}

func (j *TechHubActivityJob) Name() string {
	return "TechHubActivity"
}

func (j *TechHubActivityJob) Schedule() services.Schedule {
	return services.Interval
}

func (j *TechHubActivityJob) Interval() time.Duration {
	return j.interval
}

func (j *TechHubActivityJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	franchises := j.hub.ActiveFranchises()
	for _, franchiseeID := range franchises {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.hub.SynthesizeActivity(ctx, franchiseeID, j.rosterNames(ctx, franchiseeID))
	}

	log.Debug("Tech Hub activity posted", "franchises", len(franchises))
	return nil
}

// rosterNames falls back to the hub's default roster when the franchise has
// no active technicians or the lookup fails.
func (j *TechHubActivityJob) rosterNames(ctx context.Context, franchiseeID uuid.UUID) []string {
	if j.roster == nil || j.db.SQL == nil {
		return nil
	}

	technicians, err := j.roster.List(ctx, j.db.SQLWithContext(ctx), franchiseeID)
	if err != nil {
		j.log.Function("rosterNames").Warn("failed to load roster", "franchiseeID", franchiseeID, "error", err)
		return nil
	}

	names := make([]string, 0, len(technicians))
	for _, technician := range technicians {
		if technician.IsActive && technician.Name != "" {
			names = append(names, technician.Name)
		}
	}
	return names
}
