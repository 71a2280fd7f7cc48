package jobs

import (
	"palcontent/config"
	"palcontent/internal/database"
	"palcontent/internal/repositories"
	"palcontent/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
	repos repositories.Repository,
	db database.DB,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	activityJob := NewTechHubActivityJob(
		services.TechHub,
		repos.Technician,
		db,
		config.TechHubActivityInterval,
	)
	if err := schedulerService.AddJob(activityJob); err != nil {
		return log.Err("failed to register Tech Hub activity job", err)
	}
	log.Info("Registered Tech Hub activity job", "interval", config.TechHubActivityInterval)

	return nil
}
