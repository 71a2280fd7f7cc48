package services

import (
	"context"
	"palcontent/config"
	"palcontent/internal/database"
	"palcontent/internal/events"
	"palcontent/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type Service struct {
	Auth        *AuthService
	Transaction *TransactionService
	Scheduler   *SchedulerService
	SMS         *SMSService
	Email       *EmailService
	Storage     *StorageService
	Geocode     *GeocodeService
	AIReports   *AIReportPoller
	TechHub     *TechHubService
	Logging     *LoggingService
	RateLimiter *RateLimiterService
}

func New(db database.DB, config config.Config, eventBus events.Publisher) (Service, error) {
	log := logger.New("services").Function("New")
	ctx := context.Background()
	repos := repositories.New(db)

	authService, err := NewAuthService(config, db.Cache.Session)
	if err != nil {
		return Service{}, log.Err("failed to create auth service", err)
	}

	emailService, err := NewEmailService(ctx, config)
	if err != nil {
		return Service{}, log.Err("failed to create email service", err)
	}

	storageService, err := NewStorageService(ctx, config)
	if err != nil {
		return Service{}, log.Err("failed to create storage service", err)
	}

	poller := NewAIReportPoller(
		config.AIReportPollInterval,
		config.AIReportPollTimeout,
		func(ctx context.Context, id uuid.UUID) (string, error) {
			submission, err := repos.JobSubmission.GetByID(ctx, db.SQL, id)
			if err != nil {
				return "", err
			}
			if !submission.HasAIReport() {
				return "", nil
			}
			return *submission.AIReport, nil
		},
		AIReportOutcomePublisher(eventBus, func(ctx context.Context, id uuid.UUID) (uuid.UUID, uuid.UUID, error) {
			submission, err := repos.JobSubmission.GetByID(ctx, db.SQL, id)
			if err != nil {
				return uuid.Nil, uuid.Nil, err
			}
			return submission.FranchiseeID, submission.TechnicianID, nil
		}),
	)

	return Service{
		Auth:        authService,
		Transaction: NewTransactionService(db),
		Scheduler:   NewSchedulerService(),
		SMS:         NewSMSService(config),
		Email:       emailService,
		Storage:     storageService,
		Geocode:     NewGeocodeService(config, db.Cache.ClientAPI),
		AIReports:   poller,
		TechHub:     NewTechHubService(eventBus, config.TechHubFeedSize),
		Logging:     NewLoggingService(),
		RateLimiter: NewRateLimiterService(db.Cache.ClientAPI),
	}, nil
}

// AIReportOutcomePublisher turns poller results into ai_report events routed
// to the submission's technician and the franchise reviewers. Report text is
// only attached once that audience is resolved.
func AIReportOutcomePublisher(
	publisher events.Publisher,
	route func(ctx context.Context, id uuid.UUID) (franchiseeID uuid.UUID, technicianID uuid.UUID, err error),
) func(PollResult) {
	log := logger.New("services").Function("AIReportOutcomePublisher")

	return func(result PollResult) {
		if publisher == nil || route == nil {
			return
		}

		eventType := events.AI_REPORT_READY
		if result.Outcome == PollOutcomeTimeout {
			eventType = events.AI_REPORT_TIMEOUT
		}

		event := events.Event{
			Type: eventType,
			Data: map[string]any{
				"submissionId": result.SubmissionID.String(),
				"outcome":      string(result.Outcome),
				"attempts":     result.Attempts,
				"elapsedMs":    result.Elapsed.Milliseconds(),
			},
		}
		franchiseeID, technicianID, err := route(context.Background(), result.SubmissionID)
		if err != nil {
			log.Warn("failed to resolve submission for AI report event", "submissionID", result.SubmissionID, "error", err)
			return
		}
		event.FranchiseeID = &franchiseeID
		event.TechnicianID = &technicianID
		event.Data["technicianId"] = technicianID.String()
		if result.Report != "" {
			event.Data["aiReport"] = result.Report
		}

		if err := publisher.Publish(events.AI_REPORTS_CHANNEL, event); err != nil {
			log.Warn("failed to publish AI report outcome", "submissionID", result.SubmissionID, "error", err)
		}
	}
}
