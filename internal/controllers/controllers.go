package controllers

import (
	"palcontent/config"
	"palcontent/internal/database"
	"palcontent/internal/events"
	"palcontent/internal/repositories"
	"palcontent/internal/services"

	jobSubmissionController "palcontent/internal/controllers/jobSubmissions"
	loggingController "palcontent/internal/controllers/logging"
	smsController "palcontent/internal/controllers/sms"
	submitCodeController "palcontent/internal/controllers/submitCodes"
	techHubController "palcontent/internal/controllers/techHub"
	technicianController "palcontent/internal/controllers/technicians"
	testimonialController "palcontent/internal/controllers/testimonials"
	userController "palcontent/internal/controllers/users"
)

type Controllers struct {
	User          userController.UserControllerInterface
	JobSubmission jobSubmissionController.JobSubmissionControllerInterface
	Technician    technicianController.TechnicianControllerInterface
	SMS           smsController.SMSControllerInterface
	SubmitCode    submitCodeController.SubmitCodeControllerInterface
	Testimonial   testimonialController.TestimonialControllerInterface
	TechHub       techHubController.TechHubControllerInterface
	Logging       loggingController.LoggingControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	eventBus events.Publisher,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		User:          userController.New(repos, services, config, db),
		JobSubmission: jobSubmissionController.New(repos, services, eventBus, config, db),
		Technician:    technicianController.New(repos, services, config, db),
		SMS:           smsController.New(repos, services, config, db),
		SubmitCode:    submitCodeController.New(repos, services, db),
		Testimonial:   testimonialController.New(repos, services, config, db),
		TechHub:       techHubController.New(repos, services, db),
		Logging:       loggingController.New(services),
	}
}
