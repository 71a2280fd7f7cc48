package app

import (
	"context"
	"palcontent/config"
	"palcontent/internal/controllers"
	"palcontent/internal/database"
	"palcontent/internal/events"
	"palcontent/internal/handlers/middleware"
	"palcontent/internal/jobs"
	"palcontent/internal/repositories"
	"palcontent/internal/services"
	"palcontent/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	Websocket   *websockets.Manager
	EventBus    *events.EventBus
	Config      config.Config
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)
	repos := repositories.New(db)

	svc, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	websocket, err := websockets.New(db, eventBus, config, svc.Auth, repos.User)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	middleware := middleware.New(db, repos)
	controllers := controllers.New(svc, repos, eventBus, config, db)

	if err := jobs.RegisterAllJobs(svc.Scheduler, config, svc, repos, db); err != nil {
		return &App{}, log.Err("failed to register jobs", err)
	}

	if config.SchedulerEnabled {
		if err := svc.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	app := &App{
		Database:    db,
		Middleware:  middleware,
		Websocket:   websocket,
		EventBus:    eventBus,
		Config:      config,
		Services:    svc,
		Repos:       repos,
		Controllers: controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := map[string]bool{
		"websocket":   a.Websocket == nil,
		"eventBus":    a.EventBus == nil,
		"auth":        a.Services.Auth == nil,
		"transaction": a.Services.Transaction == nil,
		"scheduler":   a.Services.Scheduler == nil,
		"sms":         a.Services.SMS == nil,
		"email":       a.Services.Email == nil,
		"storage":     a.Services.Storage == nil,
		"aiReports":   a.Services.AIReports == nil,
		"techHub":     a.Services.TechHub == nil,
		"userRepo":    a.Repos.User == nil,
		"submissions": a.Controllers.JobSubmission == nil,
	}

	for name, isNil := range nilChecks {
		if isNil {
			return log.Error("nil check failed", "component", name)
		}
	}

	return nil
}

// Close stops producers before the event bus and closes the database last.
func (a *App) Close() (err error) {
	if a.Services.AIReports != nil {
		if closeErr := a.Services.AIReports.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if a.Websocket != nil {
		if closeErr := a.Websocket.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
