package server

import (
	"fmt"
	"palcontent/config"
	"palcontent/internal/app"
	"palcontent/internal/handlers"
	"palcontent/internal/handlers/middleware"
	"palcontent/internal/services"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogs "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/helmet/v2"
)

const (
	// Multipart avatar plus form overhead.
	bodyLimit = services.MaxAvatarBytes + 1<<20

	allowHeaders = "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, " +
		middleware.TraceIDHeader + ", " + middleware.WebhookSecretHeader

	exposeHeaders = "Upgrade, " + middleware.TraceIDHeader + ", " + handlers.TrackingStatusHeader

	accessLogFormat = "${time} ${status} ${latency} ${method} ${path} trace=${respHeader:" +
		middleware.TraceIDHeader + "}\n"
)

type AppServer struct {
	FiberApp *fiber.App
	log      logger.Logger
}

func fiberConfig(config config.Config) fiber.Config {
	fc := fiber.Config{
		ServerHeader:            "palcontent/" + config.GeneralVersion,
		AppName:                 "palcontent_server",
		BodyLimit:               bodyLimit,
		ReadBufferSize:          16384,
		EnableTrustedProxyCheck: true,
		ReadTimeout:             30 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             120 * time.Second,
		DisableStartupMessage:   true,
	}
	if config.Environment == "development" {
		fc.DisableStartupMessage = false
		fc.EnablePrintRoutes = true
	}
	return fc
}

// The redirect endpoint and the websocket are reached from SMS links and
// other origins, so resource policy stays cross-origin.
func securityHeaders() fiber.Handler {
	return helmet.New(helmet.Config{
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XPermittedCrossDomain:     "none",
	})
}

func New(app *app.App) (*AppServer, error) {
	log := logger.New("server").Function("New")
	log.Info("Initializing server", "environment", app.Config.Environment)

	server := fiber.New(fiberConfig(app.Config))

	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins:     app.Config.CorsAllowOrigins,
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders:     allowHeaders,
		AllowCredentials: app.Config.CorsAllowOrigins != "*",
		ExposeHeaders:    exposeHeaders,
		MaxAge:           300,
	}))
	server.Use(app.Middleware.TraceID())
	server.Use(app.Middleware.Metrics())
	server.Use(fiberLogs.New(fiberLogs.Config{Format: accessLogFormat}))
	server.Use(compress.New())
	server.Use(securityHeaders())

	if err := handlers.Router(server, app); err != nil {
		return nil, log.Err("failed to initialize handlers", err)
	}

	return &AppServer{FiberApp: server, log: log}, nil
}

func (s *AppServer) Listen(port int) error {
	log := s.log.Function("Listen")

	if port <= 0 {
		return log.Error("Fatal error: invalid port", "port", port)
	}

	log.Info("Starting server", "port", port)
	return s.FiberApp.Listen(fmt.Sprintf(":%d", port))
}
