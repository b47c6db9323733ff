package server

import (
	"token-pattern-be/internal/bootstrap"
	"token-pattern-be/internal/config"
	"token-pattern-be/internal/pkg/serverutils"
	"token-pattern-be/internal/websocket"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		// A raw 128-float query vector is a few KB; keep the cap small.
		BodyLimit: 1 * 1024 * 1024,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")
	jwtMiddleware := serverutils.NewJwtMiddleware(cfg.App.JwtSecret)

	api.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", c.SchedulerService.Status()))
	})

	c.ConfigController.RegisterRoutes(api, jwtMiddleware)
	c.GenerationController.RegisterRoutes(api, jwtMiddleware)
	c.SearchController.RegisterRoutes(api)
	c.LabelController.RegisterRoutes(api, jwtMiddleware)
	c.AnalysisController.RegisterRoutes(api)
	c.SyncController.RegisterRoutes(api, jwtMiddleware)

	api.Get("/ws/jobs", websocket.Upgrade, websocket.JobStream(c.WebSocketHub))
}
