package server

import (
	"context"
	"log"

	"prompt-manager-core/internal/bootstrap"
	"prompt-manager-core/internal/config"
	"prompt-manager-core/internal/controller"
	"prompt-manager-core/internal/handler"
	"prompt-manager-core/internal/pkg/serverutils"
	internalWS "prompt-manager-core/internal/websocket"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
	hub       *internalWS.Hub
	rdb       *redis.Client
}

func New(cfg *config.Config, container *bootstrap.Container) (*Server, error) {
	app := fiber.New(fiber.Config{
		BodyLimit:    10 * 1024 * 1024, // 10MB, attachments travel inline
		ErrorHandler: serverutils.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	var rdb *redis.Client
	if cfg.Server.HubRedisURL != "" {
		opts, err := redis.ParseURL(cfg.Server.HubRedisURL)
		if err != nil {
			return nil, err
		}
		rdb = redis.NewClient(opts)
	}

	s := &Server{
		app:       app,
		cfg:       cfg,
		container: container,
		hub:       internalWS.NewHub(rdb, container.Logger),
		rdb:       rdb,
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the change hub in the background. It stops with ctx.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)
	return s.hub.Consume(ctx, s.container.Changes, s.container.ChangeTopic)
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.Server.Port)
	return s.app.Listen(":" + s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	return err
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")
	auth := serverutils.NewJwtMiddleware(s.cfg.Server.JWTSecret)
	c := s.container

	controller.NewPromptController(c.PromptService).RegisterRoutes(api, auth)
	controller.NewShareController(c.PromptService, c.SyncService, c.ImportResolver, c.DeepLinkScheme).RegisterRoutes(api, auth)

	handler.NewChangeStreamHandler(s.hub, c.Logger).RegisterRoutes(api, auth)
}
