package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/api/handlers"
	"github.com/pagelens/pagelens-backend/internal/config"
	"github.com/pagelens/pagelens-backend/internal/services"
)

// Server owns the HTTP listener. It is an explicit object so tests and
// the main can start and stop it instead of mutating process state.
type Server struct {
	app *fiber.App
	cfg config.ServerConfig
	log *logrus.Entry
}

func NewServer(cfg config.ServerConfig, svc *services.Services) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "PageLens Backend",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return handlers.RenderError(c, err)
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	// The extension talks to this process from an extension origin the
	// browser will not enumerate for us, so the localhost listener
	// accepts any origin.
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	SetupRoutes(app, svc)

	return &Server{
		app: app,
		cfg: cfg,
		log: logrus.WithField("component", "server"),
	}
}

// Listen blocks serving the API until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.WithField("addr", addr).Info("listening")
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}
