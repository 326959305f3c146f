package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/pagelens/pagelens-backend/internal/api/handlers"
	"github.com/pagelens/pagelens-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services) {
	api := app.Group("/api/v1")

	// Summarization
	api.Post("/summarize", handlers.Summarize(svc))
	api.Get("/models", handlers.FetchModels(svc))

	// Web-session provider connections
	api.Post("/connections/:provider", handlers.Connect(svc))
	api.Get("/connections/:provider", handlers.ConnectionStatus(svc))
	api.Delete("/connections/:provider", handlers.Disconnect(svc))

	// Settings and templates
	api.Get("/settings", handlers.GetSettings(svc))
	api.Put("/settings", handlers.UpdateSettings(svc))
	api.Get("/templates", handlers.ListTemplates())

	// Summary log
	api.Get("/summaries", handlers.ListSummaries(svc))

	// Server-side fallback extraction
	api.Post("/extract", handlers.Extract(svc))

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "pagelens-backend",
		})
	})

	// WebSocket streaming variant of summarize
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/summarize", websocket.New(handlers.SummarizeStream(svc)))
}
