package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pagelens/pagelens-backend/internal/services"
)

// FetchModels handles GET /api/v1/models
func FetchModels(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		models, err := svc.Summarize.FetchModels(c.UserContext())
		if err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, fiber.Map{"models": models})
	}
}
