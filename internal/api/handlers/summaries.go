package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pagelens/pagelens-backend/internal/services"
)

// ListSummaries handles GET /api/v1/summaries
func ListSummaries(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit < 1 || limit > 50 {
			limit = 50
		}
		records, err := svc.Summaries.List(c.UserContext(), limit)
		if err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, fiber.Map{"summaries": records})
	}
}
