package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/services"
)

// Extract handles POST /api/v1/extract — server-side fallback for
// pages the content script cannot read.
func Extract(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			URL string `json:"url"`
		}
		if err := c.BodyParser(&req); err != nil {
			return RenderError(c, apperr.New(apperr.KindInvalidInput, "请求内容格式错误"))
		}
		page, err := svc.Extract.Fetch(c.UserContext(), req.URL)
		if err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, page)
	}
}
