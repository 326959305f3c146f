package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/services"
)

func providerParam(c *fiber.Ctx) (models.Provider, error) {
	p := models.Provider(c.Params("provider"))
	if !p.Valid() {
		return "", apperr.New(apperr.KindInvalidInput, "未知的服务提供方")
	}
	return p, nil
}

// Connect handles POST /api/v1/connections/:provider — the interactive
// login flow. Blocks until the user finishes logging in or the wait
// times out.
func Connect(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider, err := providerParam(c)
		if err != nil {
			return RenderError(c, err)
		}
		status, err := svc.Connection.Connect(c.UserContext(), provider)
		if err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, status)
	}
}

// ConnectionStatus handles GET /api/v1/connections/:provider
func ConnectionStatus(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider, err := providerParam(c)
		if err != nil {
			return RenderError(c, err)
		}
		status, err := svc.Connection.Status(c.UserContext(), provider)
		if err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, status)
	}
}

// Disconnect handles DELETE /api/v1/connections/:provider
func Disconnect(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider, err := providerParam(c)
		if err != nil {
			return RenderError(c, err)
		}
		if err := svc.Connection.Disconnect(c.UserContext(), provider); err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, fiber.Map{"provider": provider, "connected": false})
	}
}
