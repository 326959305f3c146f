package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/prompt"
	"github.com/pagelens/pagelens-backend/internal/services"
)

// settingsView hides the stored API key from responses; the options
// page only needs to know whether one is set.
type settingsView struct {
	models.Settings
	APIKey    string `json:"api_key,omitempty"`
	HasAPIKey bool   `json:"has_api_key"`
}

func viewOf(s models.Settings) settingsView {
	return settingsView{Settings: s, HasAPIKey: s.APIKey != ""}
}

// GetSettings handles GET /api/v1/settings
func GetSettings(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		settings, err := svc.Settings.Get(c.UserContext())
		if err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, viewOf(settings))
	}
}

// UpdateSettings handles PUT /api/v1/settings. The body carries the
// whole settings document; an omitted api_key keeps the stored one.
func UpdateSettings(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var incoming models.Settings
		if err := c.BodyParser(&incoming); err != nil {
			return RenderError(c, apperr.New(apperr.KindInvalidInput, "请求内容格式错误"))
		}

		current, err := svc.Settings.Get(c.UserContext())
		if err != nil {
			return RenderError(c, err)
		}
		if incoming.APIKey == "" {
			incoming.APIKey = current.APIKey
		}
		// Selecting a built-in template records it as the fallback the
		// custom template reverts to.
		if _, builtin := prompt.TemplateByID(incoming.SummaryTemplateID); builtin {
			incoming.LastDefaultTemplateID = incoming.SummaryTemplateID
		} else if incoming.LastDefaultTemplateID == "" {
			incoming.LastDefaultTemplateID = current.LastDefaultTemplateID
		}

		if err := svc.Settings.Save(c.UserContext(), incoming); err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, viewOf(incoming))
	}
}

// ListTemplates handles GET /api/v1/templates
func ListTemplates() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return RenderOK(c, fiber.Map{
			"templates":           prompt.Templates(),
			"custom_template_id":  prompt.CustomTemplateID,
			"default_template_id": prompt.DefaultTemplateID,
		})
	}
}
