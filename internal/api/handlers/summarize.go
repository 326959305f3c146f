package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/services"
)

// SummarizeRequest is the page snapshot the extension posts.
type SummarizeRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

func (r *SummarizeRequest) page() (models.PageContent, error) {
	if strings.TrimSpace(r.Text) == "" {
		return models.PageContent{}, apperr.New(apperr.KindInvalidInput, "页面正文为空，无法总结")
	}
	return models.NewPageContent(r.Title, r.URL, r.Text), nil
}

// Summarize handles POST /api/v1/summarize
func Summarize(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SummarizeRequest
		if err := c.BodyParser(&req); err != nil {
			return RenderError(c, apperr.New(apperr.KindInvalidInput, "请求内容格式错误"))
		}
		page, err := req.page()
		if err != nil {
			return RenderError(c, err)
		}

		record, err := svc.Summarize.Summarize(c.UserContext(), page, nil)
		if err != nil {
			return RenderError(c, err)
		}
		return RenderOK(c, record)
	}
}

// streamFrame is one websocket message of the streaming summarize.
type streamFrame struct {
	Type    string                `json:"type"`
	Content string                `json:"content,omitempty"`
	Data    *models.SummaryRecord `json:"data,omitempty"`
	Error   *ErrorPayload         `json:"error,omitempty"`
}

// SummarizeStream handles WebSocket /ws/summarize: one request per
// connection, deltas streamed as they arrive, then done or error.
func SummarizeStream(svc *services.Services) func(*websocket.Conn) {
	log := logrus.WithField("handler", "ws_summarize")
	return func(c *websocket.Conn) {
		defer c.Close()

		var req SummarizeRequest
		if err := c.ReadJSON(&req); err != nil {
			_ = c.WriteJSON(streamFrame{Type: "error", Error: &ErrorPayload{
				Kind:    apperr.KindInvalidInput,
				Message: "请求内容格式错误",
			}})
			return
		}
		page, err := req.page()
		if err != nil {
			writeStreamError(c, err)
			return
		}

		// Summarize is synchronous, so delta writes never race the
		// final frame.
		ctx := context.Background()
		if fc, ok := c.Locals("fiber_ctx").(*fiber.Ctx); ok {
			ctx = fc.UserContext()
		}

		record, err := svc.Summarize.Summarize(ctx, page, func(delta string) {
			if werr := c.WriteJSON(streamFrame{Type: "delta", Content: delta}); werr != nil {
				log.WithError(werr).Debug("delta write failed")
			}
		})
		if err != nil {
			writeStreamError(c, err)
			return
		}
		_ = c.WriteJSON(streamFrame{Type: "done", Data: record})
	}
}

func writeStreamError(c *websocket.Conn, err error) {
	payload := ErrorPayload{Kind: apperr.KindOf(err), Message: err.Error()}
	if ae, ok := err.(*apperr.Error); ok {
		payload.Message = ae.Message
	}
	_ = c.WriteJSON(streamFrame{Type: "error", Error: &payload})
}
