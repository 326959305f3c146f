package webchat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/pagelens/pagelens-backend/internal/apperr"
)

// chatIDKeys are the candidate field names a "new chat" response may
// carry its identifier under, in probe order.
var chatIDKeys = []string{"id", "chat_id", "chatId", "conversation_id", "conversationId"}

// CreateChat posts a new-chat request and extracts the chat id from
// the heterogeneous response shapes the backends use.
func (c *Client) CreateChat(ctx context.Context, path string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternalFault, "序列化请求失败", err)
	}

	resp, err := c.RequestWithAuth(ctx, func(access string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", MapTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.FromStatus(resp.StatusCode, errorDetail(raw))
	}

	id := FirstNonEmpty(gjson.ParseBytes(raw), chatIDKeys, "data")
	if id == "" {
		return "", apperr.New(apperr.KindInternalFault, "无法从响应中解析会话 ID")
	}
	return id, nil
}

// errorDetail pulls upstream error text out of a failure body.
func errorDetail(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	return FirstNonEmpty(gjson.ParseBytes(raw),
		[]string{"error.message", "error_msg", "message", "msg", "detail"}, "")
}
