package webchat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/markdown"
	"github.com/pagelens/pagelens-backend/internal/prompt"
)

// doneSentinel terminates an OpenAI-style stream. It is a no-op, not a
// payload.
const doneSentinel = "[DONE]"

// StreamOptions shape the reconstruction of one streamed reply.
type StreamOptions struct {
	// UserPrompt is the raw prompt text, used to strip prompt echo
	// from the reconstructed output.
	UserPrompt string
	// OnDelta receives each newly appended assistant fragment.
	OnDelta func(delta string)
}

// PostStream sends one user message as a server-sent-event stream and
// reconstructs the assistant's final text. paths are candidate
// endpoint shapes tried in order; a 404 moves to the next candidate,
// any other failure is final.
func (c *Client) PostStream(ctx context.Context, paths []string, payload interface{}, opts StreamOptions) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternalFault, "序列化请求失败", err)
	}

	for i, path := range paths {
		resp, err := c.RequestWithAuth(ctx, func(access string) (*http.Request, error) {
			req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "text/event-stream")
			return req, nil
		})
		if err != nil {
			return "", err
		}

		if resp.StatusCode == http.StatusNotFound && i+1 < len(paths) {
			drain(resp)
			c.log.WithField("path", path).Debug("stream endpoint not found, trying next candidate")
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			resp.Body.Close()
			return "", apperr.FromStatus(resp.StatusCode, errorDetail(raw))
		}

		text, err := c.collect(resp.Body, opts)
		resp.Body.Close()
		return text, err
	}

	return "", apperr.FromStatus(http.StatusNotFound, "")
}

// collect reads the SSE body to the end and reconstructs the final
// assistant text.
func (c *Client) collect(body io.Reader, opts StreamOptions) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var state scanState
	var all, assistant string
	sawAssistant := false
	malformed := 0

	for scanner.Scan() {
		event, ok := state.Feed(scanner.Text())
		if !ok || event.Data == doneSentinel {
			continue
		}

		if !gjson.Valid(event.Data) {
			// Malformed chunks are skipped; the stream continues.
			malformed++
			continue
		}
		payload := gjson.Parse(event.Data)

		if isAuthErrorPayload(payload) {
			return "", apperr.New(apperr.KindAuthExpired, "登录已失效，请重新连接")
		}

		chunk := extractChunk(event.Name, payload)
		if chunk.Text == "" {
			continue
		}

		all = MergeText(all, chunk.Text)
		if chunk.Assistant {
			next := MergeText(assistant, chunk.Text)
			if opts.OnDelta != nil && len(next) > len(assistant) {
				opts.OnDelta(next[len(assistant):])
			}
			assistant = next
			sawAssistant = true
		}
	}
	if err := scanner.Err(); err != nil {
		return "", MapTransportError(err)
	}
	if malformed > 0 {
		c.log.WithField("skipped", malformed).Debug("skipped malformed stream chunks")
	}

	final := assistant
	if !sawAssistant {
		// Some backends omit role and event metadata entirely.
		final = all
	}

	final = stripPromptEcho(final, opts.UserPrompt)
	final = markdown.Normalize(final)
	if strings.TrimSpace(final) == "" {
		return "", apperr.New(apperr.KindInternalFault, "没有收到任何总结内容")
	}
	return final, nil
}

// stripPromptEcho discards everything up to and including the last
// verbatim occurrence of the user prompt or a known instruction
// prefix. Some backends echo the request at the head of the reply.
func stripPromptEcho(text, userPrompt string) string {
	candidates := prompt.InstructionPrefixes()
	if strings.TrimSpace(userPrompt) != "" {
		candidates = append(candidates, userPrompt)
	}

	cut := 0
	for _, cand := range candidates {
		if idx := strings.LastIndex(text, cand); idx >= 0 {
			if end := idx + len(cand); end > cut {
				cut = end
			}
		}
	}
	if cut == 0 {
		return text
	}
	return strings.TrimSpace(text[cut:])
}
