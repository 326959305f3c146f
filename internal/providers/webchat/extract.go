package webchat

import (
	"strings"

	"github.com/tidwall/gjson"
)

// StreamExtraction is the decoded piece of one streamed payload. Used
// only during response reconstruction; never persisted.
type StreamExtraction struct {
	Text      string
	Assistant bool
}

// FirstNonEmpty probes a prioritized candidate key list against a
// payload, optionally retrying one level down under nestedUnder.
// Providers are inconsistent about field naming; this is the one
// lookup primitive they all go through.
func FirstNonEmpty(payload gjson.Result, keys []string, nestedUnder string) string {
	for _, key := range keys {
		if v := payload.Get(key); v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	if nestedUnder != "" {
		for _, key := range keys {
			if v := payload.Get(nestedUnder + "." + key); v.Exists() {
				if s := strings.TrimSpace(v.String()); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

var (
	// Event names that carry the request back at us.
	requestEventWords = []string{"request", "input", "prompt", "user", "query", "question"}
	// Event names that carry assistant output.
	completionEventWords = []string{"completion", "assistant", "delta", "token", "output", "answer", "reply", "cmpl", "resp"}

	roleKeys = []string{"role", "delta.role", "message.role", "data.role",
		"choices.0.delta.role", "choices.0.message.role"}

	textKeys          = []string{"text", "delta", "content", "reply"}
	textNestedParents = []string{"data", "message", "delta", "result"}
)

// extractChunk classifies one payload and pulls its text fragment.
func extractChunk(eventName string, payload gjson.Result) StreamExtraction {
	return StreamExtraction{
		Text:      textOf(payload),
		Assistant: isAssistantChunk(eventName, payload),
	}
}

// isAssistantChunk decides whether the chunk belongs to the
// assistant's output stream. Explicit role fields win; the event name
// keyword sets are the fallback.
func isAssistantChunk(eventName string, payload gjson.Result) bool {
	for _, key := range roleKeys {
		switch strings.ToLower(payload.Get(key).String()) {
		case "assistant", "model", "bot":
			return true
		case "user", "system", "human":
			return false
		}
	}

	name := strings.ToLower(eventName)
	if name == "" {
		name = strings.ToLower(payload.Get("event").String())
	}
	if name == "" {
		return false
	}
	if containsAny(name, requestEventWords) {
		return false
	}
	return containsAny(name, completionEventWords)
}

// textOf probes direct fields, then the same fields one level down,
// then the OpenAI-style choices shape. First non-empty string wins.
func textOf(payload gjson.Result) string {
	for _, key := range textKeys {
		if v := payload.Get(key); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	for _, parent := range textNestedParents {
		for _, key := range textKeys {
			if v := payload.Get(parent + "." + key); v.Type == gjson.String && v.Str != "" {
				return v.Str
			}
		}
	}
	for _, path := range []string{"choices.0.delta.content", "choices.0.message.content"} {
		if v := payload.Get(path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

var (
	authErrorCodes = []string{"unauthorized", "auth_expired", "token_expired",
		"session_expired", "no_permission", "permission_denied", "401", "40100", "40101"}
	authErrorPhrases = []string{"unauthorized", "session expired", "no permission",
		"登录已过期", "未登录", "无权限", "鉴权失败"}
)

// isAuthErrorPayload detects the backends that report auth failure as
// a streamed error object inside a 200 response.
func isAuthErrorPayload(payload gjson.Result) bool {
	code := strings.ToLower(FirstNonEmpty(payload,
		[]string{"error.code", "error_code", "error.type", "code"}, ""))
	for _, c := range authErrorCodes {
		if code == c {
			return true
		}
	}

	msg := strings.ToLower(FirstNonEmpty(payload,
		[]string{"error.message", "error_msg", "error"}, ""))
	return containsAny(msg, authErrorPhrases)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
