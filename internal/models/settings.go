package models

import (
	"strings"
	"unicode/utf8"

	"github.com/pagelens/pagelens-backend/internal/apperr"
)

// Provider identifies a summarization backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderKimi   Provider = "kimi"
	ProviderGLM    Provider = "glm"
)

// WebSessionProviders are the backends driven by a captured web
// session rather than an issued API key.
var WebSessionProviders = []Provider{ProviderKimi, ProviderGLM}

// Valid reports whether p names a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderKimi, ProviderGLM:
		return true
	}
	return false
}

// IsWebSession reports whether p reuses a third-party web session.
func (p Provider) IsWebSession() bool {
	return p == ProviderKimi || p == ProviderGLM
}

// MaxCustomPromptLen bounds the custom system prompt, in code points.
const MaxCustomPromptLen = 2000

// Settings is the user configuration the extension persists.
type Settings struct {
	Provider              Provider `json:"provider"`
	BaseURL               string   `json:"base_url"`
	APIKey                string   `json:"api_key"`
	Model                 string   `json:"model"`
	SummaryTemplateID     string   `json:"summary_template_id"`
	LastDefaultTemplateID string   `json:"last_default_template_id"`
	CustomSystemPrompt    string   `json:"custom_system_prompt"`
	Theme                 string   `json:"theme"`
}

// DefaultSettings returns the configuration used before the user has
// saved anything.
func DefaultSettings() Settings {
	return Settings{
		Provider:              ProviderOpenAI,
		BaseURL:               "https://api.openai.com",
		SummaryTemplateID:     "tldr",
		LastDefaultTemplateID: "tldr",
		Theme:                 "system",
	}
}

// Validate checks invariants before settings are persisted.
func (s *Settings) Validate() error {
	if !s.Provider.Valid() {
		return apperr.Newf(apperr.KindInvalidInput, "未知的服务商: %s", s.Provider)
	}
	if utf8.RuneCountInString(s.CustomSystemPrompt) > MaxCustomPromptLen {
		return apperr.Newf(apperr.KindInvalidInput,
			"自定义提示词超过 %d 字符上限", MaxCustomPromptLen)
	}
	if s.Provider == ProviderOpenAI && strings.TrimSpace(s.BaseURL) == "" {
		return apperr.New(apperr.KindInvalidInput, "Base URL 不能为空")
	}
	return nil
}
