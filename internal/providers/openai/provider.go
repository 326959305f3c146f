package openai

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/providers"
)

// requestTimeout bounds every upstream call. A client-side abort is
// reported as a timeout, never as success.
const requestTimeout = 30 * time.Second

// summaryTemperature keeps the output close to the source text.
const summaryTemperature = 0.3

// Provider implements the key-based OpenAI-compatible REST provider.
type Provider struct {
	baseURL string
	apiKey  string
	model   string
	client  *openai.Client
}

// NewProvider creates a provider for the given endpoint. baseURL and
// apiKey must be non-blank.
func NewProvider(baseURL, apiKey, model string) (*Provider, error) {
	baseURL = strings.TrimSpace(baseURL)
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "Base URL 不能为空")
	}
	if apiKey == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "API Key 不能为空")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = normalizeBaseURL(baseURL)
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}

	client := openai.NewClientWithConfig(cfg)

	return &Provider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  client,
	}, nil
}

// Name returns the provider id
func (p *Provider) Name() string {
	return string(models.ProviderOpenAI)
}

// ListModels fetches the models endpoint and returns the ids sorted
// lexicographically.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		if id := strings.TrimSpace(m.ID); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, apperr.New(apperr.KindInternalFault, "接口没有返回任何模型")
	}

	sort.Strings(ids)
	return ids, nil
}

// Summarize performs a non-streaming chat completion.
func (p *Provider) Summarize(ctx context.Context, req providers.SummaryRequest) (*providers.Summary, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}
	if model == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "未选择模型")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: summaryTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err != nil {
		return nil, mapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, apperr.New(apperr.KindInternalFault, "接口没有返回任何结果")
	}

	text := strings.TrimSpace(messageText(resp.Choices[0].Message))
	if text == "" {
		return nil, apperr.New(apperr.KindInternalFault, "接口返回了空的总结内容")
	}

	if req.OnDelta != nil {
		req.OnDelta(text)
	}

	return &providers.Summary{Text: text, ModelLabel: model}, nil
}

// messageText extracts content from both the plain-string and the
// structured-array response shapes.
func messageText(msg openai.ChatCompletionMessage) string {
	if msg.Content != "" {
		return msg.Content
	}
	var b strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// normalizeBaseURL makes sure the configured base ends with /v1, the
// prefix both endpoints live under.
func normalizeBaseURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base
}

// mapError converts client errors into the closed error taxonomy.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return apperr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return apperr.FromStatus(reqErr.HTTPStatusCode, "")
	}

	if isTimeout(err) {
		return apperr.Wrap(apperr.KindTimeout, "请求超时，请稍后重试", err)
	}

	return apperr.Wrap(apperr.KindNetworkUnreachable, "无法连接到接口地址", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
