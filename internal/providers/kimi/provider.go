package kimi

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/config"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/providers"
	"github.com/pagelens/pagelens-backend/internal/providers/webchat"
)

// ModelLabel is the display label for summaries produced through the
// Kimi web session. The web app does not expose model selection.
const ModelLabel = "kimi-k2"

// chatTitle is the fixed name given to every conversation we create.
const chatTitle = "网页总结"

// Provider summarizes through a captured Kimi web session.
type Provider struct {
	client *webchat.Client
	log    *logrus.Entry
}

// New creates the Kimi provider on top of a credential store.
func New(cfg config.EndpointConfig, creds webchat.CredentialStore) *Provider {
	refresh := webchat.RefreshViaEndpoint(cfg.BaseURL+"/auth/token/refresh",
		func(req *http.Request, refreshToken string) {
			req.Header.Set("Authorization", "Bearer "+refreshToken)
		})

	return &Provider{
		client: webchat.NewClient(models.ProviderKimi, cfg.BaseURL, creds, refresh),
		log:    logrus.WithField("provider", models.ProviderKimi),
	}
}

// Name returns the provider id
func (p *Provider) Name() string {
	return string(models.ProviderKimi)
}

// Summarize runs the web-chat flow: create a chat, stream one message,
// reconstruct the reply. URLs matching the file-first patterns go
// through the upload+parse path first and fall back to plain text on
// any failure except an expired session.
func (p *Provider) Summarize(ctx context.Context, req providers.SummaryRequest) (*providers.Summary, error) {
	if isFileFirstURL(req.Page.URL) {
		sum, err := p.summarizeViaFile(ctx, req)
		if err == nil {
			return sum, nil
		}
		if apperr.IsKind(err, apperr.KindAuthExpired) {
			return nil, err
		}
		p.log.WithError(err).Warn("file path failed, falling back to text path")
	}
	return p.summarizeViaText(ctx, req, nil)
}

func (p *Provider) summarizeViaText(ctx context.Context, req providers.SummaryRequest, fileIDs []string) (*providers.Summary, error) {
	chatID, err := p.client.CreateChat(ctx, "/chat", map[string]interface{}{
		"name":         chatTitle,
		"is_example":   false,
		"enter_method": "new_chat",
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"use_search": false,
		"refs":       fileIDs,
	}
	if fileIDs == nil {
		payload["refs"] = []string{}
	}

	text, err := p.client.PostStream(ctx,
		[]string{"/chat/" + chatID + "/completion/stream"},
		payload,
		webchat.StreamOptions{UserPrompt: req.User, OnDelta: req.OnDelta},
	)
	if err != nil {
		return nil, err
	}
	return &providers.Summary{Text: text, ModelLabel: ModelLabel}, nil
}

// summarizeViaFile uploads the page as a Markdown file, waits for the
// parse handle, then sends the message referencing the file.
func (p *Provider) summarizeViaFile(ctx context.Context, req providers.SummaryRequest) (*providers.Summary, error) {
	fileID, err := p.uploadPage(ctx, req.Page)
	if err != nil {
		return nil, err
	}
	if err := p.parseFile(ctx, fileID); err != nil {
		return nil, err
	}
	return p.summarizeViaText(ctx, req, []string{fileID})
}
