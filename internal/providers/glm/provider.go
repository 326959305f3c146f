package glm

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/config"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/providers"
	"github.com/pagelens/pagelens-backend/internal/providers/webchat"
)

// ModelLabel is the display label for summaries produced through the
// ChatGLM web session.
const ModelLabel = "glm-4.5"

const chatTitle = "网页总结"

// streamPaths are the candidate completion endpoints; the path moved
// between backend revisions, so a 404 falls through to the next shape.
func streamPaths(chatID string) []string {
	return []string{
		"/conversation/" + chatID + "/stream",
		"/assistant/stream",
	}
}

// Provider summarizes through a captured ChatGLM web session.
type Provider struct {
	client *webchat.Client
	log    *logrus.Entry
}

// New creates the ChatGLM provider on top of a credential store.
func New(cfg config.EndpointConfig, creds webchat.CredentialStore) *Provider {
	refresh := webchat.RefreshViaEndpoint(cfg.BaseURL+"/v1/user/refresh",
		func(req *http.Request, refreshToken string) {
			req.Header.Set("Authorization", "Bearer "+refreshToken)
		})

	return &Provider{
		client: webchat.NewClient(models.ProviderGLM, cfg.BaseURL, creds, refresh),
		log:    logrus.WithField("provider", models.ProviderGLM),
	}
}

// Name returns the provider id
func (p *Provider) Name() string {
	return string(models.ProviderGLM)
}

// Summarize runs the text-only web-chat flow.
func (p *Provider) Summarize(ctx context.Context, req providers.SummaryRequest) (*providers.Summary, error) {
	chatID, err := p.client.CreateChat(ctx, "/conversation", map[string]interface{}{
		"title": chatTitle,
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"conversation_id": chatID,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
	}

	text, err := p.client.PostStream(ctx, streamPaths(chatID), payload,
		webchat.StreamOptions{UserPrompt: req.User, OnDelta: req.OnDelta})
	if err != nil {
		return nil, err
	}
	return &providers.Summary{Text: text, ModelLabel: ModelLabel}, nil
}
