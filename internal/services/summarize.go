package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/prompt"
	"github.com/pagelens/pagelens-backend/internal/providers"
	"github.com/pagelens/pagelens-backend/internal/providers/openai"
	"github.com/pagelens/pagelens-backend/internal/repository"
)

// SessionManager is the auth capture surface of one web-session
// provider.
type SessionManager interface {
	EnsureCredential(ctx context.Context) (*models.SessionCredential, error)
	ConnectInteractive(ctx context.Context) (models.AuthStatus, error)
	Invalidate(ctx context.Context) error
}

// KeyProviderFactory builds the key-based transport from the current
// settings. A factory rather than a registry entry because the base
// URL, key and model all live in mutable settings.
type KeyProviderFactory func(baseURL, apiKey, model string) (providers.Provider, error)

// SummarizeService is the orchestrator: it resolves settings into a
// transport, runs one summarization and persists the result.
type SummarizeService struct {
	settings  repository.SettingsRepository
	summaries repository.SummaryRepository
	registry  *providers.Registry
	sessions  map[models.Provider]SessionManager
	newKeyed  KeyProviderFactory
	log       *logrus.Entry
}

func NewSummarizeService(
	settings repository.SettingsRepository,
	summaries repository.SummaryRepository,
	registry *providers.Registry,
	sessions map[models.Provider]SessionManager,
) *SummarizeService {
	return &SummarizeService{
		settings:  settings,
		summaries: summaries,
		registry:  registry,
		sessions:  sessions,
		newKeyed: func(baseURL, apiKey, model string) (providers.Provider, error) {
			return openai.NewProvider(baseURL, apiKey, model)
		},
		log: logrus.WithField("service", "summarize"),
	}
}

// Summarize runs one sequential summarization for the current
// settings. onDelta streams partial assistant text when the transport
// supports it.
func (s *SummarizeService) Summarize(ctx context.Context, page models.PageContent, onDelta func(string)) (*models.SummaryRecord, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	p, mgr, err := s.resolve(ctx, settings)
	if err != nil {
		return nil, err
	}

	msgs := prompt.Build(page, settings)
	req := providers.SummaryRequest{
		System:  msgs.System,
		User:    msgs.User,
		Page:    page,
		Model:   settings.Model,
		OnDelta: onDelta,
	}

	start := time.Now()
	summary, err := p.Summarize(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"provider": settings.Provider,
			"elapsed":  elapsed,
		}).WithError(err).Warn("summarize failed")

		// An expired web session is cleared so the UI prompts for a
		// reconnect instead of retrying a dead credential.
		if mgr != nil && apperr.IsKind(err, apperr.KindAuthExpired) {
			if ierr := mgr.Invalidate(ctx); ierr != nil {
				s.log.WithError(ierr).Warn("failed to invalidate session credential")
			}
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"provider": settings.Provider,
		"model":    summary.ModelLabel,
		"elapsed":  elapsed,
	}).Info("summarize completed")

	record := &models.SummaryRecord{
		Title:      page.Title,
		URL:        page.URL,
		Summary:    summary.Text,
		Provider:   settings.Provider,
		Model:      summary.ModelLabel,
		TemplateID: prompt.EffectiveTemplateID(settings),
	}
	if err := s.summaries.Add(ctx, record); err != nil {
		// The summary already exists; losing the log row is not worth
		// failing the request over.
		s.log.WithError(err).Warn("failed to persist summary record")
	}
	return record, nil
}

// FetchModels lists the selectable models of the key-based provider.
func (s *SummarizeService) FetchModels(ctx context.Context) ([]string, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.Provider.IsWebSession() {
		return nil, apperr.New(apperr.KindInvalidInput, "当前服务的模型不可选择")
	}

	p, err := s.newKeyed(settings.BaseURL, settings.APIKey, settings.Model)
	if err != nil {
		return nil, err
	}
	lister, ok := p.(providers.ModelLister)
	if !ok {
		return nil, apperr.New(apperr.KindInternalFault, "当前服务不支持模型列表")
	}
	return lister.ListModels(ctx)
}

// resolve maps settings onto a transport. Web-session providers first
// run the silent credential capture; its AuthExpired propagates so the
// UI can offer the interactive connect.
func (s *SummarizeService) resolve(ctx context.Context, settings models.Settings) (providers.Provider, SessionManager, error) {
	if !settings.Provider.Valid() {
		return nil, nil, apperr.New(apperr.KindInvalidInput, "未知的服务提供方")
	}

	if settings.Provider.IsWebSession() {
		mgr, ok := s.sessions[settings.Provider]
		if !ok {
			return nil, nil, apperr.New(apperr.KindInternalFault, "服务未初始化")
		}
		if _, err := mgr.EnsureCredential(ctx); err != nil {
			return nil, nil, err
		}
		p := s.registry.Get(settings.Provider)
		if p == nil {
			return nil, nil, apperr.New(apperr.KindInternalFault, "服务未初始化")
		}
		return p, mgr, nil
	}

	p, err := s.newKeyed(settings.BaseURL, settings.APIKey, settings.Model)
	if err != nil {
		return nil, nil, err
	}
	return p, nil, nil
}
