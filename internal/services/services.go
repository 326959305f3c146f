package services

import (
	"github.com/jmoiron/sqlx"
	"github.com/pagelens/pagelens-backend/internal/config"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/providers"
	"github.com/pagelens/pagelens-backend/internal/providers/glm"
	"github.com/pagelens/pagelens-backend/internal/providers/kimi"
	"github.com/pagelens/pagelens-backend/internal/repository"
	"github.com/pagelens/pagelens-backend/internal/repository/sqlite"
	"github.com/pagelens/pagelens-backend/internal/session"
)

// kimiStorageKey and glmStorageKey are the localStorage keys each web
// app keeps its session refresh credential under.
const (
	kimiStorageKey = "refresh_token"
	glmStorageKey  = "chatglm_refresh_token"
)

// Services holds all service instances.
type Services struct {
	Summarize  *SummarizeService
	Connection *ConnectionService
	Extract    *ExtractService

	Settings  repository.SettingsRepository
	Summaries repository.SummaryRepository
}

// NewServices wires repositories, session capturers and provider
// transports into the service layer.
func NewServices(cfg *config.Config, db *sqlx.DB, opener session.TabOpener) *Services {
	credRepo := sqlite.NewCredentialRepository(db)
	settingsRepo := sqlite.NewSettingsRepository(db)
	summaryRepo := sqlite.NewSummaryRepository(db)

	registry := providers.NewRegistry()
	registry.Register(models.ProviderKimi,
		kimi.New(cfg.Kimi, NewCredentialStore(models.ProviderKimi, credRepo)))
	registry.Register(models.ProviderGLM,
		glm.New(cfg.GLM, NewCredentialStore(models.ProviderGLM, credRepo)))

	sessions := map[models.Provider]SessionManager{
		models.ProviderKimi: session.NewCapturer(models.ProviderKimi,
			cfg.Kimi.HomeURL, kimiStorageKey, credRepo, opener, cfg.Capture),
		models.ProviderGLM: session.NewCapturer(models.ProviderGLM,
			cfg.GLM.HomeURL, glmStorageKey, credRepo, opener, cfg.Capture),
	}

	return &Services{
		Summarize:  NewSummarizeService(settingsRepo, summaryRepo, registry, sessions),
		Connection: NewConnectionService(credRepo, sessions),
		Extract:    NewExtractService(),
		Settings:   settingsRepo,
		Summaries:  summaryRepo,
	}
}
