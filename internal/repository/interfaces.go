package repository

import (
	"context"

	"github.com/pagelens/pagelens-backend/internal/models"
)

// CredentialRepository is the token store: it exclusively owns
// SessionCredential rows. Callers borrow a copy per call and report
// rotations back through Save.
type CredentialRepository interface {
	// Get returns the stored credential, or nil when none exists.
	Get(ctx context.Context, provider models.Provider) (*models.SessionCredential, error)
	// Save upserts the credential. An empty refresh token is rejected
	// with an invalid-input error.
	Save(ctx context.Context, cred *models.SessionCredential) error
	// Clear deletes the credential for the provider.
	Clear(ctx context.Context, provider models.Provider) error
	// Status reports whether a credential is stored and when it was
	// last rotated.
	Status(ctx context.Context, provider models.Provider) (models.AuthStatus, error)
}

// SettingsRepository persists the user settings document.
type SettingsRepository interface {
	Get(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, s models.Settings) error
}

// SummaryRepository is a bounded most-recent-first log of completed
// summarizations.
type SummaryRepository interface {
	Add(ctx context.Context, rec *models.SummaryRecord) error
	List(ctx context.Context, limit int) ([]models.SummaryRecord, error)
}
