package services

import (
	"context"

	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/providers/webchat"
	"github.com/pagelens/pagelens-backend/internal/repository"
)

// credStore narrows the repository to one provider's credential slot,
// implementing webchat.CredentialStore.
type credStore struct {
	provider models.Provider
	repo     repository.CredentialRepository
}

// NewCredentialStore adapts the token store for one web-session
// provider's transport client.
func NewCredentialStore(provider models.Provider, repo repository.CredentialRepository) webchat.CredentialStore {
	return &credStore{provider: provider, repo: repo}
}

func (s *credStore) Load(ctx context.Context) (*models.SessionCredential, error) {
	return s.repo.Get(ctx, s.provider)
}

func (s *credStore) Store(ctx context.Context, cred *models.SessionCredential) error {
	cred.Provider = s.provider
	return s.repo.Save(ctx, cred)
}

func (s *credStore) Invalidate(ctx context.Context) error {
	return s.repo.Clear(ctx, s.provider)
}
