package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/repository"
)

// CredentialRepository implements repository.CredentialRepository on SQLite.
type CredentialRepository struct {
	db *sqlx.DB
}

// NewCredentialRepository creates a new SQLite credential repository
func NewCredentialRepository(db *sqlx.DB) repository.CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Get(ctx context.Context, provider models.Provider) (*models.SessionCredential, error) {
	var cred models.SessionCredential
	query := "SELECT provider, refresh_token, access_token, updated_at FROM credentials WHERE provider = ?"

	err := r.db.GetContext(ctx, &cred, query, provider)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &cred, nil
}

func (r *CredentialRepository) Save(ctx context.Context, cred *models.SessionCredential) error {
	if strings.TrimSpace(cred.RefreshToken) == "" {
		return apperr.New(apperr.KindInvalidInput, "refresh token 不能为空")
	}

	cred.UpdatedAt = time.Now()

	query := `
		INSERT INTO credentials (provider, refresh_token, access_token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (provider) DO UPDATE
		SET refresh_token = excluded.refresh_token,
		    access_token  = excluded.access_token,
		    updated_at    = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		cred.Provider, strings.TrimSpace(cred.RefreshToken), cred.AccessToken, cred.UpdatedAt)
	return err
}

func (r *CredentialRepository) Clear(ctx context.Context, provider models.Provider) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE provider = ?", provider)
	return err
}

func (r *CredentialRepository) Status(ctx context.Context, provider models.Provider) (models.AuthStatus, error) {
	cred, err := r.Get(ctx, provider)
	if err != nil {
		return models.AuthStatus{}, err
	}

	status := models.AuthStatus{Provider: provider}
	if cred != nil {
		status.Connected = true
		updatedAt := cred.UpdatedAt
		status.UpdatedAt = &updatedAt
	}
	return status, nil
}
