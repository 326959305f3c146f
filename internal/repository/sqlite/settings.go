package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/repository"
)

const settingsKey = "settings"

// SettingsRepository stores the settings document as a JSON value in
// the key-value table.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new SQLite settings repository
func NewSettingsRepository(db *sqlx.DB) repository.SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (models.Settings, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", settingsKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, err
	}

	settings := models.DefaultSettings()
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s models.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value
	`

	_, err = r.db.ExecContext(ctx, query, settingsKey, string(value))
	return err
}
