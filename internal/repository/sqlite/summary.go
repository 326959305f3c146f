package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/repository"
)

// maxRetained bounds the summary log; older rows are pruned on insert.
const maxRetained = 50

// SummaryRepository implements repository.SummaryRepository on SQLite.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new SQLite summary repository
func NewSummaryRepository(db *sqlx.DB) repository.SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) Add(ctx context.Context, rec *models.SummaryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO summaries (id, title, url, summary, provider, model, template_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.URL, rec.Summary, rec.Provider, rec.Model, rec.TemplateID, rec.CreatedAt); err != nil {
		return err
	}

	prune := `
		DELETE FROM summaries WHERE id NOT IN (
			SELECT id FROM summaries ORDER BY created_at DESC LIMIT ?
		)
	`
	_, err := r.db.ExecContext(ctx, prune, maxRetained)
	return err
}

func (r *SummaryRepository) List(ctx context.Context, limit int) ([]models.SummaryRecord, error) {
	if limit <= 0 || limit > maxRetained {
		limit = maxRetained
	}

	records := []models.SummaryRecord{}
	query := `
		SELECT id, title, url, summary, provider, model, template_id, created_at
		FROM summaries
		ORDER BY created_at DESC
		LIMIT ?
	`
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, err
	}
	return records, nil
}
