package models

import "time"

// SummaryRecord is a completed summarization, retained in a bounded
// most-recent-first log.
type SummaryRecord struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	URL        string    `json:"url" db:"url"`
	Summary    string    `json:"summary" db:"summary"`
	Provider   Provider  `json:"provider" db:"provider"`
	Model      string    `json:"model" db:"model"`
	TemplateID string    `json:"template_id" db:"template_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
