package providers

import (
	"context"

	"github.com/pagelens/pagelens-backend/internal/models"
)

// SummaryRequest carries one summarization call through a transport.
type SummaryRequest struct {
	// System and User are the provider-neutral prompt pair.
	System string
	User   string
	// Page is the snapshot the prompt was built from. Transports with
	// a file-based path need the raw snapshot, not just the prompt.
	Page models.PageContent
	// Model is the user-selected model id. Web-session providers
	// ignore it; their model is fixed by the backing web app.
	Model string
	// OnDelta, when set, receives assistant text fragments as they
	// stream in. Best-effort; transports without streaming call it
	// once with the full text.
	OnDelta func(delta string)
}

// Summary is a transport's normalized result.
type Summary struct {
	Text string
	// ModelLabel is the display label of the model that produced the
	// text. For web-session providers this is a constant.
	ModelLabel string
}

// Provider defines the interface for all summarization transports.
type Provider interface {
	// Name returns the provider id
	Name() string

	// Summarize performs one page summarization
	Summarize(ctx context.Context, req SummaryRequest) (*Summary, error)
}

// ModelLister is implemented by providers whose model set is
// user-selectable and discoverable.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
