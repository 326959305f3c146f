package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPageTextLen bounds the plain-text body of a page snapshot, in
// code points. Bodies over the cap are cut and marked.
const MaxPageTextLen = 50000

// TruncationMarker is appended to a body cut at MaxPageTextLen.
const TruncationMarker = "\n\n[内容过长，已截断]"

// PageContent is an immutable snapshot of the page being summarized.
// One instance per summarization request.
type PageContent struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Text        string    `json:"text"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// NewPageContent builds a snapshot, enforcing the body bound.
func NewPageContent(title, url, text string) PageContent {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > MaxPageTextLen {
		runes := []rune(text)
		text = string(runes[:MaxPageTextLen]) + TruncationMarker
	}
	return PageContent{
		Title:       strings.TrimSpace(title),
		URL:         strings.TrimSpace(url),
		Text:        text,
		ExtractedAt: time.Now(),
	}
}
