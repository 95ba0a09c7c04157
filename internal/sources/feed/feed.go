// Package feed defines the boundary to the syndication-feed collaborator.
package feed

import (
	"context"
	"time"
)

// FetchOptions controls feed fetch behavior.
type FetchOptions struct {
	// Limit truncates to the N newest entries, in feed order. Zero means no
	// truncation.
	Limit     int
	UserAgent string
}

// Entry represents a single RSS or Atom entry as the feed exposed it. All
// fields are optional; the pipeline decides what is usable.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time // zero when neither published nor updated parsed
}

// Fetcher fetches and parses RSS/Atom feeds. Implementations must not panic
// on malformed feed content.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, options FetchOptions) ([]Entry, error)
}
