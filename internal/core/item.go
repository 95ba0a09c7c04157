package core

import (
	"fmt"
	"time"
)

// Item is a feed entry that has passed identifier derivation and filtering
// and is a candidate for delivery. Items are built fresh every run and are
// never persisted; only the identifier of a successfully delivered item is
// recorded in the seen store.
type Item struct {
	// Identifier is the canonical link of the entry or, failing that, its
	// feed-provided GUID. Identity is by identifier only, never by content.
	Identifier  string
	Source      string
	Tag         string
	Title       string
	Body        string
	Link        string
	PublishedAt time.Time // zero when the feed gave no parseable timestamp
	Summary     string    // filled by the enricher, empty when disabled or failed
}

// OutcomeStatus describes what happened to one item during dispatch.
type OutcomeStatus string

const (
	StatusSent          OutcomeStatus = "sent"
	StatusFailed        OutcomeStatus = "failed"
	StatusSkippedDryRun OutcomeStatus = "skipped_dry_run"
)

// Outcome records the delivery result for a single item. Only StatusSent
// commits the item's identifier to the seen store.
type Outcome struct {
	Item   *Item
	Status OutcomeStatus
	Err    error
}

// Report summarises a single run.
type Report struct {
	SourcesPolled  int
	SourceFailures int
	Candidates     int
	Delivered      int
	Failed         int
	Skipped        int
}

func (r Report) String() string {
	return fmt.Sprintf("sources=%d source_failures=%d candidates=%d delivered=%d failed=%d skipped=%d",
		r.SourcesPolled, r.SourceFailures, r.Candidates, r.Delivered, r.Failed, r.Skipped)
}
