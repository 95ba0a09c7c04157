// Package pipeline implements the per-run delivery stages: source fetch and
// filtering, optional enrichment, and throttled dispatch toward the sink.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/feedherald/feedherald/internal/config"
	"github.com/feedherald/feedherald/internal/core"
	"github.com/feedherald/feedherald/internal/seen"
	"github.com/feedherald/feedherald/internal/sources/feed"
)

// SourceFetcher turns one configured source into delivery candidates. It
// treats the seen store as read-only; a failed lookup keeps the candidate, so
// a broken store over-delivers rather than losing items.
type SourceFetcher struct {
	feeds     feed.Fetcher
	store     seen.Store
	freshness config.Freshness
	userAgent string
	filters   map[string]*RuleFilter
	now       func() time.Time
}

func NewSourceFetcher(feeds feed.Fetcher, store seen.Store, freshness config.Freshness, sources []config.Source, userAgent string) (*SourceFetcher, error) {
	if feeds == nil {
		return nil, fmt.Errorf("feed fetcher is required")
	}
	if store == nil {
		return nil, fmt.Errorf("seen store is required")
	}

	filters := map[string]*RuleFilter{}
	for _, src := range sources {
		if src.Filter == "" {
			continue
		}
		filter, err := NewRuleFilter(src.Filter)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Name, err)
		}
		filters[src.Name] = filter
	}

	return &SourceFetcher{
		feeds:     feeds,
		store:     store,
		freshness: freshness,
		userAgent: userAgent,
		filters:   filters,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Fetch retrieves and filters one source. The returned error covers transport
// and parse failures only; the caller isolates it so other sources still run.
func (f *SourceFetcher) Fetch(ctx context.Context, src config.Source) ([]*core.Item, error) {
	entries, err := f.feeds.Fetch(ctx, src.URL, feed.FetchOptions{
		Limit:     src.Limit,
		UserAgent: f.userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name, err)
	}

	logger := core.LoggerFromContext(ctx)
	items := make([]*core.Item, 0, len(entries))
	for _, entry := range entries {
		id := identifier(entry)
		if id == "" {
			continue
		}
		if !f.fresh(entry.PublishedAt) {
			continue
		}

		isSeen, err := f.store.IsSeen(ctx, id)
		if err != nil {
			logger.Warn("seen lookup failed, keeping candidate", "source", src.Name, "id", id, "error", err)
		}
		if isSeen {
			continue
		}

		item := &core.Item{
			Identifier:  id,
			Source:      src.Name,
			Tag:         src.Tag,
			Title:       entry.Title,
			Body:        entry.Content,
			Link:        entry.Link,
			PublishedAt: entry.PublishedAt,
		}
		if item.Title == "" {
			item.Title = "No title"
		}
		if item.Body == "" {
			item.Body = entry.Description
		}

		if filter := f.filters[src.Name]; filter != nil && filter.Drop(ctx, item) {
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

// identifier derives the stable item identity: canonical link first, feed
// GUID as fallback. No URL canonicalization is applied, so the same logical
// item behind differing URLs is not deduplicated.
func identifier(entry feed.Entry) string {
	if entry.Link != "" {
		return entry.Link
	}
	return entry.GUID
}

// fresh applies the configured freshness predicate. A zero timestamp is
// treated as recent: over-delivery is preferred to silent loss.
func (f *SourceFetcher) fresh(at time.Time) bool {
	if at.IsZero() {
		return true
	}
	if !f.freshness.NotBefore.IsZero() {
		return !at.Before(f.freshness.NotBefore.Time)
	}
	if window := f.freshness.Window.Std(); window > 0 {
		return f.now().Sub(at) < window
	}
	return true
}
