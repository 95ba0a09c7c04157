package impl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/feedherald/feedherald/internal/retry"
	"github.com/feedherald/feedherald/internal/sources/feed"
)

type Fetcher struct {
	client *http.Client
	parser *gofeed.Parser
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	client := &http.Client{Timeout: timeout}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent
	return &Fetcher{client: client, parser: parser}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string, options feed.FetchOptions) ([]feed.Entry, error) {
	var parsed *gofeed.Feed
	err := retry.Do(ctx, retry.Config{Attempts: 3, BaseDelay: 200 * time.Millisecond}, func() error {
		result, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			return err
		}
		parsed = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	limit := options.Limit
	if limit <= 0 || limit > len(parsed.Items) {
		limit = len(parsed.Items)
	}

	entries := make([]feed.Entry, 0, limit)
	for _, item := range parsed.Items {
		if len(entries) >= limit {
			break
		}
		entry := feed.Entry{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Content:     item.Content,
		}
		if item.PublishedParsed != nil {
			entry.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.PublishedAt = *item.UpdatedParsed
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
