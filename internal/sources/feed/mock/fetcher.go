package mock

import (
	"context"

	"github.com/feedherald/feedherald/internal/sources/feed"
)

// Fetcher returns canned entries per feed URL, or a fixed error. Errs takes
// precedence over Err for the matching URL.
type Fetcher struct {
	Entries map[string][]feed.Entry
	Errs    map[string]error
	Err     error
	Calls   []string
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string, options feed.FetchOptions) ([]feed.Entry, error) {
	_ = ctx
	f.Calls = append(f.Calls, feedURL)
	if err := f.Errs[feedURL]; err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	entries := f.Entries[feedURL]
	if options.Limit > 0 && options.Limit < len(entries) {
		entries = entries[:options.Limit]
	}
	return entries, nil
}
