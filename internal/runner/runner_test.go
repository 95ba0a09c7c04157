package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/feedherald/feedherald/internal/config"
	"github.com/feedherald/feedherald/internal/pipeline"
	"github.com/feedherald/feedherald/internal/seen"
	sinkmock "github.com/feedherald/feedherald/internal/sink/mock"
	"github.com/feedherald/feedherald/internal/sources/feed"
	feedmock "github.com/feedherald/feedherald/internal/sources/feed/mock"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDigest(sources ...config.Source) config.Digest {
	return config.Digest{
		Name:    "test",
		Sources: sources,
		Store:   config.StoreConfig{Driver: "file", Retention: config.Duration(14 * 24 * time.Hour)},
		Dispatch: config.DispatchConfig{
			MaxItems:   15,
			MaxPayload: 1900,
			Pace:       0,
		},
	}
}

// buildRunner wires a runner with mocked feeds and sink over a real file
// store.
func buildRunner(t *testing.T, digest config.Digest, feeds *feedmock.Fetcher, chat *sinkmock.Sink, dryRun bool) (*Runner, *seen.FileStore) {
	t.Helper()
	store, err := seen.OpenFile(filepath.Join(t.TempDir(), "seen.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	fetcher, err := pipeline.NewSourceFetcher(feeds, store, digest.Freshness, digest.Sources, "test-agent")
	if err != nil {
		t.Fatalf("failed to build fetcher: %v", err)
	}
	dispatcher, err := pipeline.NewDispatcher(chat, store, digest.Dispatch, dryRun)
	if err != nil {
		t.Fatalf("failed to build dispatcher: %v", err)
	}
	r, err := New(quietLogger(), digest, fetcher, nil, dispatcher, store)
	if err != nil {
		t.Fatalf("failed to build runner: %v", err)
	}
	return r, store
}

func TestRunOnceDeliversNewItemsOnly(t *testing.T) {
	const feedURL = "https://example.com/feed"
	digest := testDigest(config.Source{URL: feedURL, Name: "Example", Limit: 10})
	feeds := &feedmock.Fetcher{Entries: map[string][]feed.Entry{
		feedURL: {
			{Link: "https://example.com/1", Title: "one"},
			{Link: "https://example.com/2", Title: "two"},
		},
	}}
	chat := &sinkmock.Sink{}
	r, _ := buildRunner(t, digest, feeds, chat, false)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Delivered != 2 || report.Failed != 0 {
		t.Fatalf("expected 2 delivered, got %+v", report)
	}

	// A second run over identical feed content delivers nothing.
	report, err = r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if report.Candidates != 0 || report.Delivered != 0 {
		t.Fatalf("second run must be a no-op, got %+v", report)
	}
	if len(chat.Sent) != 2 {
		t.Fatalf("expected 2 total sends across both runs, got %d", len(chat.Sent))
	}
}

func TestRunOnceIsolatesSourceFailures(t *testing.T) {
	const brokenURL = "https://broken.example.com/feed"
	const healthyURL = "https://healthy.example.com/feed"
	digest := testDigest(
		config.Source{URL: brokenURL, Name: "Broken", Limit: 10},
		config.Source{URL: healthyURL, Name: "Healthy", Limit: 10},
	)
	feeds := &feedmock.Fetcher{
		Entries: map[string][]feed.Entry{
			healthyURL: {{Link: "https://healthy.example.com/1", Title: "ok"}},
		},
		Errs: map[string]error{brokenURL: errors.New("connection refused")},
	}
	chat := &sinkmock.Sink{}
	r, _ := buildRunner(t, digest, feeds, chat, false)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.SourcesPolled != 2 || report.SourceFailures != 1 {
		t.Fatalf("expected one isolated source failure, got %+v", report)
	}
	if report.Delivered != 1 {
		t.Fatalf("healthy source should still deliver, got %+v", report)
	}
}

func TestRunOnceEmptyCandidateSetIsNormal(t *testing.T) {
	const feedURL = "https://example.com/feed"
	digest := testDigest(config.Source{URL: feedURL, Name: "Example", Limit: 10})
	feeds := &feedmock.Fetcher{Entries: map[string][]feed.Entry{feedURL: {}}}
	r, _ := buildRunner(t, digest, feeds, &sinkmock.Sink{}, false)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("empty run must not error: %v", err)
	}
	if report.Candidates != 0 || report.Delivered != 0 || report.Failed != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestRunOnceSuppressesCrossSourceDuplicates(t *testing.T) {
	const firstURL = "https://first.example.com/feed"
	const secondURL = "https://second.example.com/feed"
	digest := testDigest(
		config.Source{URL: firstURL, Name: "First", Limit: 10},
		config.Source{URL: secondURL, Name: "Second", Limit: 10},
	)
	shared := feed.Entry{Link: "https://example.com/shared", Title: "shared"}
	feeds := &feedmock.Fetcher{Entries: map[string][]feed.Entry{
		firstURL:  {shared},
		secondURL: {shared},
	}}
	chat := &sinkmock.Sink{}
	r, _ := buildRunner(t, digest, feeds, chat, false)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Candidates != 1 || report.Delivered != 1 {
		t.Fatalf("duplicate identifier should deliver once, got %+v", report)
	}
	if len(chat.Sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(chat.Sent))
	}
}

func TestRunOnceFailedDeliveryStaysEligible(t *testing.T) {
	const feedURL = "https://example.com/feed"
	digest := testDigest(config.Source{URL: feedURL, Name: "Example", Limit: 10})
	feeds := &feedmock.Fetcher{Entries: map[string][]feed.Entry{
		feedURL: {{Link: "https://example.com/flaky", Title: "flaky"}},
	}}
	chat := &sinkmock.Sink{Err: errors.New("rate limited")}
	r, store := buildRunner(t, digest, feeds, chat, false)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Failed != 1 || report.Delivered != 0 {
		t.Fatalf("expected 1 failure, got %+v", report)
	}
	if isSeen, _ := store.IsSeen(context.Background(), "https://example.com/flaky"); isSeen {
		t.Fatalf("failed item must stay eligible for the next run")
	}

	// The sink recovers; the same item goes out on the next run.
	chat.Err = nil
	report, err = r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if report.Delivered != 1 {
		t.Fatalf("recovered sink should deliver the retried item, got %+v", report)
	}
}

func TestRunOnceDryRunLeavesStoreUntouched(t *testing.T) {
	const feedURL = "https://example.com/feed"
	digest := testDigest(config.Source{URL: feedURL, Name: "Example", Limit: 10})
	feeds := &feedmock.Fetcher{Entries: map[string][]feed.Entry{
		feedURL: {{Link: "https://example.com/1", Title: "one"}},
	}}
	chat := &sinkmock.Sink{}
	r, store := buildRunner(t, digest, feeds, chat, true)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Skipped != 1 || report.Delivered != 0 {
		t.Fatalf("dry run should skip, got %+v", report)
	}
	if len(chat.Sent) != 0 {
		t.Fatalf("dry run must not reach the sink")
	}
	if store.Len() != 0 {
		t.Fatalf("dry run must not mark anything seen, store has %d records", store.Len())
	}
}

func TestRunOnceEvictsAndSavesEveryRun(t *testing.T) {
	const feedURL = "https://example.com/feed"
	digest := testDigest(config.Source{URL: feedURL, Name: "Example", Limit: 10})
	feeds := &feedmock.Fetcher{Entries: map[string][]feed.Entry{feedURL: {}}}
	chat := &sinkmock.Sink{}

	path := filepath.Join(t.TempDir(), "seen.json")
	store, err := seen.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	ctx := context.Background()
	if err := store.MarkSeen(ctx, "ancient", time.Now().UTC().Add(-30*24*time.Hour)); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}

	fetcher, err := pipeline.NewSourceFetcher(feeds, store, digest.Freshness, digest.Sources, "")
	if err != nil {
		t.Fatalf("failed to build fetcher: %v", err)
	}
	dispatcher, err := pipeline.NewDispatcher(chat, store, digest.Dispatch, false)
	if err != nil {
		t.Fatalf("failed to build dispatcher: %v", err)
	}
	r, err := New(quietLogger(), digest, fetcher, nil, dispatcher, store)
	if err != nil {
		t.Fatalf("failed to build runner: %v", err)
	}

	if _, err := r.RunOnce(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// The eviction happened in memory and the save persisted it.
	reopened, err := seen.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	if isSeen, _ := reopened.IsSeen(ctx, "ancient"); isSeen {
		t.Fatalf("record beyond retention should be evicted and the eviction saved")
	}
}
