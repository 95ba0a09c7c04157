// Package runner sequences a digest run: fetch every source, enrich, dispatch,
// then evict and persist the seen store exactly once.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedherald/feedherald/internal/config"
	"github.com/feedherald/feedherald/internal/core"
	"github.com/feedherald/feedherald/internal/pipeline"
	"github.com/feedherald/feedherald/internal/seen"
	"github.com/feedherald/feedherald/internal/trigger"
)

type Runner struct {
	logger     *slog.Logger
	digest     config.Digest
	fetcher    *pipeline.SourceFetcher
	enricher   *pipeline.Enricher // nil when summarization is disabled
	dispatcher *pipeline.Dispatcher
	store      seen.Store
}

func New(logger *slog.Logger, digest config.Digest, fetcher *pipeline.SourceFetcher, enricher *pipeline.Enricher, dispatcher *pipeline.Dispatcher, store seen.Store) (*Runner, error) {
	if fetcher == nil || dispatcher == nil || store == nil {
		return nil, fmt.Errorf("fetcher, dispatcher and store are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:     logger,
		digest:     digest,
		fetcher:    fetcher,
		enricher:   enricher,
		dispatcher: dispatcher,
		store:      store,
	}, nil
}

// RunOnce executes a single run. An empty candidate set is a normal outcome;
// the seen store is still evicted and saved so retention advances every
// invocation.
func (r *Runner) RunOnce(ctx context.Context) (core.Report, error) {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	logger := r.logger.With("digest", r.digest.Name, "run_id", runID)
	ctx = core.WithDigest(ctx, r.digest.Name)
	ctx = core.WithRunID(ctx, runID)
	ctx = core.WithLogger(ctx, logger)

	var report core.Report

	// Identifiers can collide across sources; the first occurrence in a run
	// wins.
	inRun := map[string]bool{}
	candidates := []*core.Item{}
	for _, src := range r.digest.Sources {
		report.SourcesPolled++
		items, err := r.fetcher.Fetch(ctx, src)
		if err != nil {
			logger.Error("source fetch failed", "source", src.Name, "error", err)
			report.SourceFailures++
			continue
		}
		for _, item := range items {
			if inRun[item.Identifier] {
				continue
			}
			inRun[item.Identifier] = true
			candidates = append(candidates, item)
		}
		logger.Info("source polled", "source", src.Name, "candidates", len(items))
	}
	report.Candidates = len(candidates)

	if r.enricher != nil && len(candidates) > 0 {
		candidates = r.enricher.Enrich(ctx, candidates)
	}

	outcomes := r.dispatcher.Dispatch(ctx, candidates)
	for _, outcome := range outcomes {
		switch outcome.Status {
		case core.StatusSent:
			report.Delivered++
		case core.StatusFailed:
			report.Failed++
		case core.StatusSkippedDryRun:
			report.Skipped++
		}
	}

	evicted, err := r.store.EvictOlderThan(ctx, r.digest.Store.Retention.Std())
	if err != nil {
		logger.Error("eviction failed", "error", err)
	} else if evicted > 0 {
		logger.Info("evicted stale seen records", "count", evicted)
	}
	if err := r.store.Save(ctx); err != nil {
		return report, fmt.Errorf("save seen state: %w", err)
	}

	logger.Info("run complete",
		"sources", report.SourcesPolled,
		"source_failures", report.SourceFailures,
		"candidates", report.Candidates,
		"delivered", report.Delivered,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}

// Start runs the digest on its cron schedule until the context is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	if r.digest.Trigger == nil {
		return fmt.Errorf("digest has no trigger; use run-once mode")
	}
	cronTrigger := trigger.NewCron(*r.digest.Trigger)
	events, err := cronTrigger.Start(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case at, ok := <-events:
			if !ok {
				return nil
			}
			r.logger.Info("trigger fired", "digest", r.digest.Name, "time", at)
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("run failed", "digest", r.digest.Name, "error", err)
			}
		}
	}
}
