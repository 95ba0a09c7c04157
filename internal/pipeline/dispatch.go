package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/feedherald/feedherald/internal/config"
	"github.com/feedherald/feedherald/internal/core"
	"github.com/feedherald/feedherald/internal/seen"
	"github.com/feedherald/feedherald/internal/sink"
)

// Dispatcher sends enriched candidates to the sink under a global per-run
// item cap, splitting oversized payloads into ordered chunks and pacing every
// sink call through a shared rate limiter. It is the only pipeline stage that
// writes to the seen store.
type Dispatcher struct {
	sink       sink.Sink
	store      seen.Store
	maxItems   int
	maxPayload int
	limiter    *rate.Limiter
	dryRun     bool
	now        func() time.Time
}

func NewDispatcher(s sink.Sink, store seen.Store, cfg config.DispatchConfig, dryRun bool) (*Dispatcher, error) {
	if s == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if store == nil {
		return nil, fmt.Errorf("seen store is required")
	}
	if cfg.MaxItems <= 0 {
		return nil, fmt.Errorf("dispatch max_items must be > 0")
	}

	maxPayload := cfg.MaxPayload
	if limit := s.Limit(); maxPayload <= 0 || maxPayload > limit {
		maxPayload = limit
	}

	// Pace 0 disables pacing entirely; tests rely on that.
	var limiter *rate.Limiter
	if pace := cfg.Pace.Std(); pace > 0 {
		limiter = rate.NewLimiter(rate.Every(pace), 1)
	}

	return &Dispatcher{
		sink:       s,
		store:      store,
		maxItems:   cfg.MaxItems,
		maxPayload: maxPayload,
		limiter:    limiter,
		dryRun:     dryRun,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Dispatch delivers items in order and returns one outcome per attempted
// item. Items beyond the cap get no outcome: they are neither sent nor marked
// seen and stay eligible for the next run. A failed item never aborts the
// remainder of the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, items []*core.Item) []core.Outcome {
	logger := core.LoggerFromContext(ctx)

	batch := items
	if len(batch) > d.maxItems {
		logger.Info("capping dispatch batch", "eligible", len(items), "cap", d.maxItems)
		batch = batch[:d.maxItems]
	}

	outcomes := make([]core.Outcome, 0, len(batch))
	for _, item := range batch {
		payload := renderItem(item)
		chunks := chunkPayload(payload, d.maxPayload)

		if d.dryRun {
			logger.Info("dry run, would send", "source", item.Source, "id", item.Identifier,
				"chunks", len(chunks), "payload", payload)
			outcomes = append(outcomes, core.Outcome{Item: item, Status: core.StatusSkippedDryRun})
			continue
		}

		var sendErr error
		for _, chunk := range chunks {
			if err := d.pace(ctx); err != nil {
				sendErr = err
				break
			}
			if err := d.sink.Send(ctx, chunk); err != nil {
				sendErr = err
				break
			}
		}
		if sendErr != nil {
			logger.Error("delivery failed", "source", item.Source, "id", item.Identifier, "error", sendErr)
			outcomes = append(outcomes, core.Outcome{Item: item, Status: core.StatusFailed, Err: sendErr})
			continue
		}

		if err := d.store.MarkSeen(ctx, item.Identifier, d.now()); err != nil {
			// Delivery happened but idempotency is no longer guaranteed;
			// the next run may redeliver this item.
			logger.Error("mark seen failed after delivery", "id", item.Identifier, "error", err)
			outcomes = append(outcomes, core.Outcome{Item: item, Status: core.StatusFailed, Err: err})
			continue
		}
		outcomes = append(outcomes, core.Outcome{Item: item, Status: core.StatusSent})
	}

	return outcomes
}

// pace blocks until the limiter allows the next sink call. The delay is
// uniform across item and chunk boundaries.
func (d *Dispatcher) pace(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	return d.limiter.Wait(ctx)
}

// renderItem produces the fixed outbound message for one item. Formatting is
// deliberately minimal; the sink receives it as opaque text.
func renderItem(item *core.Item) string {
	var b strings.Builder
	if item.Tag != "" {
		b.WriteString(item.Tag)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "**%s** | %s", item.Source, item.Title)
	if item.Summary != "" {
		b.WriteString("\n\n")
		b.WriteString(item.Summary)
	}
	if item.Link != "" {
		b.WriteString("\n🔗 ")
		b.WriteString(item.Link)
	}
	if !item.PublishedAt.IsZero() {
		b.WriteString("\n📅 ")
		b.WriteString(item.PublishedAt.UTC().Format("2006-01-02"))
	}
	return b.String()
}

// chunkPayload splits a payload into ordered rune-bounded chunks whose
// concatenation equals the original.
func chunkPayload(payload string, max int) []string {
	runes := []rune(payload)
	if max <= 0 || len(runes) <= max {
		return []string{payload}
	}
	chunks := make([]string, 0, (len(runes)+max-1)/max)
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
