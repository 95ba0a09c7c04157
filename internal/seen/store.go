// Package seen persists the identifiers of items that were successfully
// delivered, so the next run can skip them. Absence of an identifier means
// never seen or evicted by age; both are eligible for delivery.
package seen

import (
	"context"
	"time"
)

// Store tracks previously delivered item identifiers.
//
// A run treats the store as read-only during fetch and mutates it only during
// dispatch, from a single logical writer. EvictOlderThan must be called at
// most once per run, immediately before Save, so that items delivered in the
// current run are never evicted in the same run.
type Store interface {
	IsSeen(ctx context.Context, id string) (bool, error)
	// MarkSeen records a successful delivery. It is idempotent and
	// overwrites any prior timestamp for the same id.
	MarkSeen(ctx context.Context, id string, at time.Time) error
	// EvictOlderThan removes records whose timestamp predates now-retention
	// and reports how many were removed.
	EvictOlderThan(ctx context.Context, retention time.Duration) (int, error)
	// Save persists pending state. Backends with durable per-write
	// semantics may treat it as a no-op.
	Save(ctx context.Context) error
	Close() error
}
