package ports

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
)

// BatchRecordSource is the paged/windowed fetch collaborator. It is never
// required to pre-sort or deduplicate; the core does both. Implementations
// may fail on transport errors, and callers treat those as retryable.
type BatchRecordSource interface {
	// FetchRecent returns up to limit of the most recent raw events for
	// the organization.
	FetchRecent(ctx context.Context, orgID string, limit int) ([]model.RawEvent, error)

	// FetchRange returns raw events whose timestamps fall inside
	// [start, end]. Sources without a ranged endpoint return an error and
	// the query controller falls back to FetchRecent with client-side
	// filtering.
	FetchRange(ctx context.Context, orgID string, start, end time.Time) ([]model.RawEvent, error)
}

// LiveEventSource is the push subscription collaborator. Delivery may be
// duplicated; the core's idempotent-by-ID merge absorbs that.
type LiveEventSource interface {
	// Subscribe starts delivering raw events to handler and returns a
	// cancel function that stops delivery. Handler calls are serialized
	// by the source.
	Subscribe(ctx context.Context, handler func(model.RawEvent)) (cancel func(), err error)
}

// RosterEntry is the read-only employee record used to decorate output.
type RosterEntry struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

// RosterLookup resolves employee IDs to roster entries. A miss degrades to
// the event's own denormalized name, never an error.
type RosterLookup interface {
	Resolve(employeeID string) (RosterEntry, bool)
}

// StaticRoster is an in-memory RosterLookup built from a snapshot, the
// explicit context object the core receives instead of reaching into any
// ambient organization state.
type StaticRoster map[string]RosterEntry

func (r StaticRoster) Resolve(employeeID string) (RosterEntry, bool) {
	entry, ok := r[employeeID]
	return entry, ok
}
