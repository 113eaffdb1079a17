package core

import (
	"sort"

	"attendance.service/internal/core/model"
)

// SortKey selects the working set's ordering. Sorting is reapplied after
// every mutation rather than assumed to be preserved incrementally.
type SortKey string

const (
	// SortByTimestamp orders most-recent-first.
	SortByTimestamp SortKey = "timestamp"
	// SortByEmployee orders by employee ID ascending, ties broken
	// most-recent-first.
	SortByEmployee SortKey = "employeeId"
)

// WorkingSet is the in-memory, deduplicated, sorted collection of events
// loaded for one view. It is scoped to a single organization: events for
// any other organization are silently excluded, never errored. The set is
// not safe for concurrent use; the owning Session serializes access.
type WorkingSet struct {
	orgID   string
	sortKey SortKey
	events  []model.AttendanceEvent
	seen    map[string]struct{}
}

// NewWorkingSet creates an empty working set for the organization.
func NewWorkingSet(orgID string, key SortKey) *WorkingSet {
	if key == "" {
		key = SortByTimestamp
	}
	return &WorkingSet{
		orgID:   orgID,
		sortKey: key,
		seen:    make(map[string]struct{}),
	}
}

// Merge inserts one event, enforcing organization scope and ID uniqueness.
// Redelivery of an already-present ID is a no-op: the set's count and
// order are left untouched. Returns ErrDuplicateEvent or
// ErrOrganizationMismatch for the caller to log; neither is fatal.
func (ws *WorkingSet) Merge(ev model.AttendanceEvent) error {
	if ev.OrganizationID != ws.orgID {
		return ErrOrganizationMismatch
	}
	if _, dup := ws.seen[ev.ID]; dup {
		return ErrDuplicateEvent
	}
	ws.seen[ev.ID] = struct{}{}
	ws.events = append(ws.events, ev)
	ws.resort()
	return nil
}

// Replace swaps in a freshly fetched batch, dropping out-of-scope and
// duplicate-ID entries, then re-sorts. Used by refresh; live merges go
// through Merge.
func (ws *WorkingSet) Replace(events []model.AttendanceEvent) {
	ws.events = ws.events[:0]
	ws.seen = make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.OrganizationID != ws.orgID {
			continue
		}
		if _, dup := ws.seen[ev.ID]; dup {
			continue
		}
		ws.seen[ev.ID] = struct{}{}
		ws.events = append(ws.events, ev)
	}
	ws.resort()
}

// SetSortKey changes the ordering and re-sorts immediately.
func (ws *WorkingSet) SetSortKey(key SortKey) {
	if key == "" || key == ws.sortKey {
		return
	}
	ws.sortKey = key
	ws.resort()
}

// Events returns a copy of the current ordered contents, safe to hand to
// the aggregation engine or export serializer.
func (ws *WorkingSet) Events() []model.AttendanceEvent {
	out := make([]model.AttendanceEvent, len(ws.events))
	copy(out, ws.events)
	return out
}

// Len reports the number of events currently held.
func (ws *WorkingSet) Len() int {
	return len(ws.events)
}

// Contains reports whether an event with the given ID is present.
func (ws *WorkingSet) Contains(id string) bool {
	_, ok := ws.seen[id]
	return ok
}

func (ws *WorkingSet) resort() {
	switch ws.sortKey {
	case SortByEmployee:
		sort.SliceStable(ws.events, func(i, j int) bool {
			if ws.events[i].EmployeeID != ws.events[j].EmployeeID {
				return ws.events[i].EmployeeID < ws.events[j].EmployeeID
			}
			return ws.events[i].Timestamp.After(ws.events[j].Timestamp)
		})
	default:
		sort.SliceStable(ws.events, func(i, j int) bool {
			return ws.events[i].Timestamp.After(ws.events[j].Timestamp)
		})
	}
}
