package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

// PageSize is the fixed page length for paged retrieval. An exact-size
// page is taken to mean more data exists; a final page that happens to be
// exactly full will report hasMore=true. Known limitation, a cursor or
// total count from the source would remove the ambiguity.
const PageSize = 30

// fallbackFetchLimit is the oversized fetch used when ranged retrieval
// fails and the controller filters a recent batch client-side instead.
const fallbackFetchLimit = PageSize * 10

// WindowOptions selects what slice of history to retrieve. A non-zero
// StartDate and EndDate request ranged retrieval; otherwise Page drives
// paged retrieval (page numbers start at 1, zero means the first page).
type WindowOptions struct {
	Page      int
	StartDate time.Time
	EndDate   time.Time
}

// Ranged reports whether the options request date-ranged retrieval.
func (o WindowOptions) Ranged() bool {
	return !o.StartDate.IsZero() && !o.EndDate.IsZero()
}

// QueryController orchestrates paginated and date-ranged retrieval against
// the batch record source. The ranged endpoint sits behind a circuit
// breaker; when the call fails (collaborator error, breaker open) the
// controller transparently falls back to an oversized recent fetch with
// client-side date filtering. Same return contract either way.
type QueryController struct {
	source  ports.BatchRecordSource
	breaker *gobreaker.CircuitBreaker
	loc     *time.Location
	clock   func() time.Time
}

// NewQueryController wires the controller to its batch source. The breaker
// trips when the ranged endpoint fails more than half the time over at
// least ten calls, so a struggling source is not hammered.
func NewQueryController(source ports.BatchRecordSource, loc *time.Location) *QueryController {
	if loc == nil {
		loc = time.Local
	}
	settings := gobreaker.Settings{
		Name:        "Ranged-Records",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}
	return &QueryController{
		source:  source,
		breaker: gobreaker.NewCircuitBreaker(settings),
		loc:     loc,
		clock:   time.Now,
	}
}

// FetchWindow retrieves one window of normalized events plus a hasMore
// flag. Events for other organizations and malformed records are dropped,
// not errored. On transport failure the caller's working set must be left
// unchanged, so the error is returned with no partial result.
func (c *QueryController) FetchWindow(ctx context.Context, orgID string, opts WindowOptions) ([]model.AttendanceEvent, bool, error) {
	if opts.Ranged() {
		events, err := c.fetchRanged(ctx, orgID, opts.StartDate, opts.EndDate)
		return events, false, err
	}
	return c.fetchPaged(ctx, orgID, opts.Page)
}

// QuickRange fetches the preset "last N days" window: start at local
// midnight N days back, end at the last millisecond of today.
func (c *QueryController) QuickRange(ctx context.Context, orgID string, days int) ([]model.AttendanceEvent, error) {
	now := c.clock().In(c.loc)
	start := startOfDay(now.AddDate(0, 0, -days), c.loc)
	end := endOfDay(now, c.loc)
	events, _, err := c.FetchWindow(ctx, orgID, WindowOptions{StartDate: start, EndDate: end})
	return events, err
}

func (c *QueryController) fetchRanged(ctx context.Context, orgID string, start, end time.Time) ([]model.AttendanceEvent, error) {
	start = startOfDay(start, c.loc)
	end = endOfDay(end, c.loc)

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.source.FetchRange(ctx, orgID, start, end)
	})
	if err == nil {
		return c.normalizeScoped(raw.([]model.RawEvent), orgID, start, end), nil
	}

	log.Ctx(ctx).Warn().Err(err).
		Str("organization_id", orgID).
		Msg("Ranged retrieval failed, falling back to filtered recent fetch")

	recent, ferr := c.source.FetchRecent(ctx, orgID, fallbackFetchLimit)
	if ferr != nil {
		return nil, fmt.Errorf("ranged fetch failed (%w) and recent fallback failed: %w", err, ferr)
	}
	return c.normalizeScoped(recent, orgID, start, end), nil
}

func (c *QueryController) fetchPaged(ctx context.Context, orgID string, page int) ([]model.AttendanceEvent, bool, error) {
	if page < 1 {
		page = 1
	}
	// The source only speaks "most recent N", so page n fetches n pages
	// deep and slices off the last one.
	raw, err := c.source.FetchRecent(ctx, orgID, page*PageSize)
	if err != nil {
		return nil, false, fmt.Errorf("paged fetch: %w", err)
	}

	events := c.normalizeScoped(raw, orgID, time.Time{}, time.Time{})
	offset := (page - 1) * PageSize
	if offset >= len(events) {
		return []model.AttendanceEvent{}, false, nil
	}
	window := events[offset:]
	if len(window) > PageSize {
		window = window[:PageSize]
	}
	return window, len(window) == PageSize, nil
}

// normalizeScoped normalizes the raw batch, drops malformed and
// out-of-organization records, applies the optional inclusive date filter,
// and orders most-recent-first.
func (c *QueryController) normalizeScoped(raw []model.RawEvent, orgID string, start, end time.Time) []model.AttendanceEvent {
	now := c.clock()
	events := make([]model.AttendanceEvent, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		ev := Normalize(r, now)
		if ev == nil {
			skipped++
			continue
		}
		if ev.OrganizationID != orgID {
			continue
		}
		if !start.IsZero() && ev.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && ev.Timestamp.After(end) {
			continue
		}
		events = append(events, *ev)
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("organization_id", orgID).
			Msg("Dropped malformed records from batch")
	}
	sortEventsByTimestampDesc(events)
	return events
}

func sortEventsByTimestampDesc(events []model.AttendanceEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// endOfDay extends to 23:59:59.999 so the full end day is inclusive.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}
