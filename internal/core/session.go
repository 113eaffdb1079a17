package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

// DefaultAutoRefreshInterval is how often an open session re-fetches its
// window when auto-refresh is running.
const DefaultAutoRefreshInterval = 30 * time.Second

// SessionConfig describes one dashboard view: the organization it is
// scoped to, its sort order, and its refresh cadence. The roster snapshot
// travels with it, so the core never reaches into ambient state.
type SessionConfig struct {
	OrganizationID      string
	SortKey             SortKey
	AutoRefreshInterval time.Duration
	NoticeDuration      time.Duration
}

// Session is the single writer context over one view's working set. Three
// activity sources interleave through it: manual refreshes, the periodic
// auto-refresh tick, and live-pushed events. A mutex serializes them, and
// every refresh carries a generation counter so a response that arrives
// after the view moved on (superseded or torn down) is discarded instead
// of applied.
type Session struct {
	cfg     SessionConfig
	queries *QueryController
	stats   *StatsEngine
	live    ports.LiveEventSource

	mu         sync.Mutex
	ws         *WorkingSet
	reconciler *Reconciler
	gen        uint64
	inflight   bool
	hasMore    bool
	lastOpts   WindowOptions
	closed     bool
	paused     bool

	cancelLive func()
	stopTicker chan struct{}

	// summaries are recomputed lazily on read and invalidated on any
	// working-set mutation.
	summaries map[string]*model.StatSummary
}

// NewSession assembles a view session. Start must be called to attach the
// live feed and auto-refresh loop.
func NewSession(cfg SessionConfig, queries *QueryController, stats *StatsEngine, live ports.LiveEventSource, roster ports.RosterLookup) *Session {
	if cfg.AutoRefreshInterval <= 0 {
		cfg.AutoRefreshInterval = DefaultAutoRefreshInterval
	}
	s := &Session{
		cfg:     cfg,
		queries: queries,
		stats:   stats,
		live:    live,
		ws:      NewWorkingSet(cfg.OrganizationID, cfg.SortKey),
	}
	s.reconciler = NewReconciler(s.ws, roster, cfg.NoticeDuration, &s.mu, s.invalidate)
	return s
}

// Start subscribes to the live feed and launches the auto-refresh loop.
// The returned error is a subscription failure; the session remains usable
// for manual refreshes when it occurs.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.stopTicker == nil {
		s.stopTicker = make(chan struct{})
		go s.autoRefreshLoop(ctx)
	}
	s.mu.Unlock()

	if s.live == nil {
		return nil
	}
	cancel, err := s.live.Subscribe(ctx, s.onLiveEvent)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return ErrSessionClosed
	}
	s.cancelLive = cancel
	s.mu.Unlock()
	return nil
}

// Refresh fetches the requested window and replaces the working set. A
// concurrent newer refresh supersedes this one: whichever finishes holding
// the current generation wins, the rest are dropped. On transport failure
// the working set is left unchanged and the error surfaced as retryable.
func (s *Session) Refresh(ctx context.Context, opts WindowOptions) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.gen++
	gen := s.gen
	s.inflight = true
	s.lastOpts = opts
	s.mu.Unlock()

	events, hasMore, err := s.queries.FetchWindow(ctx, s.cfg.OrganizationID, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		// Superseded or torn down while in flight; the result no longer
		// belongs to this view.
		return nil
	}
	s.inflight = false
	if err != nil {
		return err
	}
	s.ws.Replace(events)
	s.hasMore = hasMore
	s.invalidate()
	return nil
}

// onLiveEvent is the live feed handler, delegating to the reconciler under
// the session lock. Rejections are expected traffic, logged at debug only.
func (s *Session) onLiveEvent(raw model.RawEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err := s.reconciler.OnEvent(raw); err != nil {
		log.Debug().Err(err).Str("organization_id", s.cfg.OrganizationID).
			Msg("Live event rejected")
	}
}

func (s *Session) autoRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.AutoRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopTicker:
			return
		case <-ticker.C:
			s.mu.Lock()
			// A tick while a refresh is outstanding is a no-op; ticks
			// never stack requests.
			skip := s.closed || s.paused || s.inflight
			opts := s.lastOpts
			s.mu.Unlock()
			if skip {
				continue
			}
			if err := s.Refresh(ctx, opts); err != nil {
				log.Warn().Err(err).Str("organization_id", s.cfg.OrganizationID).
					Msg("Auto-refresh failed, keeping stale working set")
			}
		}
	}
}

// Pause suspends auto-refresh ticks; manual refreshes and live events
// still apply.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume re-enables auto-refresh ticks.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// Events returns the current ordered working-set contents.
func (s *Session) Events() []model.AttendanceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Events()
}

// HasMore reports the pagination heuristic from the last paged refresh.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Stats returns the per-employee summaries for the current working set,
// recomputing only when the set changed since the last read.
func (s *Session) Stats() map[string]*model.StatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summaries == nil {
		s.summaries = s.stats.ComputeStats(s.ws.Events())
	}
	return s.summaries
}

// Notice returns the live-activity notice, or nil when idle.
func (s *Session) Notice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciler.Notice()
}

// DismissNotice manually clears the notice.
func (s *Session) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconciler.Dismiss()
}

// SetSortKey reorders the working set under the new key.
func (s *Session) SetSortKey(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws.SetSortKey(key)
}

// Close tears the session down: live subscription cancelled, auto-refresh
// stopped, and any in-flight refresh result discarded via the generation
// bump. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	cancel := s.cancelLive
	s.cancelLive = nil
	if s.stopTicker != nil {
		close(s.stopTicker)
		s.stopTicker = nil
	}
	s.reconciler.Stop()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// invalidate drops cached summaries; called under the session lock.
func (s *Session) invalidate() {
	s.summaries = nil
}
