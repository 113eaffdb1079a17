package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

// DefaultNoticeDuration is how long a new-activity notice stays shown
// before reverting to idle on its own.
const DefaultNoticeDuration = 5 * time.Second

// Notice is the transient "new activity" banner emitted when a live event
// lands. Advisory only: it never gates aggregation, and consumers
// recompute summaries lazily on their next read.
type Notice struct {
	EventID      string          `json:"eventId"`
	EmployeeName string          `json:"employeeName"`
	Type         model.EventType `json:"type"`
	IsLate       bool            `json:"isLate"`
	Message      string          `json:"message"`
	ShownAt      time.Time       `json:"shownAt"`
}

// Reconciler merges live-pushed events into a working set: normalize,
// enforce organization scope, drop duplicate IDs, prepend, re-sort. The
// notice it raises follows a two-state machine, Idle -> Shown -> Idle
// (after the display duration or a manual dismiss). The reconciler is not
// goroutine-safe on its own; the owning Session serializes calls.
type Reconciler struct {
	ws       *WorkingSet
	roster   ports.RosterLookup
	duration time.Duration
	clock    func() time.Time

	// lock, when set, serializes the notice expiry timer callback with
	// the owning session's writer context.
	lock sync.Locker

	notice      *Notice
	noticeTimer *time.Timer
	onChange    func()
}

// NewReconciler builds a reconciler over the working set. lock, if
// non-nil, is taken by the notice expiry callback, which is the only path
// that runs outside the owner's calls. onChange, if non-nil, fires after
// every successful merge so the owner can invalidate derived summaries.
func NewReconciler(ws *WorkingSet, roster ports.RosterLookup, noticeFor time.Duration, lock sync.Locker, onChange func()) *Reconciler {
	if noticeFor <= 0 {
		noticeFor = DefaultNoticeDuration
	}
	return &Reconciler{
		ws:       ws,
		roster:   roster,
		duration: noticeFor,
		clock:    time.Now,
		lock:     lock,
		onChange: onChange,
	}
}

// OnEvent ingests one raw live event. Malformed, out-of-scope, and
// duplicate events are rejected with a sentinel error the caller may log;
// none of them mutate the working set.
func (r *Reconciler) OnEvent(raw model.RawEvent) error {
	ev := Normalize(raw, r.clock())
	if ev == nil {
		return ErrMalformedEvent
	}

	if err := r.ws.Merge(*ev); err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			log.Debug().Str("event_id", ev.ID).Msg("Ignoring redelivered live event")
		}
		return err
	}

	r.show(ev)
	if r.onChange != nil {
		r.onChange()
	}
	return nil
}

// Notice returns the currently shown notice, or nil when idle.
func (r *Reconciler) Notice() *Notice {
	return r.notice
}

// Dismiss manually returns the notice to idle.
func (r *Reconciler) Dismiss() {
	if r.noticeTimer != nil {
		r.noticeTimer.Stop()
		r.noticeTimer = nil
	}
	r.notice = nil
}

// Stop releases the notice timer. Called on session teardown.
func (r *Reconciler) Stop() {
	r.Dismiss()
}

func (r *Reconciler) show(ev *model.AttendanceEvent) {
	name := r.displayName(ev)
	verb := "signed in"
	if ev.Type == model.TypeSignOut {
		verb = "signed out"
	}
	message := fmt.Sprintf("%s %s", name, verb)
	if ev.IsLate {
		message += " (late)"
	}

	// A newer event supersedes whatever is currently shown.
	if r.noticeTimer != nil {
		r.noticeTimer.Stop()
	}
	r.notice = &Notice{
		EventID:      ev.ID,
		EmployeeName: name,
		Type:         ev.Type,
		IsLate:       ev.IsLate,
		Message:      message,
		ShownAt:      r.clock(),
	}

	shown := r.notice
	r.noticeTimer = time.AfterFunc(r.duration, func() {
		r.expire(shown)
	})
}

// expire clears the notice after its display duration unless a newer one
// replaced it first. Serialized by the session lock via onExpire.
func (r *Reconciler) expire(shown *Notice) {
	if r.lock != nil {
		r.lock.Lock()
		defer r.lock.Unlock()
	}
	if r.notice == shown {
		r.notice = nil
		r.noticeTimer = nil
	}
}

func (r *Reconciler) displayName(ev *model.AttendanceEvent) string {
	if r.roster != nil {
		if entry, ok := r.roster.Resolve(ev.EmployeeID); ok && entry.Name != "" {
			return entry.Name
		}
	}
	if ev.EmployeeName != "" {
		return ev.EmployeeName
	}
	return "Unknown"
}
