package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

func liveRaw(id, empID, kind string, ts time.Time) model.RawEvent {
	return model.RawEvent{
		ID:             id,
		EmployeeID:     model.NewFlexibleID(empID),
		Type:           kind,
		Timestamp:      model.NewFlexibleTime(ts),
		OrganizationID: "org-1",
	}
}

func TestOnEvent_MergesAndRaisesNotice(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	changed := 0
	rec := NewReconciler(ws, nil, time.Minute, nil, func() { changed++ })

	raw := liveRaw("ev-1", "E1", "sign-in", at(2, 9, 0))
	raw.EmployeeName = "Ana Pop"
	require.NoError(t, rec.OnEvent(raw))

	assert.Equal(t, 1, ws.Len())
	assert.Equal(t, 1, changed)

	notice := rec.Notice()
	require.NotNil(t, notice)
	assert.Equal(t, "ev-1", notice.EventID)
	assert.Equal(t, "Ana Pop signed in", notice.Message)
	assert.Equal(t, model.TypeSignIn, notice.Type)
}

func TestOnEvent_DuplicateLeavesSetAndNoticeUntouched(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	changed := 0
	rec := NewReconciler(ws, nil, time.Minute, nil, func() { changed++ })

	require.NoError(t, rec.OnEvent(liveRaw("ev-1", "E1", "sign-in", at(2, 9, 0))))
	rec.Dismiss()

	err := rec.OnEvent(liveRaw("ev-1", "E1", "sign-out", at(2, 17, 0)))
	assert.ErrorIs(t, err, ErrDuplicateEvent)
	assert.Equal(t, 1, ws.Len())
	assert.Equal(t, 1, changed, "duplicates must not invalidate summaries")
	assert.Nil(t, rec.Notice(), "duplicates must not raise a notice")
}

func TestOnEvent_ForeignOrganizationExcluded(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	rec := NewReconciler(ws, nil, time.Minute, nil, nil)

	raw := liveRaw("ev-2", "E1", "sign-in", at(2, 9, 0))
	raw.OrganizationID = "org-2"
	err := rec.OnEvent(raw)

	assert.ErrorIs(t, err, ErrOrganizationMismatch)
	assert.Zero(t, ws.Len())
	assert.Nil(t, rec.Notice())
}

func TestOnEvent_MalformedRejected(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	rec := NewReconciler(ws, nil, time.Minute, nil, nil)

	err := rec.OnEvent(model.RawEvent{ID: "ev-3", Type: "sign-in", OrganizationID: "org-1"})

	assert.ErrorIs(t, err, ErrMalformedEvent)
	assert.Zero(t, ws.Len())
}

func TestNotice_LateSignInMessage(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	roster := ports.StaticRoster{"E1": {Name: "Ion Ionescu", Department: "Assembly"}}
	rec := NewReconciler(ws, roster, time.Minute, nil, nil)

	raw := liveRaw("ev-4", "E1", "sign-in", at(2, 9, 20))
	raw.IsLate = true
	require.NoError(t, rec.OnEvent(raw))

	notice := rec.Notice()
	require.NotNil(t, notice)
	assert.Equal(t, "Ion Ionescu signed in (late)", notice.Message)
	assert.True(t, notice.IsLate)
}

func TestNotice_SignOutNeverLate(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	rec := NewReconciler(ws, nil, time.Minute, nil, nil)

	raw := liveRaw("ev-5", "E1", "sign-out", at(2, 17, 0))
	raw.EmployeeName = "Ana Pop"
	raw.IsLate = true
	require.NoError(t, rec.OnEvent(raw))

	notice := rec.Notice()
	require.NotNil(t, notice)
	assert.Equal(t, "Ana Pop signed out", notice.Message)
	assert.False(t, notice.IsLate)
}

func TestNotice_NewerEventSupersedes(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	rec := NewReconciler(ws, nil, time.Minute, nil, nil)

	first := liveRaw("ev-6", "E1", "sign-in", at(2, 9, 0))
	first.EmployeeName = "Ana Pop"
	require.NoError(t, rec.OnEvent(first))

	second := liveRaw("ev-7", "E2", "sign-in", at(2, 9, 1))
	second.EmployeeName = "Ion Ionescu"
	require.NoError(t, rec.OnEvent(second))

	notice := rec.Notice()
	require.NotNil(t, notice)
	assert.Equal(t, "ev-7", notice.EventID)
}

func TestNotice_ExpiresAfterDuration(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	var mu sync.Mutex
	rec := NewReconciler(ws, nil, 20*time.Millisecond, &mu, nil)

	mu.Lock()
	require.NoError(t, rec.OnEvent(liveRaw("ev-8", "E1", "sign-in", at(2, 9, 0))))
	require.NotNil(t, rec.Notice())
	mu.Unlock()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return rec.Notice() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestNotice_DismissIsIdempotent(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	rec := NewReconciler(ws, nil, time.Minute, nil, nil)

	require.NoError(t, rec.OnEvent(liveRaw("ev-9", "E1", "sign-in", at(2, 9, 0))))
	rec.Dismiss()
	assert.Nil(t, rec.Notice())
	rec.Dismiss()
	assert.Nil(t, rec.Notice())
}

func TestNotice_ExpiryDoesNotClearSuccessor(t *testing.T) {
	ws := NewWorkingSet("org-1", SortByTimestamp)
	rec := NewReconciler(ws, nil, time.Minute, nil, nil)

	require.NoError(t, rec.OnEvent(liveRaw("ev-10", "E1", "sign-in", at(2, 9, 0))))
	first := rec.Notice()
	require.NotNil(t, first)

	// Fire the first notice's expiry by hand, then raise a successor and
	// verify a second stale expiry cannot clear it.
	rec.expire(first)
	require.NoError(t, rec.OnEvent(liveRaw("ev-11", "E2", "sign-in", at(2, 9, 1))))
	second := rec.Notice()
	require.NotNil(t, second)

	rec.expire(first)
	assert.Equal(t, second, rec.Notice())
}
