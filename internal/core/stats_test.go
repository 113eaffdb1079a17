package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

func event(id, empID string, kind model.EventType, ts time.Time, late bool) model.AttendanceEvent {
	return model.AttendanceEvent{
		ID:             id,
		EmployeeID:     empID,
		Type:           kind,
		Timestamp:      ts,
		IsLate:         late,
		OrganizationID: "org-1",
	}
}

func at(day int, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, time.UTC)
}

func newTestEngine(roster ports.RosterLookup) *StatsEngine {
	return NewStatsEngine(roster, time.UTC)
}

func TestComputeStats_SingleLateDay(t *testing.T) {
	// GIVEN: one late sign-in at 09:10 and a sign-out at 17:05 on the same date
	// THEN: one sign-in counted as late, 7.92 hours worked, one attendance day
	engine := newTestEngine(nil)

	stats := engine.ComputeStats([]model.AttendanceEvent{
		event("1", "E1", model.TypeSignIn, at(2, 9, 10), true),
		event("2", "E1", model.TypeSignOut, at(2, 17, 5), false),
	})

	require.Contains(t, stats, "E1")
	s := stats["E1"]
	assert.Equal(t, 1, s.TotalSignIns)
	assert.Equal(t, 0, s.OnTime)
	assert.Equal(t, 1, s.Late)
	assert.InDelta(t, 7.9166, s.TotalHoursWorked, 0.001)
	assert.Equal(t, "7.92", s.HoursWorkedDisplay())
	assert.Equal(t, []string{"2026-03-02"}, s.AttendanceDates)
	assert.Equal(t, "09:10", model.FormatClock(s.AverageArrival))
	assert.Equal(t, "17:05", model.FormatClock(s.AverageDeparture))
}

func TestComputeStats_AnomalousPairsExcluded(t *testing.T) {
	tests := []struct {
		name    string
		in, out time.Time
	}{
		{"sign-out before sign-in", at(2, 17, 0), at(2, 9, 0)},
		{"identical instants", at(2, 9, 0), at(2, 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(nil)
			stats := engine.ComputeStats([]model.AttendanceEvent{
				event("1", "E1", model.TypeSignIn, tt.in, false),
				event("2", "E1", model.TypeSignOut, tt.out, false),
			})

			s := stats["E1"]
			assert.Zero(t, s.TotalHoursWorked, "anomalous pair must contribute nothing")
			assert.Equal(t, 1, s.TotalSignIns, "the sign-in itself still counts")
			assert.Nil(t, s.AverageArrival, "anomalous pair must not feed the arrival mean")
			assert.Nil(t, s.AverageDeparture, "anomalous pair must not feed the departure mean")
		})
	}
}

func TestComputeStats_AnomalousPairLeavesOtherDaysAlone(t *testing.T) {
	engine := newTestEngine(nil)

	stats := engine.ComputeStats([]model.AttendanceEvent{
		// Inverted pair on day 2, valid pair on day 3.
		event("1", "E1", model.TypeSignIn, at(2, 17, 0), false),
		event("2", "E1", model.TypeSignOut, at(2, 9, 0), false),
		event("3", "E1", model.TypeSignIn, at(3, 9, 0), false),
		event("4", "E1", model.TypeSignOut, at(3, 17, 0), false),
	})

	s := stats["E1"]
	assert.InDelta(t, 8.0, s.TotalHoursWorked, 0.001)
	assert.Equal(t, "09:00", model.FormatClock(s.AverageArrival), "only the valid day's arrival counts")
	assert.Equal(t, "17:00", model.FormatClock(s.AverageDeparture), "only the valid day's departure counts")
}

func TestComputeStats_FirstSeenWinsPerDay(t *testing.T) {
	engine := newTestEngine(nil)

	stats := engine.ComputeStats([]model.AttendanceEvent{
		event("1", "E1", model.TypeSignIn, at(2, 9, 0), false),
		event("2", "E1", model.TypeSignIn, at(2, 11, 0), true),
		event("3", "E1", model.TypeSignOut, at(2, 17, 0), false),
	})

	s := stats["E1"]
	assert.Equal(t, 1, s.TotalSignIns)
	assert.Equal(t, 1, s.OnTime)
	assert.Equal(t, 0, s.Late)
	assert.InDelta(t, 8.0, s.TotalHoursWorked, 0.001)
}

func TestComputeStats_MultipleDaysAndEmployees(t *testing.T) {
	engine := newTestEngine(nil)

	stats := engine.ComputeStats([]model.AttendanceEvent{
		event("1", "E1", model.TypeSignIn, at(2, 9, 0), false),
		event("2", "E1", model.TypeSignOut, at(2, 17, 0), false),
		event("3", "E1", model.TypeSignIn, at(3, 9, 30), true),
		event("4", "E1", model.TypeSignOut, at(3, 17, 30), false),
		event("5", "E2", model.TypeSignIn, at(2, 8, 0), false),
	})

	require.Len(t, stats, 2)
	e1 := stats["E1"]
	assert.Equal(t, 2, e1.TotalSignIns)
	assert.Equal(t, 1, e1.OnTime)
	assert.Equal(t, 1, e1.Late)
	assert.InDelta(t, 16.0, e1.TotalHoursWorked, 0.001)
	assert.Equal(t, []string{"2026-03-02", "2026-03-03"}, e1.AttendanceDates)
	// Mean of 09:00 and 09:30
	assert.Equal(t, "09:15", model.FormatClock(e1.AverageArrival))

	e2 := stats["E2"]
	assert.Equal(t, 1, e2.TotalSignIns)
	assert.Zero(t, e2.TotalHoursWorked, "unpaired sign-in yields no hours")
	assert.Equal(t, model.ClockSentinel, model.FormatClock(e2.AverageDeparture))
}

func TestComputeStats_SignOutOnlyDayIsNotAttendance(t *testing.T) {
	engine := newTestEngine(nil)

	stats := engine.ComputeStats([]model.AttendanceEvent{
		event("1", "E1", model.TypeSignOut, at(2, 17, 0), false),
	})

	s := stats["E1"]
	assert.Empty(t, s.AttendanceDates)
	assert.Zero(t, s.TotalSignIns)
	assert.Equal(t, model.ClockSentinel, model.FormatClock(s.AverageArrival))
	assert.Equal(t, "17:00", model.FormatClock(s.AverageDeparture))
}

func TestComputeStats_RosterDecoration(t *testing.T) {
	roster := ports.StaticRoster{
		"E1": {Name: "Ana Pop", Department: "Assembly"},
	}
	engine := newTestEngine(roster)

	ev1 := event("1", "E1", model.TypeSignIn, at(2, 9, 0), false)
	ev2 := event("2", "E9", model.TypeSignIn, at(2, 9, 0), false)
	ev2.EmployeeName = "Snapshot Name"
	ev3 := event("3", "E8", model.TypeSignIn, at(2, 9, 0), false)

	stats := engine.ComputeStats([]model.AttendanceEvent{ev1, ev2, ev3})

	assert.Equal(t, "Ana Pop", stats["E1"].EmployeeName)
	assert.Equal(t, "Assembly", stats["E1"].Department)
	assert.Equal(t, "Snapshot Name", stats["E9"].EmployeeName, "roster miss falls back to the event snapshot")
	assert.Equal(t, "Unknown", stats["E8"].EmployeeName)
}

func TestComputeStats_Empty(t *testing.T) {
	engine := newTestEngine(nil)
	assert.Empty(t, engine.ComputeStats(nil))
}
