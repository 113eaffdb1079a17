package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// EventType distinguishes the two kinds of attendance events.
type EventType string

const (
	TypeSignIn  EventType = "sign-in"
	TypeSignOut EventType = "sign-out"
)

// Location is a parsed coordinate pair. Events whose location payload could
// not be parsed carry a nil Location instead of failing normalization.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AttendanceEvent is the canonical, normalized shape of one sign-in or
// sign-out occurrence. Immutable once produced by the normalizer.
type AttendanceEvent struct {
	ID                 string    `json:"id"`
	EmployeeID         string    `json:"employeeId"`
	EmployeeName       string    `json:"employeeName,omitempty"`
	Type               EventType `json:"type"`
	Timestamp          time.Time `json:"timestamp"`
	IsLate             bool      `json:"isLate,omitempty"`
	Location           *Location `json:"location,omitempty"`
	OrganizationID     string    `json:"organizationId"`
	VerificationMethod string    `json:"verificationMethod,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	IPAddress          string    `json:"ipAddress,omitempty"`
}

// DateKey returns the calendar date of the event in the given location,
// which defines the day boundary for aggregation.
func (e AttendanceEvent) DateKey(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return e.Timestamp.In(loc).Format("2006-01-02")
}

// StatSummary holds the derived per-employee metrics over a window of events.
// It is recomputed from its source events, never persisted on its own.
type StatSummary struct {
	EmployeeID       string     `json:"employeeId"`
	EmployeeName     string     `json:"employeeName"`
	Department       string     `json:"department,omitempty"`
	TotalSignIns     int        `json:"totalSignIns"`
	OnTime           int        `json:"onTime"`
	Late             int        `json:"late"`
	TotalHoursWorked float64    `json:"totalHoursWorked"`
	AverageArrival   *ClockTime `json:"averageArrivalTime,omitempty"`
	AverageDeparture *ClockTime `json:"averageDepartureTime,omitempty"`
	AttendanceDates  []string   `json:"attendanceDates"`
}

// HoursWorkedDisplay renders total hours at two decimal places. The float
// itself keeps full precision for further aggregation.
func (s *StatSummary) HoursWorkedDisplay() string {
	return strconv.FormatFloat(math.Round(s.TotalHoursWorked*100)/100, 'f', 2, 64)
}

// ClockSentinel is rendered in place of an average clock time when no
// events contributed to it.
const ClockSentinel = "—"

// ClockTime is a mean time-of-day, kept as fractional seconds since local
// midnight so averaging loses no precision.
type ClockTime struct {
	Seconds float64
}

// String renders the clock time as HH:MM, rounding to the nearest minute.
func (c ClockTime) String() string {
	total := int(math.Round(c.Seconds / 60))
	if total < 0 {
		total = 0
	}
	total %= 24 * 60
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// MarshalJSON emits the display form, so API consumers see the same
// "HH:MM" rendering the export path produces. Absent averages are nil
// pointers and get omitted by the summary's tags.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// FormatClock renders a possibly-absent average clock time for display.
func FormatClock(c *ClockTime) string {
	if c == nil {
		return ClockSentinel
	}
	return c.String()
}
