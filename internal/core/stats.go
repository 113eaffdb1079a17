package core

import (
	"sort"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

// hoursPerDay bounds an acceptable same-day shift. A (sign-in, sign-out)
// pair outside (0, 24) hours is anomalous and contributes nothing.
const hoursPerDay = 24

// StatsEngine derives per-employee summaries from a window of canonical
// events. A summary is a pure function of (event set, window); the engine
// holds no state between calls.
type StatsEngine struct {
	roster ports.RosterLookup
	loc    *time.Location
}

// NewStatsEngine creates an engine that resolves display names through
// roster and buckets days by the given location's date boundary. A nil
// roster degrades to the events' own denormalized names; a nil location
// means the viewer's local zone.
func NewStatsEngine(roster ports.RosterLookup, loc *time.Location) *StatsEngine {
	if loc == nil {
		loc = time.Local
	}
	return &StatsEngine{roster: roster, loc: loc}
}

// dayPair keeps the first-seen sign-in and sign-out for one employee-date
// bucket. Upstream capture policy is assumed to deduplicate per day;
// first-seen-wins is the documented simplification for when it does not.
type dayPair struct {
	in  *model.AttendanceEvent
	out *model.AttendanceEvent
}

// ComputeStats partitions events by employee and calendar date and folds
// each bucket into the summary metrics. Events are taken as-is; ordering
// and deduplication are the working set's job.
func (e *StatsEngine) ComputeStats(events []model.AttendanceEvent) map[string]*model.StatSummary {
	buckets := make(map[string]map[string]*dayPair)
	names := make(map[string]string)

	for i := range events {
		ev := &events[i]
		days, ok := buckets[ev.EmployeeID]
		if !ok {
			days = make(map[string]*dayPair)
			buckets[ev.EmployeeID] = days
		}
		if names[ev.EmployeeID] == "" && ev.EmployeeName != "" {
			names[ev.EmployeeID] = ev.EmployeeName
		}

		date := ev.DateKey(e.loc)
		pair, ok := days[date]
		if !ok {
			pair = &dayPair{}
			days[date] = pair
		}
		switch ev.Type {
		case model.TypeSignIn:
			if pair.in == nil {
				pair.in = ev
			}
		case model.TypeSignOut:
			if pair.out == nil {
				pair.out = ev
			}
		}
	}

	summaries := make(map[string]*model.StatSummary, len(buckets))
	for employeeID, days := range buckets {
		summaries[employeeID] = e.foldDays(employeeID, names[employeeID], days)
	}
	return summaries
}

func (e *StatsEngine) foldDays(employeeID, fallbackName string, days map[string]*dayPair) *model.StatSummary {
	s := &model.StatSummary{
		EmployeeID:      employeeID,
		AttendanceDates: []string{},
	}
	s.EmployeeName = e.resolveName(employeeID, fallbackName, s)

	var arrivals, departures []float64
	for date, pair := range days {
		if pair.in != nil {
			s.TotalSignIns++
			if pair.in.IsLate {
				s.Late++
			} else {
				s.OnTime++
			}
			s.AttendanceDates = append(s.AttendanceDates, date)
		}

		if pair.in != nil && pair.out != nil {
			hours := pair.out.Timestamp.Sub(pair.in.Timestamp).Hours()
			// Negative or multi-day spans are anomalous, not errors. An
			// anomalous pair contributes to neither the hours total nor
			// the arrival/departure means.
			if hours <= 0 || hours >= hoursPerDay {
				continue
			}
			s.TotalHoursWorked += hours
			arrivals = append(arrivals, e.clockSeconds(pair.in.Timestamp))
			departures = append(departures, e.clockSeconds(pair.out.Timestamp))
			continue
		}

		// Unpaired events still feed their own mean.
		if pair.in != nil {
			arrivals = append(arrivals, e.clockSeconds(pair.in.Timestamp))
		}
		if pair.out != nil {
			departures = append(departures, e.clockSeconds(pair.out.Timestamp))
		}
	}

	sort.Strings(s.AttendanceDates)
	s.AverageArrival = meanClock(arrivals)
	s.AverageDeparture = meanClock(departures)
	return s
}

func (e *StatsEngine) resolveName(employeeID, fallbackName string, s *model.StatSummary) string {
	if e.roster != nil {
		if entry, ok := e.roster.Resolve(employeeID); ok {
			s.Department = entry.Department
			if entry.Name != "" {
				return entry.Name
			}
		}
	}
	if fallbackName != "" {
		return fallbackName
	}
	return "Unknown"
}

func (e *StatsEngine) clockSeconds(t time.Time) float64 {
	local := t.In(e.loc)
	return float64(local.Hour()*3600+local.Minute()*60+local.Second()) +
		float64(local.Nanosecond())/1e9
}

func meanClock(samples []float64) *model.ClockTime {
	if len(samples) == 0 {
		return nil
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return &model.ClockTime{Seconds: sum / float64(len(samples))}
}
