// Package export renders a selected record set into portable files. CSV is
// the canonical format; Excel and PDF carry the same logical columns and
// escaping semantics. Serialization is buffered, so a failure produces no
// partial output.
package export

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	default:
		return "csv"
	}
}

// ReportType selects which column set a report carries.
type ReportType string

const (
	// ReportDetailed lists one row per attendance event.
	ReportDetailed ReportType = "detailed"
	// ReportSummary lists one row per employee with derived statistics.
	ReportSummary ReportType = "summary"
)

// Column sets are fixed per export type and never reordered by data.
var (
	DetailedColumns = []string{
		"Employee ID", "Employee Name", "Date", "Type", "Timestamp", "Status", "Notes",
	}
	SummaryColumns = []string{
		"Employee ID", "Employee Name", "Total Sign-Ins", "On Time", "Late",
		"Total Hours Worked", "Average Arrival Time", "Average Departure Time",
		"Attendance Days",
	}
)

// Report is a fully assembled table ready for any serializer.
type Report struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// BuildDetailed assembles the per-event report. Roster misses degrade to
// the event's own denormalized name or "Unknown"; absent values serialize
// to empty strings, never a literal null.
func BuildDetailed(events []model.AttendanceEvent, roster ports.RosterLookup, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		status := ""
		if ev.Type == model.TypeSignIn {
			if ev.IsLate {
				status = "Late"
			} else {
				status = "On Time"
			}
		}
		rows = append(rows, []string{
			ev.EmployeeID,
			displayName(ev, roster),
			ev.DateKey(loc),
			string(ev.Type),
			ev.Timestamp.In(loc).Format(time.RFC3339),
			status,
			ev.Notes,
		})
	}
	return Report{Title: "Attendance Records", Columns: DetailedColumns, Rows: rows}
}

// BuildSummary assembles the per-employee statistics report, ordered by
// employee ID so output is deterministic.
func BuildSummary(summaries map[string]*model.StatSummary) Report {
	ids := make([]string, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		s := summaries[id]
		rows = append(rows, []string{
			s.EmployeeID,
			s.EmployeeName,
			fmt.Sprintf("%d", s.TotalSignIns),
			fmt.Sprintf("%d", s.OnTime),
			fmt.Sprintf("%d", s.Late),
			s.HoursWorkedDisplay(),
			model.FormatClock(s.AverageArrival),
			model.FormatClock(s.AverageDeparture),
			fmt.Sprintf("%d", len(s.AttendanceDates)),
		})
	}
	return Report{Title: "Attendance Summary", Columns: SummaryColumns, Rows: rows}
}

// Serialize renders the report in the requested format. The output is
// staged in memory and only copied to w when rendering fully succeeded.
func Serialize(w io.Writer, report Report, format Format) error {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(&buf, report)
	case FormatExcel:
		err = writeExcel(&buf, report)
	case FormatPDF:
		err = writePDF(&buf, report)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("serialize %s export: %w", format, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func displayName(ev model.AttendanceEvent, roster ports.RosterLookup) string {
	if roster != nil {
		if entry, ok := roster.Resolve(ev.EmployeeID); ok && entry.Name != "" {
			return entry.Name
		}
	}
	if ev.EmployeeName != "" {
		return ev.EmployeeName
	}
	return "Unknown"
}
