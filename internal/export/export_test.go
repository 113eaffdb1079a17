package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

func sampleEvents() []model.AttendanceEvent {
	return []model.AttendanceEvent{
		{
			ID:             "ev-1",
			EmployeeID:     "E1",
			EmployeeName:   "Ana Pop",
			Type:           model.TypeSignIn,
			Timestamp:      time.Date(2026, time.March, 2, 9, 10, 0, 0, time.UTC),
			IsLate:         true,
			OrganizationID: "org-1",
			Notes:          `forgot badge, said "sorry"`,
		},
		{
			ID:             "ev-2",
			EmployeeID:     "E1",
			Type:           model.TypeSignOut,
			Timestamp:      time.Date(2026, time.March, 2, 17, 5, 0, 0, time.UTC),
			OrganizationID: "org-1",
		},
	}
}

func TestBuildDetailed_RowsAndStatus(t *testing.T) {
	report := BuildDetailed(sampleEvents(), nil, time.UTC)

	assert.Equal(t, DetailedColumns, report.Columns)
	require.Len(t, report.Rows, 2)

	signIn := report.Rows[0]
	assert.Equal(t, "E1", signIn[0])
	assert.Equal(t, "Ana Pop", signIn[1])
	assert.Equal(t, "2026-03-02", signIn[2])
	assert.Equal(t, "sign-in", signIn[3])
	assert.Equal(t, "Late", signIn[5])

	signOut := report.Rows[1]
	assert.Equal(t, "Unknown", signOut[1], "no roster and no denormalized name")
	assert.Equal(t, "", signOut[5], "sign-outs carry no status")
	assert.Equal(t, "", signOut[6], "absent values serialize empty, never null")
}

func TestBuildDetailed_RosterOverridesEventName(t *testing.T) {
	roster := ports.StaticRoster{"E1": {Name: "Ana Popescu"}}
	report := BuildDetailed(sampleEvents(), roster, time.UTC)

	assert.Equal(t, "Ana Popescu", report.Rows[0][1])
}

func TestBuildSummary_OrderedByEmployeeID(t *testing.T) {
	arrival := &model.ClockTime{Seconds: 9*3600 + 10*60}
	summaries := map[string]*model.StatSummary{
		"E2": {EmployeeID: "E2", EmployeeName: "Ion Ionescu", TotalSignIns: 2, OnTime: 2},
		"E1": {
			EmployeeID:       "E1",
			EmployeeName:     "Ana Pop",
			TotalSignIns:     1,
			Late:             1,
			TotalHoursWorked: 7.91666,
			AverageArrival:   arrival,
			AttendanceDates:  []string{"2026-03-02"},
		},
	}

	report := BuildSummary(summaries)

	assert.Equal(t, SummaryColumns, report.Columns)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "E1", report.Rows[0][0])
	assert.Equal(t, "E2", report.Rows[1][0])

	e1 := report.Rows[0]
	assert.Equal(t, "7.92", e1[5])
	assert.Equal(t, "09:10", e1[6])
	assert.Equal(t, model.ClockSentinel, e1[7], "no departures contributed")
	assert.Equal(t, "1", e1[8])
}

func TestSerializeCSV_EscapingRoundTrip(t *testing.T) {
	report := Report{
		Columns: []string{"Employee Name", "Notes"},
		Rows: [][]string{
			{"Ana Pop", `a,b"c`},
			{"Ion\nIonescu", ""},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, report, FormatCSV))

	// The file must be re-parseable with the values intact.
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Employee Name", "Notes"}, records[0])
	assert.Equal(t, `a,b"c`, records[1][1])
	assert.Equal(t, "Ion\nIonescu", records[2][0])
}

func TestSerializeExcel_CarriesSameValues(t *testing.T) {
	report := BuildDetailed(sampleEvents(), nil, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, report, FormatExcel))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, DetailedColumns, rows[0])
	assert.Equal(t, `forgot badge, said "sorry"`, rows[1][6])
}

func TestSerializePDF_ProducesDocument(t *testing.T) {
	report := BuildDetailed(sampleEvents(), nil, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, report, FormatPDF))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestSerialize_UnknownFormatWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	err := Serialize(&buf, Report{Columns: []string{"A"}}, Format("xml"))

	require.Error(t, err)
	assert.Zero(t, buf.Len(), "a failed serialization must leave no partial output")
}

func TestFilename_Convention(t *testing.T) {
	date := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		org    string
		report ReportType
		format Format
		want   string
	}{
		{"detailed csv carries no tags", "Acme", ReportDetailed, FormatCSV, "Acme_attendance_2026-03-10.csv"},
		{"summary tag included", "Acme", ReportSummary, FormatCSV, "Acme_attendance_summary_2026-03-10.csv"},
		{"excel tag and extension", "Acme", ReportDetailed, FormatExcel, "Acme_attendance_excel_2026-03-10.xlsx"},
		{"summary pdf", "Acme", ReportSummary, FormatPDF, "Acme_attendance_summary_pdf_2026-03-10.pdf"},
		{"spaces collapse to single underscores", "Acme  Industrial Co", ReportDetailed, FormatCSV, "Acme_Industrial_Co_attendance_2026-03-10.csv"},
		{"empty organization falls back", "  ", ReportDetailed, FormatCSV, "organization_attendance_2026-03-10.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filename(tt.org, tt.report, tt.format, date)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "__")
		})
	}
}
