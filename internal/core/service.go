package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attendance.service/internal/core/model"
	"attendance.service/internal/export"
	"attendance.service/internal/ports"
	"attendance.service/internal/ports/messaging"
)

// AttendanceService is the main application service behind the dashboard
// API: windowed record queries, per-employee statistics, exports, and
// queued report mailing. It is stateless; per-view state lives in Session.
type AttendanceService struct {
	queries  *QueryController
	stats    *StatsEngine
	roster   ports.RosterLookup
	producer messaging.ExportProducer
	loc      *time.Location
	clock    func() time.Time
}

// NewAttendanceService wires the service. producer may be nil when the
// deployment has no export queue; RequestEmailReport then errors.
func NewAttendanceService(queries *QueryController, stats *StatsEngine, roster ports.RosterLookup, producer messaging.ExportProducer, loc *time.Location) *AttendanceService {
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceService{
		queries:  queries,
		stats:    stats,
		roster:   roster,
		producer: producer,
		loc:      loc,
		clock:    time.Now,
	}
}

// Window retrieves one page or date range of events for the organization.
func (s *AttendanceService) Window(ctx context.Context, orgID string, opts WindowOptions) ([]model.AttendanceEvent, bool, error) {
	return s.queries.FetchWindow(ctx, orgID, opts)
}

// QuickRange retrieves the "last N days" preset window.
func (s *AttendanceService) QuickRange(ctx context.Context, orgID string, days int) ([]model.AttendanceEvent, error) {
	return s.queries.QuickRange(ctx, orgID, days)
}

// Stats fetches the window and derives per-employee summaries from it.
func (s *AttendanceService) Stats(ctx context.Context, orgID string, opts WindowOptions) (map[string]*model.StatSummary, error) {
	events, _, err := s.queries.FetchWindow(ctx, orgID, opts)
	if err != nil {
		return nil, err
	}
	return s.stats.ComputeStats(events), nil
}

// Export fetches the window, assembles the requested report, and renders
// it in the requested format. The returned bytes are complete or absent:
// a serialization failure yields no partial file.
func (s *AttendanceService) Export(ctx context.Context, orgID, orgName string, reportType export.ReportType, format export.Format, opts WindowOptions) (string, []byte, error) {
	events, _, err := s.queries.FetchWindow(ctx, orgID, opts)
	if err != nil {
		return "", nil, err
	}

	var report export.Report
	switch reportType {
	case export.ReportSummary:
		report = export.BuildSummary(s.stats.ComputeStats(events))
	case export.ReportDetailed, "":
		reportType = export.ReportDetailed
		report = export.BuildDetailed(events, s.roster, s.loc)
	default:
		return "", nil, fmt.Errorf("unknown report type %q", reportType)
	}

	var buf bytes.Buffer
	if err := export.Serialize(&buf, report, format); err != nil {
		return "", nil, err
	}

	filename := export.Filename(orgName, reportType, format, s.clock().In(s.loc))
	return filename, buf.Bytes(), nil
}

// RequestEmailReport queues an export job for the report worker. The job
// carries a fresh UUID so queue redelivery stays idempotent downstream.
func (s *AttendanceService) RequestEmailReport(ctx context.Context, orgID, orgName, recipient string, reportType export.ReportType, opts WindowOptions) (string, error) {
	if s.producer == nil {
		return "", errors.New("export queue not configured")
	}
	if recipient == "" {
		return "", errors.New("recipient is required")
	}

	job := messaging.ExportRequested{
		JobID:            uuid.NewString(),
		OrganizationID:   orgID,
		OrganizationName: orgName,
		Recipient:        recipient,
		ReportType:       string(reportType),
		StartDate:        opts.StartDate,
		EndDate:          opts.EndDate,
		RequestedAt:      s.clock(),
	}
	if err := s.producer.PublishExport(ctx, job); err != nil {
		return "", fmt.Errorf("failed to queue export job: %w", err)
	}
	return job.JobID, nil
}
