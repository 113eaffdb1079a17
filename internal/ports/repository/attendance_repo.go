package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

// AttendanceRepository is a Postgres-backed batch record source for
// deployments where the service owns the attendance store. It returns raw
// events; sorting, deduplication, and normalization stay in the core.
type AttendanceRepository struct {
	DB *sql.DB
}

var _ ports.BatchRecordSource = (*AttendanceRepository)(nil)

// NewAttendanceRepository creates a new instance.
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

const eventColumns = `id, employee_id, employee_name, event_type, occurred_at,
	is_late, latitude, longitude, organization_id, verification_method, notes, ip_address`

// FetchRecent returns up to limit of the newest events for the organization.
func (r *AttendanceRepository) FetchRecent(ctx context.Context, orgID string, limit int) ([]model.RawEvent, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.organizationId", orgID))

	query := `SELECT ` + eventColumns + `
	          FROM attendance_events
	          WHERE organization_id = $1
	          ORDER BY occurred_at DESC
	          LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// FetchRange returns events whose timestamps fall inside [start, end].
func (r *AttendanceRepository) FetchRange(ctx context.Context, orgID string, start, end time.Time) ([]model.RawEvent, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.organizationId", orgID))

	query := `SELECT ` + eventColumns + `
	          FROM attendance_events
	          WHERE organization_id = $1 AND occurred_at BETWEEN $2 AND $3
	          ORDER BY occurred_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, orgID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]model.RawEvent, error) {
	var events []model.RawEvent
	for rows.Next() {
		var (
			ev           model.RawEvent
			employeeID   string
			employeeName sql.NullString
			occurredAt   time.Time
			lat, lng     sql.NullFloat64
			verification sql.NullString
			notes        sql.NullString
			ipAddress    sql.NullString
		)
		err := rows.Scan(&ev.ID, &employeeID, &employeeName, &ev.Type, &occurredAt,
			&ev.IsLate, &lat, &lng, &ev.OrganizationID, &verification, &notes, &ipAddress)
		if err != nil {
			return nil, err
		}
		ev.EmployeeID = model.NewFlexibleID(employeeID)
		ev.EmployeeName = employeeName.String
		ev.Timestamp = model.NewFlexibleTime(occurredAt)
		ev.VerificationMethod = verification.String
		ev.Notes = notes.String
		ev.IPAddress = ipAddress.String
		if lat.Valid && lng.Valid {
			loc, _ := json.Marshal(model.Location{Latitude: lat.Float64, Longitude: lng.Float64})
			ev.Location = loc
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
