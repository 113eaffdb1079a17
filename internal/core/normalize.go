package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"attendance.service/internal/core/model"
)

// Normalize converts a heterogeneous raw payload into the canonical event
// shape. It returns nil only when a mandatory field (employee ID or event
// type) is missing; every other defect is repaired in place: a missing
// timestamp becomes the arrival instant (logged as degraded data), an
// unparsable location becomes nil. It never panics and never errors.
func Normalize(raw model.RawEvent, now time.Time) *model.AttendanceEvent {
	employeeID := strings.TrimSpace(raw.EmployeeID.Value)
	if employeeID == "" {
		return nil
	}

	eventType, ok := normalizeType(raw.Type)
	if !ok {
		return nil
	}

	ts := raw.Timestamp.Time
	if ts.IsZero() {
		ts = now
		log.Warn().
			Str("employee_id", employeeID).
			Str("event_id", raw.ID).
			Msg("Event arrived without a timestamp, substituting arrival instant")
	}

	id := raw.ID
	if id == "" {
		// Deterministic fallback so redelivery of the same ID-less
		// payload still deduplicates.
		id = fmt.Sprintf("%s-%d-%s", employeeID, ts.UnixMilli(), eventType)
	}

	return &model.AttendanceEvent{
		ID:                 id,
		EmployeeID:         employeeID,
		EmployeeName:       strings.TrimSpace(raw.EmployeeName),
		Type:               eventType,
		Timestamp:          ts,
		IsLate:             raw.IsLate && eventType == model.TypeSignIn,
		Location:           parseLocation(raw.Location),
		OrganizationID:     raw.OrganizationID,
		VerificationMethod: raw.VerificationMethod,
		Notes:              raw.Notes,
		IPAddress:          raw.IPAddress,
	}
}

func normalizeType(raw string) (model.EventType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sign-in", "signin", "sign_in", "in":
		return model.TypeSignIn, true
	case "sign-out", "signout", "sign_out", "out":
		return model.TypeSignOut, true
	default:
		return "", false
	}
}

// rawCoordinates tolerates both long and short coordinate key spellings.
// Pointers distinguish a missing field from a zero coordinate.
type rawCoordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

// parseLocation accepts a structured pair, a JSON-encoded string holding a
// structured pair, or nothing. Unparsable input yields nil, never an error.
func parseLocation(raw json.RawMessage) *model.Location {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if trimmed[0] == '"' {
		// Location arrived as a JSON string holding encoded coordinates.
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil
		}
		return parseLocation(json.RawMessage(inner))
	}

	var coords rawCoordinates
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil
	}

	lat, lng := coords.Latitude, coords.Longitude
	if lat == nil {
		lat = coords.Lat
	}
	if lng == nil {
		lng = coords.Lng
	}
	// Both coordinates must be present and numeric or the field is dropped.
	if lat == nil || lng == nil {
		return nil
	}
	return &model.Location{Latitude: *lat, Longitude: *lng}
}
