package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// RawEvent is the wire shape of an attendance event before normalization.
// Batch and live sources both produce it; fields that arrive in more than
// one encoding use the flexible types below so decoding never fails on a
// sloppy payload.
type RawEvent struct {
	ID                 string          `json:"id"`
	EmployeeID         FlexibleID      `json:"employeeId"`
	EmployeeName       string          `json:"employeeName"`
	Type               string          `json:"type"`
	Timestamp          FlexibleTime    `json:"timestamp"`
	IsLate             bool            `json:"isLate"`
	Location           json.RawMessage `json:"location,omitempty"`
	OrganizationID     string          `json:"organizationId"`
	VerificationMethod string          `json:"verificationMethod"`
	Notes              string          `json:"notes"`
	IPAddress          string          `json:"ipAddress"`
}

// FlexibleID accepts a JSON string or number and keeps it as a string.
type FlexibleID struct {
	Value string
}

// NewFlexibleID wraps an already-resolved identifier, for sources that
// build RawEvents in process rather than decoding JSON.
func NewFlexibleID(v string) FlexibleID {
	return FlexibleID{Value: v}
}

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		f.Value = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.Value = s
		return nil
	}
	// Numeric employee IDs are normalized to their decimal string form.
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		f.Value = ""
		return nil
	}
	f.Value = n.String()
	return nil
}

func (f FlexibleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

// FlexibleTime accepts an RFC3339 string (with or without sub-second
// precision), epoch seconds, or epoch milliseconds. An absent or
// unparsable value decodes to the zero time; callers substitute the
// arrival instant and log the record as degraded.
type FlexibleTime struct {
	Time time.Time
}

// NewFlexibleTime wraps an already-parsed instant.
func NewFlexibleTime(t time.Time) FlexibleTime {
	return FlexibleTime{Time: t}
}

// Epoch values above this threshold are taken as milliseconds. Read as
// seconds the cutoff lands past year 5000, far beyond any plausible event.
const epochMillisCutoff = 1e11

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *FlexibleTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		f.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			f.Time = time.Time{}
			return nil
		}
		f.Time = parseTimestampString(s)
		return nil
	}
	var epoch float64
	if err := json.Unmarshal(data, &epoch); err != nil || epoch <= 0 {
		f.Time = time.Time{}
		return nil
	}
	if epoch >= epochMillisCutoff {
		f.Time = time.UnixMilli(int64(epoch)).UTC()
	} else {
		f.Time = time.Unix(int64(epoch), 0).UTC()
	}
	return nil
}

func (f FlexibleTime) MarshalJSON() ([]byte, error) {
	if f.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Time.Format(time.RFC3339Nano))
}

func parseTimestampString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	// Some sources stringify epoch values.
	if epoch, err := strconv.ParseFloat(s, 64); err == nil && epoch > 0 {
		if epoch >= epochMillisCutoff {
			return time.UnixMilli(int64(epoch)).UTC()
		}
		return time.Unix(int64(epoch), 0).UTC()
	}
	return time.Time{}
}
