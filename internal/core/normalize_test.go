package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance.service/internal/core/model"
)

func decodeRaw(t *testing.T, payload string) model.RawEvent {
	t.Helper()
	var raw model.RawEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

func TestNormalize_CanonicalBatchRecord(t *testing.T) {
	raw := decodeRaw(t, `{
		"id": "ev-1",
		"employeeId": "E1",
		"employeeName": "Ana Pop",
		"type": "sign-in",
		"timestamp": "2026-03-02T09:10:00Z",
		"isLate": true,
		"location": {"latitude": 44.43, "longitude": 26.1},
		"organizationId": "org-1",
		"verificationMethod": "fingerprint",
		"notes": "front gate",
		"ipAddress": "10.0.0.7"
	}`)

	ev := Normalize(raw, time.Now())
	require.NotNil(t, ev)
	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, "E1", ev.EmployeeID)
	assert.Equal(t, model.TypeSignIn, ev.Type)
	assert.True(t, ev.IsLate)
	assert.Equal(t, "org-1", ev.OrganizationID)
	require.NotNil(t, ev.Location)
	assert.InDelta(t, 44.43, ev.Location.Latitude, 1e-9)
	assert.InDelta(t, 26.1, ev.Location.Longitude, 1e-9)
	assert.Equal(t, "fingerprint", ev.VerificationMethod)
}

func TestNormalize_NumericEmployeeID(t *testing.T) {
	raw := decodeRaw(t, `{"id":"ev-2","employeeId":42,"type":"sign-out","timestamp":"2026-03-02T17:00:00Z","organizationId":"org-1"}`)

	ev := Normalize(raw, time.Now())
	require.NotNil(t, ev)
	assert.Equal(t, "42", ev.EmployeeID)
	assert.Equal(t, model.TypeSignOut, ev.Type)
}

func TestNormalize_MissingMandatoryFields(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no employee id", `{"id":"x","type":"sign-in","timestamp":"2026-03-02T09:00:00Z"}`},
		{"no type", `{"id":"x","employeeId":"E1","timestamp":"2026-03-02T09:00:00Z"}`},
		{"unknown type", `{"id":"x","employeeId":"E1","type":"lunch"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Normalize(decodeRaw(t, tt.payload), time.Now()))
		})
	}
}

func TestNormalize_MissingTimestampSubstitutesArrival(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	raw := decodeRaw(t, `{"id":"ev-3","employeeId":"E1","type":"sign-in","organizationId":"org-1"}`)

	ev := Normalize(raw, now)
	require.NotNil(t, ev)
	assert.True(t, ev.Timestamp.Equal(now))
}

func TestNormalize_EpochTimestamps(t *testing.T) {
	secs := decodeRaw(t, `{"id":"a","employeeId":"E1","type":"sign-in","timestamp":1767348600}`)
	millis := decodeRaw(t, `{"id":"b","employeeId":"E1","type":"sign-in","timestamp":1767348600000}`)

	evSecs := Normalize(secs, time.Now())
	evMillis := Normalize(millis, time.Now())
	require.NotNil(t, evSecs)
	require.NotNil(t, evMillis)
	assert.True(t, evSecs.Timestamp.Equal(evMillis.Timestamp))
}

func TestNormalize_LocationVariants(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     *model.Location
	}{
		{"structured pair", `{"latitude": 1.5, "longitude": 2.5}`, &model.Location{Latitude: 1.5, Longitude: 2.5}},
		{"short keys", `{"lat": 1.5, "lng": 2.5}`, &model.Location{Latitude: 1.5, Longitude: 2.5}},
		{"json-encoded string", `"{\"latitude\": 3.0, \"longitude\": 4.0}"`, &model.Location{Latitude: 3, Longitude: 4}},
		{"unparsable string", `"somewhere downtown"`, nil},
		{"missing longitude", `{"latitude": 1.5}`, nil},
		{"non-numeric coordinates", `{"latitude": "a", "longitude": "b"}`, nil},
		{"absent", ``, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `{"id":"ev","employeeId":"E1","type":"sign-in","timestamp":"2026-03-02T09:00:00Z"`
			if tt.location != "" {
				payload += `,"location":` + tt.location
			}
			payload += `}`

			ev := Normalize(decodeRaw(t, payload), time.Now())
			require.NotNil(t, ev, "a bad location must never reject the record")
			assert.Equal(t, tt.want, ev.Location)
		})
	}
}

func TestNormalize_MissingIDGetsDeterministicFallback(t *testing.T) {
	payload := `{"employeeId":"E1","type":"sign-in","timestamp":"2026-03-02T09:00:00Z","organizationId":"org-1"}`

	first := Normalize(decodeRaw(t, payload), time.Now())
	second := Normalize(decodeRaw(t, payload), time.Now())
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, second.ID, "redelivery of the same payload must dedupe")
}

func TestNormalize_LateFlagOnlyMeaningfulOnSignIn(t *testing.T) {
	raw := decodeRaw(t, `{"id":"x","employeeId":"E1","type":"sign-out","timestamp":"2026-03-02T17:00:00Z","isLate":true}`)

	ev := Normalize(raw, time.Now())
	require.NotNil(t, ev)
	assert.False(t, ev.IsLate)
}
