package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatSummaryJSON_AveragesAsPrintableTimes(t *testing.T) {
	s := StatSummary{
		EmployeeID:     "E1",
		TotalSignIns:   1,
		AverageArrival: &ClockTime{Seconds: 61200},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "17:00", decoded["averageArrivalTime"])
	assert.NotContains(t, decoded, "averageDepartureTime", "absent averages are omitted")
}

func TestClockTimeString_RoundsToNearestMinute(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{9*3600 + 10*60, "09:10"},
		{9*3600 + 10*60 + 29, "09:10"},
		{9*3600 + 10*60 + 31, "09:11"},
		{0, "00:00"},
		{23*3600 + 59*60 + 45, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClockTime{Seconds: tt.seconds}.String())
	}
}
