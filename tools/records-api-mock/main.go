// records-api-mock stands in for the upstream attendance records API in
// local development. It serves canned events on the paged endpoint and,
// unless MOCK_FAIL_RANGED is set, on the ranged endpoint too; failing the
// ranged endpoint exercises the dashboard's client-side filtering fallback.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type mockEvent struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employeeId"`
	EmployeeName   string `json:"employeeName"`
	Type           string `json:"type"`
	Timestamp      string `json:"timestamp"`
	IsLate         bool   `json:"isLate"`
	OrganizationID string `json:"organizationId"`
}

var employees = []struct{ id, name string }{
	{"E1", "Ana Pop"},
	{"E2", "Mihai Ionescu"},
	{"E3", "Elena Radu"},
	{"E4", "Dan Marin"},
}

// seedEvents fabricates sign-in/sign-out pairs for the past days.
func seedEvents(orgID string, days int) []mockEvent {
	var events []mockEvent
	now := time.Now()
	for d := 0; d < days; d++ {
		day := now.AddDate(0, 0, -d)
		for _, emp := range employees {
			late := rand.Intn(4) == 0
			inHour := 9
			if late {
				inHour = 10
			}
			in := time.Date(day.Year(), day.Month(), day.Day(), inHour, rand.Intn(30), 0, 0, time.Local)
			out := in.Add(8 * time.Hour)
			events = append(events,
				mockEvent{
					ID:             fmt.Sprintf("%s-%s-in", emp.id, in.Format("20060102")),
					EmployeeID:     emp.id,
					EmployeeName:   emp.name,
					Type:           "sign-in",
					Timestamp:      in.Format(time.RFC3339),
					IsLate:         late,
					OrganizationID: orgID,
				},
				mockEvent{
					ID:             fmt.Sprintf("%s-%s-out", emp.id, in.Format("20060102")),
					EmployeeID:     emp.id,
					EmployeeName:   emp.name,
					Type:           "sign-out",
					Timestamp:      out.Format(time.RFC3339),
					OrganizationID: orgID,
				},
			)
		}
	}
	return events
}

func main() {
	failRanged := os.Getenv("MOCK_FAIL_RANGED") != ""

	http.HandleFunc("/api/v1/organizations/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 4 {
			http.NotFound(w, r)
			return
		}
		orgID := parts[2]
		ranged := len(parts) == 5 && parts[4] == "range"

		if ranged && failRanged {
			http.Error(w, "ranged queries unavailable", http.StatusServiceUnavailable)
			return
		}

		events := seedEvents(orgID, 30)
		if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit < len(events) {
			events = events[:limit]
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(events)
	})

	log.Println("Records API mock starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
