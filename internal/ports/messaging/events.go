package messaging

import "time"

// ExportRequested is the JSON payload sent via SQS when a user asks for a
// report to be generated and mailed. JobID makes redelivery idempotent.
type ExportRequested struct {
	JobID            string    `json:"jobId"`
	OrganizationID   string    `json:"organizationId"`
	OrganizationName string    `json:"organizationName"`
	Recipient        string    `json:"recipient"`
	ReportType       string    `json:"reportType"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	RequestedAt      time.Time `json:"requestedAt"`
}
