package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"attendance.service/internal/core"
	"attendance.service/internal/export"
)

// AttendanceHandler exposes the dashboard operations over HTTP. Windowed
// queries and exports go straight to the stateless service; the live
// endpoints read from per-organization sessions.
type AttendanceHandler struct {
	Service  *core.AttendanceService
	Sessions *core.SessionManager
}

type recordsResponse struct {
	Records interface{} `json:"records"`
	HasMore bool        `json:"hasMore"`
}

// Records serves one page or date range of attendance events.
func (h *AttendanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	orgID := mux.Vars(r)["orgId"]
	if orgID == "" {
		http.Error(w, "Organization is required", http.StatusBadRequest)
		return
	}

	if preset := r.URL.Query().Get("preset"); preset != "" {
		days, err := strconv.Atoi(preset)
		if err != nil || days <= 0 {
			http.Error(w, "Invalid preset", http.StatusBadRequest)
			return
		}
		events, err := h.Service.QuickRange(r.Context(), orgID, days)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		writeJSON(w, recordsResponse{Records: events, HasMore: false})
		return
	}

	opts, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	events, hasMore, err := h.Service.Window(r.Context(), orgID, opts)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, recordsResponse{Records: events, HasMore: hasMore})
}

// Stats serves the per-employee summaries for the requested window.
func (h *AttendanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID := mux.Vars(r)["orgId"]
	opts, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summaries, err := h.Service.Stats(r.Context(), orgID, opts)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, summaries)
}

// Export streams a rendered report file.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	orgID := mux.Vars(r)["orgId"]
	opts, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}
	reportType := export.ReportType(r.URL.Query().Get("report"))
	orgName := r.URL.Query().Get("orgName")
	if orgName == "" {
		orgName = orgID
	}

	filename, data, err := h.Service.Export(r.Context(), orgID, orgName, reportType, format, opts)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(data)
}

type emailExportRequest struct {
	Recipient string `json:"recipient"`
	Report    string `json:"report"`
	OrgName   string `json:"organizationName"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// EmailExport queues a report for asynchronous delivery.
func (h *AttendanceHandler) EmailExport(w http.ResponseWriter, r *http.Request) {
	orgID := mux.Vars(r)["orgId"]

	var req emailExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Recipient == "" {
		http.Error(w, "Recipient is required", http.StatusBadRequest)
		return
	}

	opts := core.WindowOptions{}
	if req.StartDate != "" && req.EndDate != "" {
		start, err1 := time.Parse("2006-01-02", req.StartDate)
		end, err2 := time.Parse("2006-01-02", req.EndDate)
		if err1 != nil || err2 != nil {
			http.Error(w, "Invalid date range", http.StatusBadRequest)
			return
		}
		opts.StartDate, opts.EndDate = start, end
	}

	orgName := req.OrgName
	if orgName == "" {
		orgName = orgID
	}
	jobID, err := h.Service.RequestEmailReport(r.Context(), orgID, orgName, req.Recipient, export.ReportType(req.Report), opts)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"jobId": jobID, "message": "Report queued for delivery."})
}

type liveResponse struct {
	Records interface{} `json:"records"`
	Notice  interface{} `json:"notice,omitempty"`
}

// Live serves the session working set plus the current activity notice.
func (h *AttendanceHandler) Live(w http.ResponseWriter, r *http.Request) {
	session, err := h.Sessions.Get(mux.Vars(r)["orgId"])
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	// First hit on a fresh session primes the working set.
	if len(session.Events()) == 0 {
		if err := session.Refresh(r.Context(), core.WindowOptions{}); err != nil {
			h.serviceError(w, r, err)
			return
		}
	}

	resp := liveResponse{Records: session.Events()}
	if n := session.Notice(); n != nil {
		resp.Notice = n
	}
	writeJSON(w, resp)
}

// DismissNotice clears the session's activity notice.
func (h *AttendanceHandler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	session, err := h.Sessions.Get(mux.Vars(r)["orgId"])
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	session.DismissNotice()
	w.WriteHeader(http.StatusNoContent)
}

// serviceError maps failures to a retryable 502 and keeps the details in
// the logs rather than the response.
func (h *AttendanceHandler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrSessionClosed) {
		http.Error(w, "Service is shutting down", http.StatusServiceUnavailable)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	http.Error(w, "Upstream data source unavailable, please retry", http.StatusBadGateway)
}

func parseWindow(r *http.Request) (core.WindowOptions, error) {
	q := r.URL.Query()
	opts := core.WindowOptions{}

	if p := q.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			return opts, errors.New("invalid page")
		}
		opts.Page = page
	}

	start, end := q.Get("start"), q.Get("end")
	if (start == "") != (end == "") {
		return opts, errors.New("start and end must be provided together")
	}
	if start != "" {
		s, err := time.Parse("2006-01-02", start)
		if err != nil {
			return opts, errors.New("invalid start date")
		}
		e, err := time.Parse("2006-01-02", end)
		if err != nil {
			return opts, errors.New("invalid end date")
		}
		opts.StartDate, opts.EndDate = s, e
	}
	return opts, nil
}

func contentType(format export.Format) string {
	switch format {
	case export.FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case export.FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
