package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/core"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service *core.AttendanceService, sessions *core.SessionManager) *mux.Router {

	attendanceHandler := handler.AttendanceHandler{
		Service:  service,
		Sessions: sessions,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	org := api.PathPrefix("/organizations/{orgId}").Subrouter()
	org.HandleFunc("/records", attendanceHandler.Records).Methods(http.MethodGet)
	org.HandleFunc("/stats", attendanceHandler.Stats).Methods(http.MethodGet)
	org.HandleFunc("/export", attendanceHandler.Export).Methods(http.MethodGet)
	org.HandleFunc("/export/email", attendanceHandler.EmailExport).Methods(http.MethodPost)
	org.HandleFunc("/live", attendanceHandler.Live).Methods(http.MethodGet)
	org.HandleFunc("/live/notice", attendanceHandler.DismissNotice).Methods(http.MethodDelete)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
