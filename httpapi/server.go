// Package httpapi exposes a read-only status/report surface over a
// planning run: current phase and telemetry, and the run-history log.
// Grounded in the teacher's server/server.go (Options/Server shape) and
// Hintro/china_gtfs's gorilla/mux routing and JSON-response conventions.
package httpapi

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"lidarpt/config"
	"lidarpt/ioformats"
)

// Status is the /api/status response body.
type Status struct {
	Phase        string            `json:"phase"`
	PhaseTimings map[string]string `json:"phaseTimings"`
	Telemetry    *config.Telemetry `json:"telemetry"`
}

// StatusFunc returns the current run's status snapshot, read fresh on every
// call so the server always reports live state.
type StatusFunc func() Status

// Server is the read-only status/report HTTP surface.
type Server struct {
	router  *mux.Router
	status  StatusFunc
	history *ioformats.HistoryStore
}

// New builds a Server wired to a status snapshot function and the run
// history store (may be nil if history is not enabled for this run).
func New(status StatusFunc, history *ioformats.HistoryStore) *Server {
	s := &Server{router: mux.NewRouter(), status: status, history: history}
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/runs", s.handleRuns).Methods(http.MethodGet)
	s.router.HandleFunc("/api/runs/{id}/report", s.handleRunReport).Methods(http.MethodGet)
	return s
}

// Handler returns the server's http.Handler, ready to pass to
// http.ListenAndServe or httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []ioformats.RunRecord{})
		return
	}
	runs, err := s.history.Recent(50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run history not enabled for this process"})
		return
	}
	run, ok, err := s.history.ByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown run id"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
