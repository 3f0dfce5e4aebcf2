// Package api exposes the artifacts of the latest pipeline run to
// presentation collaborators as JSON. Read-only; rendering and report
// formatting happen entirely on the consumer's side.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"schoolscope/internal"
	"schoolscope/internal/pipeline"
)

// Server serves one pipeline result over HTTP
type Server struct {
	result *pipeline.Result
	log    *internal.Logger
}

// NewServer creates a server for the given result
func NewServer(result *pipeline.Result, log *internal.Logger) *Server {
	return &Server{result: result, log: log.Stage("api")}
}

// Router builds the route tree
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/run", s.handleRun)
	r.Get("/api/profile", s.handleProfile)
	r.Get("/api/outliers", s.handleOutliers)
	r.Get("/api/clusterings", s.handleClusterings)
	r.Get("/api/clusterings/{name}", s.handleClustering)
	r.Get("/api/transitions/{name}", s.handleTransitions)
	return r
}

// ListenAndServe blocks serving the artifact API on the given port
func (s *Server) ListenAndServe(port string) error {
	s.log.Info("serving artifacts for run %s on :%s", s.result.RunID, port)
	return http.ListenAndServe(":"+port, s.Router())
}

func (s *Server) handleRun(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]interface{}{
		"run_id":     s.result.RunID,
		"started_at": s.result.StartedAt.Time(),
		"rows":       s.result.Cleaned.Rows(),
		"imputation": s.result.Imputation,
		"repair":     s.result.Repair,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.result.Profile)
}

func (s *Server) handleOutliers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.result.Outliers)
}

func (s *Server) handleClusterings(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(s.result.Clusterings))
	for _, run := range s.result.Clusterings {
		names = append(names, run.Name)
	}
	writeJSON(w, names)
}

func (s *Server) handleClustering(w http.ResponseWriter, r *http.Request) {
	run := s.result.Clustering(chi.URLParam(r, "name"))
	if run == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, run)
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, report := range s.result.Transitions {
		if report.RunName == name {
			writeJSON(w, report)
			return
		}
	}
	http.NotFound(w, r)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
