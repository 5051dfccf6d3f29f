package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/musher-dev/clawdash/internal/gateway"
	"github.com/musher-dev/clawdash/internal/model"
)

const maxPatchBytes = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "ok",
		Timestamp: s.opts.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.backend.ListSessions(r.Context())
	writeJSON(w, http.StatusOK, model.SessionsResponse{
		Sessions: nonNil(sessions),
		Degraded: degraded(err),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.backend.ListJobs(r.Context())
	writeJSON(w, http.StatusOK, model.JobsResponse{
		Jobs:     nonNil(jobs),
		Degraded: degraded(err),
	})
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")
	if err := gateway.ValidateJobID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch model.JobPatch

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPatchBytes))
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON patch: "+err.Error())
		return
	}

	if patch == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON patch: expected an object")
		return
	}

	writeJSON(w, http.StatusOK, model.MutationResponse{
		Success: s.backend.UpdateJob(r.Context(), id, patch),
	})
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")
	if err := gateway.ValidateJobID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.MutationResponse{
		Success: s.backend.RunJob(r.Context(), id),
	})
}

func (s *Server) handleAgentsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.backend.AgentsOverview(r.Context())
	if overview.Agents == nil || overview.Bindings == nil {
		overview.DeriveBindings()
	}

	writeJSON(w, http.StatusOK, model.AgentsResponse{
		AgentsOverview: overview,
		Degraded:       degraded(err),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, model.SystemStatus{
		Gateway: s.backend.Status(r.Context()),
		Memory: &model.MemoryStats{
			RSS:       mem.Sys,
			HeapUsed:  mem.HeapAlloc,
			HeapTotal: mem.HeapSys,
		},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path)
}

// degraded names the failure kind behind an empty result.
func degraded(err error) string {
	if err == nil {
		return ""
	}

	if kind := gateway.KindOf(err); kind != "" {
		return string(kind)
	}

	return "unknown"
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}
