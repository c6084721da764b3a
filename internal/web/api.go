package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/metorial/script-admin/internal/controller"
	"github.com/metorial/script-admin/internal/models"
	"github.com/metorial/script-admin/internal/views"
)

type scriptRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Command     string `json:"command"`
	Category    string `json:"category"`
}

func (req scriptRequest) script(id string) models.Script {
	return models.Script{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Command:     req.Command,
		Category:    req.Category,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "none"
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			http.Error(w, "Database unhealthy: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		database = "connected"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"database": database,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.Snapshot()

	resp := map[string]interface{}{
		"scripts":    len(st.Scripts),
		"categories": len(st.Categories),
		"running":    st.Running,
	}

	if s.stats != nil {
		host, err := s.stats.Collect(r.Context())
		if err != nil {
			s.log.Errorw("failed to collect host stats", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		resp["host"] = host
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories := s.ctrl.Categories()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	scripts := views.FilterScripts(s.ctrl.Scripts(), r.URL.Query().Get("category"))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scripts": scripts,
		"count":   len(scripts),
	})
}

func (s *Server) handleCreateScript(w http.ResponseWriter, r *http.Request) {
	var req scriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := s.ctrl.Save(r.Context(), req.script(""))
	if err != nil {
		s.respondSaveError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	script, ok := s.ctrl.Script(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Script not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, script)
}

func (s *Server) handleUpdateScript(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.ctrl.Script(id); !ok {
		http.Error(w, "Script not found", http.StatusNotFound)
		return
	}

	var req scriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	saved, err := s.ctrl.Save(r.Context(), req.script(id))
	if err != nil {
		s.respondSaveError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) respondSaveError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusBadRequest {
		http.Error(w, err.Error(), status)
		return
	}
	http.Error(w, "Failed to save script", status)
}

func (s *Server) handleDeleteScript(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ctrl.Delete(r.Context(), mux.Vars(r)["id"], true); err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			http.Error(w, "Script not found", status)
			return
		}
		http.Error(w, "Failed to delete script", status)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Script deleted successfully",
	})
}

// handleRunScript starts a run and returns the running placeholder, or with
// ?wait=true blocks until the run finishes and returns its output.
func (s *Server) handleRunScript(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx := r.Context()
		if s.runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
			defer cancel()
		}

		out, err := s.ctrl.Run(ctx, id)
		if err != nil {
			http.Error(w, "Script not found", statusFor(err))
			return
		}
		respondJSON(w, http.StatusOK, controller.OutputEvent{ScriptID: id, Output: out})
		return
	}

	out, err := s.ctrl.StartRun(id)
	if err != nil {
		http.Error(w, "Script not found", statusFor(err))
		return
	}
	respondJSON(w, http.StatusAccepted, controller.OutputEvent{ScriptID: id, Output: out})
}

func (s *Server) handleGetOutput(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.ctrl.Script(id); !ok {
		http.Error(w, "Script not found", http.StatusNotFound)
		return
	}

	out, ok := s.ctrl.Output(id)
	if !ok {
		http.Error(w, "No output for script", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, controller.OutputEvent{ScriptID: id, Output: out})
}

func (s *Server) handleGetExecutions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "Execution history not enabled", http.StatusNotImplemented)
		return
	}

	id := mux.Vars(r)["id"]
	if _, ok := s.ctrl.Script(id); !ok {
		http.Error(w, "Script not found", http.StatusNotFound)
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	executions, err := s.history.GetExecutions(r.Context(), id, limit)
	if err != nil {
		s.log.Errorw("failed to get executions", "script_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"executions": executions,
		"count":      len(executions),
	})
}
