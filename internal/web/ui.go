package web

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/metorial/script-admin/internal/controller"
	"github.com/metorial/script-admin/internal/views"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, views.NewPage(s.ctrl.Snapshot())); err != nil {
		s.log.Errorw("failed to render page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleSelectCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	if err := s.ctrl.SelectCategory(r.PostForm.Get("category")); err != nil {
		http.Error(w, "Unknown category", http.StatusBadRequest)
		return
	}

	redirectHome(w, r)
}

func (s *Server) handleOpenAdd(w http.ResponseWriter, r *http.Request) {
	s.ctrl.OpenAdd()
	redirectHome(w, r)
}

func (s *Server) handleOpenEdit(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.OpenEdit(mux.Vars(r)["id"]); err != nil {
		http.Error(w, "Script not found", http.StatusNotFound)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleCancelForm(w http.ResponseWriter, r *http.Request) {
	s.ctrl.CancelForm()
	redirectHome(w, r)
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ClearNotice()
	redirectHome(w, r)
}

// handleSaveForm always redirects back to the page: validation and backend
// failures are shown there as a notice with the form still open and the
// submitted values kept.
func (s *Server) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	form := views.FormFromValues(r.PostForm)
	if _, err := s.ctrl.Save(r.Context(), form.Script(nil)); err != nil {
		s.log.Infow("form save rejected", "error", err)
	}

	redirectHome(w, r)
}

func (s *Server) handleRunForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ctrl.StartRun(mux.Vars(r)["id"]); err != nil {
		http.Error(w, "Script not found", http.StatusNotFound)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	confirmed := r.PostForm.Get("confirm") == "yes"
	if _, err := s.ctrl.Delete(r.Context(), mux.Vars(r)["id"], confirmed); err != nil {
		if errors.Is(err, controller.ErrNotFound) {
			http.Error(w, "Script not found", http.StatusNotFound)
			return
		}
		s.log.Infow("form delete failed", "error", err)
	}

	redirectHome(w, r)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
