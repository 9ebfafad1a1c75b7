package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/castlemilk/budgetsync/internal/auth"
	"github.com/castlemilk/budgetsync/internal/backup"
	"github.com/castlemilk/budgetsync/internal/budget"
	"github.com/castlemilk/budgetsync/internal/session"
)

func (s *Server) respondState(w http.ResponseWriter, status int, state budget.State) {
	writeJSON(w, status, stateResponse{
		State:   state,
		Derived: state.Derive(),
		Loading: s.session.Loading(),
		Source:  string(s.session.Source()),
	})
}

// handleSignIn binds the session to the caller and waits for hydration.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	// Hydration must not be cut short by the client going away.
	ctx := context.WithoutCancel(r.Context())
	source, err := s.session.SetIdentity(ctx, caller)
	if errors.Is(err, session.ErrSuperseded) {
		writeError(w, http.StatusConflict, "superseded by a newer sign-in")
		return
	}
	if err != nil {
		s.logger.Error("sign in failed", "uid", caller.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "sign in failed")
		return
	}
	s.logger.Info("session started", "uid", caller.ID, "source", source)
	s.respondState(w, http.StatusOK, s.session.State())
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session.SetIdentity(r.Context(), nil); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, http.StatusOK, s.session.State())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State().Summarize())
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount any `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondState(w, http.StatusOK, s.session.SetIncome(req.Amount))
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req budget.ExpenseInput
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondState(w, http.StatusCreated, s.session.AddExpense(req))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, http.StatusOK, s.session.DeleteExpense(r.PathValue("id")))
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req budget.CategoryInput
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "category name is required")
		return
	}
	s.respondState(w, http.StatusCreated, s.session.AddCategory(req))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	state, err := s.session.RemoveCategory(r.PathValue("id"))
	switch {
	case errors.Is(err, budget.ErrUnknownCategory):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, budget.ErrLastCategory):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondState(w, http.StatusOK, state)
	}
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit any `json:"limit"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondState(w, http.StatusOK, s.session.SetBudgetLimit(r.PathValue("categoryId"), req.Limit))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req budget.SettingsPatch
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondState(w, http.StatusOK, s.session.UpdateSettings(req))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, http.StatusOK, s.session.ClearAllData())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", budget.ExportFileName(s.now())))
	writeJSON(w, http.StatusOK, s.session.Export())
}

// handleImport applies an uploaded export, or one of the caller's stored
// archives when the archive query parameter names one.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var (
		doc map[string]any
		err error
	)
	if name := r.URL.Query().Get("archive"); name != "" {
		if s.source == nil {
			writeError(w, http.StatusNotImplemented, "archives are not configured")
			return
		}
		owner, ownerErr := s.session.Owner()
		if ownerErr != nil {
			writeError(w, http.StatusForbidden, ownerErr.Error())
			return
		}
		doc, err = backup.Restore(r.Context(), s.source, owner.ID, name)
		if errors.Is(err, backup.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
	} else {
		doc, err = budget.ParseImport(r.Body)
	}
	if errors.Is(err, budget.ErrInvalidImport) || errors.Is(err, backup.ErrInvalidName) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	s.respondState(w, http.StatusOK, s.session.Import(doc))
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		writeError(w, http.StatusNotImplemented, "archives are not configured")
		return
	}
	owner, err := s.session.Owner()
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	now := s.now()
	name, err := backup.Archive(r.Context(), s.sink, owner.ID, budget.Export(s.session.State(), now), now)
	if err != nil {
		s.logger.Error("archive failed", "uid", owner.ID, "error", err)
		writeError(w, http.StatusBadGateway, "archive failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}
