package http

import (
	"context"
	"log/slog"
	"net/http"

	"uriage/internal/core"
	applog "uriage/internal/log"
)

// handleListProjects returns the filtered record set, newest first.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.ledger.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List projects failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	filtered := core.FilterProjects(projects, parseFilter(r))
	writeJSON(w, http.StatusOK, core.SortByDateDesc(filtered))
}

type createResponse struct {
	Created core.Project  `json:"created"`
	Sibling *core.Project `json:"sibling,omitempty"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p core.Project
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, sibling, err := s.ledger.Create(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.logs.LogRecordMutation(r.Context(), applog.OpCreate, created.ID, created.Name, created.Client, created.Date, int64(created.Sales))
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, createResponse{Created: created, Sibling: sibling})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var p core.Project
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ID = id

	updated, err := s.ledger.Update(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.logs.LogRecordMutation(r.Context(), applog.OpUpdate, updated.ID, updated.Name, updated.Client, updated.Date, int64(updated.Sales))
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

type toggleResponse struct {
	ID    int64 `json:"id"`
	Value bool  `json:"value"`
}

func (s *Server) handleToggleInvoiced(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, s.ledger.ToggleInvoiced)
}

func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, s.ledger.TogglePaid)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request, toggle func(ctx context.Context, id int64) (bool, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	value, err := toggle(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusOK, toggleResponse{ID: id, Value: value})
}
