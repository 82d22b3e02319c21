package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"uriage/internal/services"
)

const maxImportBytes = 10 << 20

// handleBackup streams the full record set as a JSON array, exactly as
// stored, for save-as download.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	projects, err := s.ledger.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Backup load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	filename := "uriage-backup-" + time.Now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	writeJSON(w, http.StatusOK, projects)
}

type restoreResponse struct {
	Mode  string `json:"mode"`
	Count int    `json:"count"`
}

// handleRestore imports a backup payload. mode=merge (default) adds new ids
// only; mode=replace swaps the full set.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		writeError(w, http.StatusServiceUnavailable, "restore is not configured")
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "merge"
	}
	if mode != "merge" && mode != "replace" {
		writeError(w, http.StatusBadRequest, "mode must be merge or replace")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	candidates, err := services.ParseImport(body)
	if err != nil {
		if errors.Is(err, services.ErrNotAnArray) || errors.Is(err, services.ErrEmptyImport) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var count int
	switch mode {
	case "merge":
		count, err = s.reconciler.MergeAdditive(r.Context(), candidates)
	case "replace":
		count = len(candidates)
		err = s.reconciler.Replace(r.Context(), candidates)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Restore failed", "mode", mode, "error", err)
		writeError(w, http.StatusInternalServerError, "restore failed")
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusOK, restoreResponse{Mode: mode, Count: count})
}
