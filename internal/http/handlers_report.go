package http

import (
	"log/slog"
	"net/http"

	"uriage/internal/core"
	applog "uriage/internal/log"
)

// handleReport returns the summary over the filtered record set. Summaries
// are cached per filter and dropped on any mutation.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	key := filterCacheKey(filter)

	if summary, ok := s.reportCache.Get(key); ok {
		w.Header().Set("X-Cache", "hit")
		writeJSON(w, http.StatusOK, summary)
		return
	}

	projects, err := s.ledger.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Report load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	summary := core.Summarize(core.FilterProjects(projects, filter), s.goal)
	s.reportCache.Set(key, summary)

	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusOK, summary)
}

type exportResponse struct {
	Exported int `json:"exported"`
}

// handleReportExport writes the filtered report to the configured sheet.
func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	if s.reporter == nil {
		writeError(w, http.StatusServiceUnavailable, "report export is not configured")
		return
	}

	projects, err := s.ledger.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	filtered := core.SortByDateDesc(core.FilterProjects(projects, parseFilter(r)))
	summary := core.Summarize(filtered, s.goal)

	if err := s.reporter.WriteReport(r.Context(), filtered, summary); err != nil {
		s.logs.LogError(r.Context(), "Report export failed", err, applog.OpExport,
			applog.NewFields().WithCount(len(filtered)))
		writeError(w, http.StatusBadGateway, "report export failed")
		return
	}

	slog.InfoContext(r.Context(), "Report exported", "rows", len(filtered))
	writeJSON(w, http.StatusOK, exportResponse{Exported: len(filtered)})
}
