package http

import (
	"net/http"

	applog "uriage/internal/log"
)

type syncResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count,omitempty"`
}

// handleSyncUpload mirrors the local record set to the cloud store.
func (s *Server) handleSyncUpload(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		writeError(w, http.StatusServiceUnavailable, "cloud sync is not configured")
		return
	}

	if err := s.reconciler.Upload(r.Context()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Upload sync failed", applog.FieldError, err.Error())
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Status: "uploaded"})
}

// handleSyncDownload replaces the local record set with the cloud one.
func (s *Server) handleSyncDownload(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		writeError(w, http.StatusServiceUnavailable, "cloud sync is not configured")
		return
	}

	count, err := s.reconciler.Download(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Download sync failed", applog.FieldError, err.Error())
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusOK, syncResponse{Status: "downloaded", Count: count})
}
