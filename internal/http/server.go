// Package http exposes the JSON API over the ledger, reports, backups,
// cloud sync and the freee wrapper.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"uriage/internal/cache"
	"uriage/internal/core"
	"uriage/internal/freee"
	applog "uriage/internal/log"
	"uriage/internal/services"
	"uriage/internal/sheets"
	"uriage/internal/store"
)

// FreeeGateway is the slice of the freee client the handlers call. Nil when
// freee is not configured.
type FreeeGateway interface {
	ListQuotations(ctx context.Context) ([]freee.Quotation, error)
	ConvertQuotations(ctx context.Context, ids []int64, mode freee.InvoiceDateMode, pdfDir string) []freee.ConversionResult
}

type Server struct {
	http.Server

	store      store.Store
	ledger     *services.LedgerService
	reconciler *services.Reconciler
	freee      FreeeGateway
	reporter   sheets.ReportWriter

	goal    core.Yen
	pdfDir  string
	limiter *rateLimiter
	logs    *applog.StructuredLogger

	// Report summaries keyed by filter params, dropped wholesale on any
	// record mutation.
	reportCache *cache.LRUCache[core.Summary]
	cacheMgr    *cache.Manager

	shutdownOnce sync.Once
}

// Options carries the optional integrations; zero values disable them.
type Options struct {
	Reconciler *services.Reconciler
	Freee      FreeeGateway
	Reporter   sheets.ReportWriter
	Goal       core.Yen
	PDFDir     string
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, st store.Store, ledger *services.LedgerService, opts Options) *Server {
	mux := http.NewServeMux()

	goal := opts.Goal
	if goal <= 0 {
		goal = core.DefaultGoal
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		store:       st,
		ledger:      ledger,
		reconciler:  opts.Reconciler,
		freee:       opts.Freee,
		reporter:    opts.Reporter,
		goal:        goal,
		pdfDir:      opts.PDFDir,
		limiter:     newRateLimiter(),
		logs:        applog.NewStructuredLogger(applog.Default(applog.ComponentHTTP)),
		reportCache: cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		cacheMgr:    cache.NewManager(),
	}

	s.cacheMgr.Register(s.reportCache)
	s.cacheMgr.StartCleanup(time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/projects", s.wrap(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", s.wrap(s.handleCreateProject))
	mux.HandleFunc("PUT /api/projects/{id}", s.wrap(s.handleUpdateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.wrap(s.handleDeleteProject))
	mux.HandleFunc("POST /api/projects/{id}/invoiced", s.wrap(s.handleToggleInvoiced))
	mux.HandleFunc("POST /api/projects/{id}/paid", s.wrap(s.handleTogglePaid))

	mux.HandleFunc("GET /api/report", s.wrap(s.handleReport))
	mux.HandleFunc("POST /api/report/export", s.wrap(s.handleReportExport))

	mux.HandleFunc("GET /api/backup", s.wrap(s.handleBackup))
	mux.HandleFunc("POST /api/restore", s.wrap(s.handleRestore))
	mux.HandleFunc("POST /api/sync/upload", s.wrap(s.handleSyncUpload))
	mux.HandleFunc("POST /api/sync/download", s.wrap(s.handleSyncDownload))

	mux.HandleFunc("GET /api/freee/quotations", s.wrap(s.handleFreeeQuotations))
	mux.HandleFunc("POST /api/freee/invoices", s.wrap(s.handleFreeeConvert))

	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady verifies the store answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Load(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateDerived drops cached report summaries after a record mutation.
func (s *Server) invalidateDerived() {
	s.reportCache.Clear()
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.stop()
		}
		if s.cacheMgr != nil {
			s.cacheMgr.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
