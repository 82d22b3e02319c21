// Package worker runs the background download reconciler: change
// notifications from AMQP and a periodic fallback both trigger a pull of the
// cloud record set into the local store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"uriage/internal/amqp"
	"uriage/internal/services"
)

// SyncWorker keeps the local store following the cloud mirror.
type SyncWorker struct {
	reconciler *services.Reconciler
	consumer   *amqp.Client
	interval   time.Duration

	// HealthAddr is the listen address for the liveness endpoint. Empty
	// disables it. Set before calling Run.
	HealthAddr string

	mu        sync.Mutex
	healthURL string

	// trigger coalesces bursts of change notifications into one download.
	trigger chan struct{}
}

func NewSyncWorker(reconciler *services.Reconciler, consumer *amqp.Client, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		reconciler: reconciler,
		consumer:   consumer,
		interval:   interval,
		trigger:    make(chan struct{}, 1),
	}
}

// Run blocks until ctx is cancelled, consuming change notifications and
// running the periodic fallback in parallel. An initial download runs at
// startup to recover from missed notifications.
func (w *SyncWorker) Run(ctx context.Context) error {
	if count, err := w.reconciler.Download(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup download failed", "error", err)
	} else {
		slog.InfoContext(ctx, "Startup download complete", "count", count)
	}

	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.ConsumeRecordChanges(ctx, w.HandleChangeMessage)
		})
	}

	if w.HealthAddr != "" {
		g.Go(func() error {
			return w.serveHealth(ctx)
		})
	}

	g.Go(func() error {
		return w.runLoop(ctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("sync worker: %w", err)
	}
	return nil
}

// HandleChangeMessage queues a download for a change notification. The
// notification carries no payload beyond "something changed", so the handler
// never fails on content.
func (w *SyncWorker) HandleChangeMessage(msg *amqp.RecordChangeMessage) error {
	slog.Info("Change notification received",
		"source", msg.Source,
		"timestamp", msg.Timestamp)

	select {
	case w.trigger <- struct{}{}:
	default:
		// A download is already queued; the next run covers this change too.
	}
	return nil
}

// serveHealth runs the liveness endpoint until ctx is cancelled.
func (w *SyncWorker) serveHealth(ctx context.Context) error {
	ln, err := net.Listen("tcp", w.HealthAddr)
	if err != nil {
		return fmt.Errorf("health listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(wr http.ResponseWriter, r *http.Request) {
		wr.WriteHeader(http.StatusOK)
		_, _ = wr.Write([]byte("ok"))
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	w.mu.Lock()
	w.healthURL = "http://" + ln.Addr().String() + "/healthz"
	w.mu.Unlock()
	slog.InfoContext(ctx, "Health endpoint listening", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-serveErr:
		return fmt.Errorf("health server: %w", err)
	}
}

// HealthURL returns the liveness endpoint URL once the listener is up, or an
// empty string before that.
func (w *SyncWorker) HealthURL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.healthURL
}

func (w *SyncWorker) runLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.trigger:
			w.download(ctx, "notification")
		case <-ticker.C:
			w.download(ctx, "interval")
		}
	}
}

func (w *SyncWorker) download(ctx context.Context, reason string) {
	count, err := w.reconciler.Download(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Download sync failed", "reason", reason, "error", err)
		return
	}
	slog.InfoContext(ctx, "Download sync complete", "reason", reason, "count", count)
}
