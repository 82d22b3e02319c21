package worker

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"uriage/internal/amqp"
	"uriage/internal/core"
	"uriage/internal/services"
	"uriage/internal/store"
)

type memStore struct {
	mu       sync.Mutex
	projects []core.Project
	saves    int
}

func (s *memStore) Load(ctx context.Context) ([]core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

func (s *memStore) Save(ctx context.Context, projects []core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append([]core.Project(nil), projects...)
	s.saves++
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memStore) snapshot() []core.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Project(nil), s.projects...)
}

type memRemote struct {
	mu      sync.Mutex
	records []core.Project
}

func (r *memRemote) List(ctx context.Context) ([]core.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Project(nil), r.records...), nil
}

func (r *memRemote) add(p core.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, p)
}

func (r *memRemote) Upsert(ctx context.Context, projects []core.Project) error { return nil }
func (r *memRemote) Delete(ctx context.Context, ids []int64) error             { return nil }

var _ store.Store = (*memStore)(nil)
var _ store.RemoteStore = (*memRemote)(nil)

func TestHandleChangeMessageCoalesces(t *testing.T) {
	w := NewSyncWorker(nil, nil, time.Minute)

	msg := &amqp.RecordChangeMessage{Source: "merge", Timestamp: time.Now()}
	for i := 0; i < 5; i++ {
		if err := w.HandleChangeMessage(msg); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(w.trigger) != 1 {
		t.Fatalf("trigger depth = %d, want 1 queued download", len(w.trigger))
	}
}

func TestRunDownloadsOnStartupAndTrigger(t *testing.T) {
	st := &memStore{}
	remote := &memRemote{records: []core.Project{
		{ID: 1, Name: "A", Client: "C", Date: "2024-01-01"},
	}}
	rec := services.NewReconciler(st, remote, nil)
	w := NewSyncWorker(rec, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Startup download populates the local set.
	deadline := time.After(2 * time.Second)
	for st.saveCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("startup download never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	remote.add(core.Project{ID: 2, Name: "B", Client: "C", Date: "2024-02-01"})
	_ = w.HandleChangeMessage(&amqp.RecordChangeMessage{Source: "upload", Timestamp: time.Now()})

	deadline = time.After(2 * time.Second)
	for st.saveCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("triggered download never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := st.snapshot(); len(got) != 2 {
		t.Fatalf("local set = %+v", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
}

func TestRunServesHealthEndpoint(t *testing.T) {
	st := &memStore{}
	remote := &memRemote{}
	w := NewSyncWorker(services.NewReconciler(st, remote, nil), nil, time.Hour)
	w.HealthAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	var url string
	deadline := time.After(2 * time.Second)
	for url == "" {
		select {
		case <-deadline:
			t.Fatal("health listener never came up")
		case <-time.After(10 * time.Millisecond):
			url = w.HealthURL()
		}
	}

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v", err)
	}
}
