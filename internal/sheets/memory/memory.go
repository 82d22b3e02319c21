package memory

import (
	"context"
	"sync"

	"uriage/internal/core"
	ports "uriage/internal/sheets"
)

// Writer is an in-memory ReportWriter for tests and local runs without
// Google credentials.
type Writer struct {
	mu       sync.Mutex
	projects []core.Project
	summary  core.Summary
	writes   int
}

var _ ports.ReportWriter = (*Writer)(nil)

func New() *Writer { return &Writer{} }

func (w *Writer) WriteReport(ctx context.Context, projects []core.Project, summary core.Summary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.projects = append([]core.Project(nil), projects...)
	w.summary = summary
	w.writes++
	return nil
}

// Last returns the most recently written report.
func (w *Writer) Last() ([]core.Project, core.Summary, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.projects, w.summary, w.writes
}
