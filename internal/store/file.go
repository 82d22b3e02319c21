package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"uriage/internal/core"
)

// FileStore persists the record list as a single JSON array on disk. Writes
// go through a temp file plus rename so a crash mid-write cannot truncate
// the ledger.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the full record set. A missing file is an empty ledger, not an
// error.
func (s *FileStore) Load(ctx context.Context) ([]core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []core.Project{}, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var projects []core.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	return projects, nil
}

// Save replaces the record set on disk.
func (s *FileStore) Save(ctx context.Context, projects []core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if projects == nil {
		projects = []core.Project{}
	}
	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	slog.DebugContext(ctx, "Saved project ledger", "path", s.path, "count", len(projects))
	return nil
}

var _ Store = (*FileStore)(nil)
