package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"uriage/internal/core"
	"uriage/internal/store"
)

var (
	// ErrNotAnArray rejects restore payloads that are not a JSON array.
	ErrNotAnArray = errors.New("import payload must be a JSON array of records")
	// ErrEmptyImport rejects restore payloads with no records.
	ErrEmptyImport = errors.New("import payload contains no records")
)

// Reconciler merges imported and cloud record sets into the local store, and
// mirrors the local set to the cloud.
type Reconciler struct {
	store     store.Store
	remote    store.RemoteStore
	publisher ChangePublisher
}

func NewReconciler(s store.Store, remote store.RemoteStore, publisher ChangePublisher) *Reconciler {
	return &Reconciler{store: s, remote: remote, publisher: publisher}
}

// ParseImport validates a backup payload. Non-array and empty payloads are
// rejected before any state changes.
func ParseImport(data []byte) ([]core.Project, error) {
	var projects []core.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, ErrNotAnArray
	}
	if len(projects) == 0 {
		return nil, ErrEmptyImport
	}
	return projects, nil
}

// MergeAdditive appends every candidate whose id is non-zero and not already
// present. Duplicate and missing ids are skipped silently; that is a counted
// outcome of a merge, not an error. Returns the number of records added.
func (r *Reconciler) MergeAdditive(ctx context.Context, candidates []core.Project) (int, error) {
	projects, err := r.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load projects: %w", err)
	}

	existing := make(map[int64]bool, len(projects))
	for _, p := range projects {
		existing[p.ID] = true
	}

	added := 0
	for _, c := range candidates {
		if c.ID == 0 || existing[c.ID] {
			continue
		}
		projects = append(projects, c)
		existing[c.ID] = true
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if err := r.store.Save(ctx, projects); err != nil {
		return 0, fmt.Errorf("save projects: %w", err)
	}

	slog.InfoContext(ctx, "Additive merge complete",
		"candidates", len(candidates),
		"added", added)

	r.publish(ctx, "merge")
	return added, nil
}

// Replace sets the store to the candidate list verbatim.
func (r *Reconciler) Replace(ctx context.Context, candidates []core.Project) error {
	if err := r.store.Save(ctx, candidates); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	slog.InfoContext(ctx, "Replace import complete", "count", len(candidates))
	r.publish(ctx, "replace")
	return nil
}

// Upload mirrors the local set to the remote store: every local record is
// upserted, then remote records absent locally are deleted. The two phases
// fail independently and a delete failure does not roll back the upserts;
// partial sync is an accepted outcome that the caller surfaces to the user.
func (r *Reconciler) Upload(ctx context.Context) error {
	if r.remote == nil {
		return fmt.Errorf("no remote store configured")
	}

	local, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}

	remote, err := r.remote.List(ctx)
	if err != nil {
		return fmt.Errorf("list remote records: %w", err)
	}

	if err := r.remote.Upsert(ctx, local); err != nil {
		return fmt.Errorf("upload phase: %w", err)
	}

	localIDs := make(map[int64]bool, len(local))
	for _, p := range local {
		localIDs[p.ID] = true
	}
	var idsToDelete []int64
	for _, p := range remote {
		if !localIDs[p.ID] {
			idsToDelete = append(idsToDelete, p.ID)
		}
	}

	if err := r.remote.Delete(ctx, idsToDelete); err != nil {
		return fmt.Errorf("delete phase (uploads already applied): %w", err)
	}

	slog.InfoContext(ctx, "Upload sync complete",
		"upserted", len(local),
		"deleted", len(idsToDelete))

	r.publish(ctx, "upload")
	return nil
}

// Download replaces the local set with the remote set (remote is
// authoritative) and persists it. Returns the record count.
func (r *Reconciler) Download(ctx context.Context) (int, error) {
	if r.remote == nil {
		return 0, fmt.Errorf("no remote store configured")
	}

	remote, err := r.remote.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list remote records: %w", err)
	}

	if err := r.store.Save(ctx, remote); err != nil {
		return 0, fmt.Errorf("save projects: %w", err)
	}

	slog.InfoContext(ctx, "Download sync complete", "count", len(remote))
	return len(remote), nil
}

func (r *Reconciler) publish(ctx context.Context, source string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishRecordChange(ctx, source); err != nil {
		slog.WarnContext(ctx, "Failed to publish change notification",
			"source", source, "error", err)
	}
}
