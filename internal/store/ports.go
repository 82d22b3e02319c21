// Package store persists the canonical project list. The Store port is
// backend-agnostic; concrete backends are a local JSON file, SQLite, and a
// Supabase table. The RemoteStore port is what cloud sync reconciles against.
package store

import (
	"context"

	"uriage/internal/core"
)

type (
	// Store owns the canonical record list. Load returns the full set;
	// Save replaces it.
	Store interface {
		Load(ctx context.Context) ([]core.Project, error)
		Save(ctx context.Context, projects []core.Project) error
	}

	// RemoteStore is a cloud table keyed by record id.
	RemoteStore interface {
		// List returns every remote record.
		List(ctx context.Context) ([]core.Project, error)
		// Upsert inserts or updates records by id.
		Upsert(ctx context.Context, projects []core.Project) error
		// Delete removes the remote records with the given ids.
		Delete(ctx context.Context, ids []int64) error
	}
)
