package services

import (
	"context"
	"errors"

	"uriage/internal/core"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	projects []core.Project
	loadErr  error
	saveErr  error
	saves    int
}

func (s *fakeStore) Load(ctx context.Context) ([]core.Project, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]core.Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

func (s *fakeStore) Save(ctx context.Context, projects []core.Project) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.projects = make([]core.Project, len(projects))
	copy(s.projects, projects)
	s.saves++
	return nil
}

// fakeRemote records RemoteStore calls.
type fakeRemote struct {
	records    []core.Project
	listErr    error
	upsertErr  error
	deleteErr  error
	upserted   []core.Project
	deletedIDs []int64
}

func (r *fakeRemote) List(ctx context.Context) ([]core.Project, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]core.Project, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *fakeRemote) Upsert(ctx context.Context, projects []core.Project) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, projects...)
	byID := make(map[int64]int, len(r.records))
	for i, rec := range r.records {
		byID[rec.ID] = i
	}
	for _, p := range projects {
		if i, ok := byID[p.ID]; ok {
			r.records[i] = p
		} else {
			r.records = append(r.records, p)
			byID[p.ID] = len(r.records) - 1
		}
	}
	return nil
}

func (r *fakeRemote) Delete(ctx context.Context, ids []int64) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedIDs = append(r.deletedIDs, ids...)
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.records[:0]
	for _, rec := range r.records {
		if !drop[rec.ID] {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

// fakePublisher counts change notifications.
type fakePublisher struct {
	sources []string
	err     error
}

func (p *fakePublisher) PublishRecordChange(ctx context.Context, source string) error {
	p.sources = append(p.sources, source)
	return p.err
}

var errBoom = errors.New("boom")
