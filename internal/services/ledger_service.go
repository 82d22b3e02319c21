// Package services holds the business logic over the record store: ledger
// mutations, recurrence generation, and local/cloud reconciliation.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"uriage/internal/core"
	"uriage/internal/store"
)

// ChangePublisher broadcasts that the record set changed. Publishing is
// best-effort; a failed broadcast never fails the local mutation.
type ChangePublisher interface {
	PublishRecordChange(ctx context.Context, source string) error
}

// DefaultMarkers flag a project name as a recurring service when no marker
// set is configured.
var DefaultMarkers = []string{"hosting", "domain"}

// LedgerService owns all mutations of the canonical project list.
type LedgerService struct {
	store     store.Store
	publisher ChangePublisher
	ids       *core.IDGenerator
	markers   []string
}

func NewLedgerService(s store.Store, publisher ChangePublisher, markers []string) *LedgerService {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &LedgerService{
		store:     s,
		publisher: publisher,
		ids:       core.NewIDGenerator(),
		markers:   markers,
	}
}

// List returns the full record set.
func (s *LedgerService) List(ctx context.Context) ([]core.Project, error) {
	return s.store.Load(ctx)
}

// Create validates and appends a new project. When the name carries a
// recurring marker, a sibling for the same month next year (day 1) is
// created in the same operation; the returned sibling is nil otherwise.
func (s *LedgerService) Create(ctx context.Context, p core.Project) (core.Project, *core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, nil, err
	}

	projects, err := s.store.Load(ctx)
	if err != nil {
		return core.Project{}, nil, fmt.Errorf("load projects: %w", err)
	}

	// Imported records can carry ids ahead of the clock; never reissue one.
	for i := range projects {
		s.ids.Observe(projects[i].ID)
	}
	p.ID = s.ids.Next()
	projects = append(projects, p)

	var sibling *core.Project
	if MatchesMarker(p.Name, s.markers) {
		next := s.nextYearSibling(p)
		projects = append(projects, next)
		sibling = &next
	}

	if err := s.store.Save(ctx, projects); err != nil {
		return core.Project{}, nil, fmt.Errorf("save projects: %w", err)
	}

	slog.InfoContext(ctx, "Created project",
		"id", p.ID,
		"name", p.Name,
		"client", p.Client,
		"recurring_sibling", sibling != nil)

	s.publish(ctx, "create")
	return p, sibling, nil
}

// nextYearSibling copies a recurring project to the first day of the same
// month one year later, with fresh id and cleared statuses.
func (s *LedgerService) nextYearSibling(p core.Project) core.Project {
	sibling := p
	sibling.ID = s.ids.Next()
	sibling.IsInvoiced = false
	sibling.IsPaid = false
	if d, err := core.ParseDate(p.Date); err == nil {
		sibling.Date = core.FirstOfMonth(d.Year()+1, d.Month())
	}
	return sibling
}

// Update replaces the editable fields of the project with p's id. Invoice
// and payment statuses are kept; they change only through the toggles.
func (s *LedgerService) Update(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	projects, err := s.store.Load(ctx)
	if err != nil {
		return core.Project{}, fmt.Errorf("load projects: %w", err)
	}

	for i := range projects {
		if projects[i].ID != p.ID {
			continue
		}
		p.IsInvoiced = projects[i].IsInvoiced
		p.IsPaid = projects[i].IsPaid
		projects[i] = p

		if err := s.store.Save(ctx, projects); err != nil {
			return core.Project{}, fmt.Errorf("save projects: %w", err)
		}
		s.publish(ctx, "update")
		return p, nil
	}
	return core.Project{}, core.ErrNotFound
}

// Delete removes the project with the given id.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	projects, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}

	kept := projects[:0]
	found := false
	for _, p := range projects {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return core.ErrNotFound
	}

	if err := s.store.Save(ctx, kept); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}

	slog.InfoContext(ctx, "Deleted project", "id", id)
	s.publish(ctx, "delete")
	return nil
}

// ToggleInvoiced flips the invoiced flag and returns the new value.
func (s *LedgerService) ToggleInvoiced(ctx context.Context, id int64) (bool, error) {
	return s.toggle(ctx, id, func(p *core.Project) *bool { return &p.IsInvoiced })
}

// TogglePaid flips the paid flag and returns the new value.
func (s *LedgerService) TogglePaid(ctx context.Context, id int64) (bool, error) {
	return s.toggle(ctx, id, func(p *core.Project) *bool { return &p.IsPaid })
}

func (s *LedgerService) toggle(ctx context.Context, id int64, field func(*core.Project) *bool) (bool, error) {
	projects, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load projects: %w", err)
	}

	for i := range projects {
		if projects[i].ID != id {
			continue
		}
		f := field(&projects[i])
		*f = !*f
		if err := s.store.Save(ctx, projects); err != nil {
			return false, fmt.Errorf("save projects: %w", err)
		}
		s.publish(ctx, "toggle")
		return *f, nil
	}
	return false, core.ErrNotFound
}

func (s *LedgerService) publish(ctx context.Context, source string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordChange(ctx, source); err != nil {
		slog.WarnContext(ctx, "Failed to publish change notification",
			"source", source, "error", err)
	}
}

// MatchesMarker reports whether a project name contains one of the
// recurring-service markers. Matching is case-insensitive substring.
func MatchesMarker(name string, markers []string) bool {
	lower := strings.ToLower(name)
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
