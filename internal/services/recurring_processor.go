package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"uriage/internal/core"
	"uriage/internal/store"
)

// RecurringProcessor synthesizes the current month's instance of recurring
// service projects (hosting, domains and the like) at application start.
type RecurringProcessor struct {
	store   store.Store
	markers []string
	ids     *core.IDGenerator
}

// NewRecurringProcessor creates a processor over the given store. An empty
// marker set falls back to DefaultMarkers.
func NewRecurringProcessor(s store.Store, markers []string) *RecurringProcessor {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &RecurringProcessor{
		store:   s,
		markers: markers,
		ids:     core.NewIDGenerator(),
	}
}

// EnsureCurrentMonth scans the record set and, for every past recurring
// project whose month equals now's month, creates this year's instance dated
// the first of the month unless one already exists for the target
// year-month. Returns the number of records created; re-running within the
// same month is a no-op.
func (p *RecurringProcessor) EnsureCurrentMonth(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	projects, err := p.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load projects: %w", err)
	}
	for i := range projects {
		p.ids.Observe(projects[i].ID)
	}

	slog.InfoContext(ctx, "Scanning for recurring projects",
		"total", len(projects),
		"processing_date", core.FormatDate(now))

	currentMonth := now.Month()
	candidateDate := core.FirstOfMonth(now.Year(), currentMonth)
	targetPrefix := now.Format("2006-01")

	created := 0
	// Range over the original length only; records appended during the scan
	// still participate in the existence check below, so a recurring
	// definition seen across several years yields one instance per run.
	originalLen := len(projects)
	for i := 0; i < originalLen; i++ {
		src := projects[i]
		if !MatchesMarker(src.Name, p.markers) {
			continue
		}
		d, err := core.ParseDate(src.Date)
		if err != nil || d.Month() != currentMonth {
			continue
		}

		if hasInstanceFor(projects, src.Name, src.Client, targetPrefix) {
			continue
		}

		instance := core.Project{
			ID:       p.ids.Next(),
			Name:     src.Name,
			Client:   src.Client,
			Date:     candidateDate,
			Sales:    src.Sales,
			Expenses: src.Expenses,
			Note:     src.Note,
		}
		projects = append(projects, instance)
		created++

		slog.InfoContext(ctx, "Created recurring project instance",
			"id", instance.ID,
			"name", instance.Name,
			"client", instance.Client,
			"date", instance.Date)
	}

	if created == 0 {
		return 0, nil
	}

	if err := p.store.Save(ctx, projects); err != nil {
		return 0, fmt.Errorf("save projects: %w", err)
	}

	slog.InfoContext(ctx, "Recurring scan complete", "created", created)
	return created, nil
}

// hasInstanceFor reports whether any record with the same name and client is
// already dated inside the target YYYY-MM.
func hasInstanceFor(projects []core.Project, name, client, yearMonthPrefix string) bool {
	for _, p := range projects {
		if p.Name == name && p.Client == client && strings.HasPrefix(p.Date, yearMonthPrefix) {
			return true
		}
	}
	return false
}
