package core

import (
	"strings"
	"time"
)

// Filter narrows the full record set by date range, free-text keyword, and
// invoice status.
type Filter struct {
	StartDate      string // YYYY-MM-DD, inclusive lower bound
	EndDate        string // YYYY-MM-DD, inclusive upper bound
	Keyword        string
	UninvoicedOnly bool
}

// Bounded reports whether both date bounds are set. An unbounded filter
// fails open and returns the full set.
func (f Filter) Bounded() bool {
	return f.StartDate != "" && f.EndDate != ""
}

// FilterProjects returns the subset of projects matching the filter. The
// input is never mutated and no ordering is guaranteed; ordering is applied
// by the aggregation step. Records whose dates do not parse never match.
func FilterProjects(projects []Project, f Filter) []Project {
	if !f.Bounded() {
		out := make([]Project, len(projects))
		copy(out, projects)
		return out
	}

	start, errS := ParseDate(f.StartDate)
	end, errE := ParseDate(f.EndDate)
	if errS != nil || errE != nil {
		return nil
	}
	// Date-only comparison: stretch the upper bound to end of day so an
	// inclusive range holds even if a record ever carries a time component.
	end = end.Add(24*time.Hour - time.Nanosecond)

	kw := strings.ToLower(strings.TrimSpace(f.Keyword))

	var out []Project
	for _, p := range projects {
		d, err := ParseDate(p.Date)
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		if f.UninvoicedOnly && p.IsInvoiced {
			continue
		}
		if kw != "" {
			text := strings.ToLower(p.Name + p.Client + p.Note)
			if !strings.Contains(text, kw) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
