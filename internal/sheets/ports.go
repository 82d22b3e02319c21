package sheets

import (
	"context"

	"uriage/internal/core"
)

// ReportWriter exports a filtered report to an external sheet.
type ReportWriter interface {
	// WriteReport replaces the report sheet contents with the given rows
	// and a summary block.
	WriteReport(ctx context.Context, projects []core.Project, summary core.Summary) error
}
