package ports

import (
	"context"

	"github.com/ibadah/tracker/internal/core/domain"
)

// LogScan is the outcome of one bounded reverse read of a log.
type LogScan struct {
	// Records are newest first. Malformed lines are skipped but still counted
	// in Scanned.
	Records   []domain.AuditRecord
	Scanned   int
	Truncated bool
}

// AuditRepository appends to and tails the activity and notification logs.
type AuditRepository interface {
	AppendActivity(ctx context.Context, entry domain.ActivityEntry) error
	// AppendNotifications writes all lines in a single serialized task.
	AppendNotifications(ctx context.Context, notes []domain.Notification) error
	// Recent reads at most maxLines raw lines from the end of the log.
	Recent(ctx context.Context, typ domain.AuditLogType, maxLines int) (*LogScan, error)
}
