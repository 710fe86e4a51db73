package ports

import (
	"context"
	"time"

	"github.com/ibadah/tracker/internal/core/domain"
)

// AuditService is the single entry point for recording actions.
type AuditService interface {
	// Record appends one activity line and fans it out to every active admin.
	Record(ctx context.Context, username, action, ipAddress string) error
	Query(ctx context.Context, q domain.AuditQuery) (*domain.AuditQueryResult, error)
}

// NotificationService multiplies activity into per-admin notifications.
type NotificationService interface {
	// FanOut durably records one notification per current admin recipient and
	// pushes each over the live channel. It returns the recorded notifications.
	FanOut(ctx context.Context, entry domain.ActivityEntry) ([]domain.Notification, error)
	// ForAdmin reads the durable log for admin, newest first. A zero since
	// disables the lower bound.
	ForAdmin(ctx context.Context, admin string, since time.Time, limit int) ([]domain.Notification, error)
}
