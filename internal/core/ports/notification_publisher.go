package ports

import (
	"context"

	"github.com/ibadah/tracker/internal/core/domain"
)

// NotificationPublisher delivers a notification to the live connections of
// its recipient. Delivery is best-effort and must not block on slow clients.
type NotificationPublisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}
