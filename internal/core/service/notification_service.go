package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 500

	// notificationPollScan bounds how many raw lines one poll reads back.
	notificationPollScan = 5000
)

// AdminDirectory lists the current live recipients of notifications.
type AdminDirectory interface {
	ListAdminUsernames(ctx context.Context) ([]string, error)
}

type notificationService struct {
	admins    AdminDirectory
	repo      ports.AuditRepository
	publisher ports.NotificationPublisher
	log       zerolog.Logger
}

// NewNotificationService returns a NotificationService. publisher may be nil,
// in which case only the durable record is written.
func NewNotificationService(
	admins AdminDirectory,
	repo ports.AuditRepository,
	publisher ports.NotificationPublisher,
	log zerolog.Logger,
) ports.NotificationService {
	return &notificationService{admins: admins, repo: repo, publisher: publisher, log: log}
}

func (s *notificationService) FanOut(ctx context.Context, entry domain.ActivityEntry) ([]domain.Notification, error) {
	recipients, err := s.admins.ListAdminUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("fan-out: list admins: %w", err)
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	notes := make([]domain.Notification, len(recipients))
	for i, admin := range recipients {
		notes[i] = domain.Notification{
			Timestamp:     entry.Timestamp,
			Username:      entry.Username,
			Action:        entry.Action,
			AdminUsername: admin,
		}
	}
	if err := s.repo.AppendNotifications(ctx, notes); err != nil {
		return nil, fmt.Errorf("fan-out: %w", err)
	}

	if s.publisher != nil {
		for _, n := range notes {
			if err := s.publisher.Publish(ctx, n); err != nil {
				s.log.Warn().Err(err).Str("admin", n.AdminUsername).Msg("live push failed")
			}
		}
	}
	return notes, nil
}

func (s *notificationService) ForAdmin(ctx context.Context, admin string, since time.Time, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}

	scan, err := s.repo.Recent(ctx, domain.AuditLogNotifications, notificationPollScan)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Notification, 0, limit)
	for _, rec := range scan.Records {
		if !strings.EqualFold(rec.AdminUsername, admin) {
			continue
		}
		if !since.IsZero() && !rec.Timestamp.After(since) {
			continue
		}
		out = append(out, domain.Notification{
			Timestamp:     rec.Timestamp,
			Username:      rec.Username,
			Action:        rec.Action,
			AdminUsername: rec.AdminUsername,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
