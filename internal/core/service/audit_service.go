package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

const (
	DefaultAuditLimit     = 100
	MaxAuditLimit         = 1000
	DefaultAuditScanLimit = 2000
	MaxAuditScanLimit     = 50000
)

type auditService struct {
	repo     ports.AuditRepository
	notifier ports.NotificationService
	now      func() time.Time
	log      zerolog.Logger

	// mu keeps the activity log and the notification log in the same
	// relative order.
	mu sync.Mutex
}

// NewAuditService returns the AuditService every state-changing route calls.
func NewAuditService(repo ports.AuditRepository, notifier ports.NotificationService, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, notifier: notifier, now: time.Now, log: log}
}

func (s *auditService) Record(ctx context.Context, username, action, ipAddress string) error {
	entry := domain.ActivityEntry{
		Timestamp: s.now().Truncate(time.Second),
		Username:  domain.SanitizeLogField(username),
		Action:    domain.SanitizeLogField(action),
		IPAddress: ipAddress,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.AppendActivity(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("username", entry.Username).Str("action", entry.Action).Msg("failed to append activity")
		return err
	}
	if _, err := s.notifier.FanOut(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("username", entry.Username).Str("action", entry.Action).Msg("failed to fan out activity")
		return err
	}
	return nil
}

func (s *auditService) Query(ctx context.Context, q domain.AuditQuery) (*domain.AuditQueryResult, error) {
	switch q.Type {
	case "":
		q.Type = domain.AuditLogActivity
	case domain.AuditLogActivity, domain.AuditLogNotifications:
	default:
		return nil, domain.ErrInvalidQuery.WithMessage("type must be activity or notifications")
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return nil, domain.ErrInvalidQuery.WithMessage("from must not be after to")
	}
	q.Limit = clamp(q.Limit, DefaultAuditLimit, MaxAuditLimit)
	q.ScanLimit = clamp(q.ScanLimit, DefaultAuditScanLimit, MaxAuditScanLimit)

	scan, err := s.repo.Recent(ctx, q.Type, q.ScanLimit)
	if err != nil {
		return nil, err
	}

	res := &domain.AuditQueryResult{
		Entries:   make([]domain.AuditRecord, 0, min(q.Limit, len(scan.Records))),
		Scanned:   scan.Scanned,
		Truncated: scan.Truncated,
	}
	for i, rec := range scan.Records {
		if !q.Matches(rec) {
			continue
		}
		res.Entries = append(res.Entries, rec)
		if len(res.Entries) == q.Limit {
			if i < len(scan.Records)-1 {
				res.Truncated = true
			}
			break
		}
	}
	return res, nil
}

func clamp(v, def, ceiling int) int {
	if v <= 0 {
		return def
	}
	if v > ceiling {
		return ceiling
	}
	return v
}
