package filestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/ibadah/tracker/internal/api/metrics"
	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
	"github.com/ibadah/tracker/internal/pkg/tailreader"
)

// AuditLogRepository appends to activity_log.txt and admin_notifications.txt
// and tails them backwards for queries.
type AuditLogRepository struct {
	store        *Store
	maxScanBytes int64
}

// NewAuditLogRepository bounds every reverse read to maxScanBytes; zero
// disables the byte ceiling.
func NewAuditLogRepository(store *Store, maxScanBytes int64) *AuditLogRepository {
	return &AuditLogRepository{store: store, maxScanBytes: maxScanBytes}
}

func (r *AuditLogRepository) AppendActivity(ctx context.Context, entry domain.ActivityEntry) error {
	line := FormatActivityLine(entry)
	err := r.store.write(ctx, func() error {
		return appendLines(r.store.path(ActivityLogFile), []string{line})
	})
	if err != nil {
		return fmt.Errorf("activity log: %w", err)
	}
	metrics.AuditLinesTotal.WithLabelValues(string(domain.AuditLogActivity)).Inc()
	return nil
}

func (r *AuditLogRepository) AppendNotifications(ctx context.Context, notes []domain.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = FormatNotificationLine(n)
	}
	err := r.store.write(ctx, func() error {
		return appendLines(r.store.path(NotificationsFile), lines)
	})
	if err != nil {
		return fmt.Errorf("notification log: %w", err)
	}
	metrics.AuditLinesTotal.WithLabelValues(string(domain.AuditLogNotifications)).Add(float64(len(lines)))
	return nil
}

func (r *AuditLogRepository) Recent(_ context.Context, typ domain.AuditLogType, maxLines int) (*ports.LogScan, error) {
	name := ActivityLogFile
	parse := ParseActivityLine
	if typ == domain.AuditLogNotifications {
		name = NotificationsFile
		parse = ParseNotificationLine
	}

	res, err := tailreader.ReadFile(r.store.path(name), tailreader.Options{
		MaxLines: maxLines,
		MaxBytes: r.maxScanBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}

	scan := &ports.LogScan{
		Records:   make([]domain.AuditRecord, 0, len(res.Lines)),
		Scanned:   len(res.Lines),
		Truncated: res.Truncated,
	}
	for _, line := range res.Lines {
		if rec, ok := parse(line); ok {
			scan.Records = append(scan.Records, rec)
		}
	}
	return scan, nil
}

// FormatActivityLine renders "YYYY-MM-DD HH:mm:ss, username, action, ip".
func FormatActivityLine(e domain.ActivityEntry) string {
	ip := strings.TrimSpace(e.IPAddress)
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{
		domain.FormatLogTime(e.Timestamp),
		domain.SanitizeLogField(e.Username),
		domain.SanitizeLogField(e.Action),
		domain.SanitizeLogField(ip),
	}, ", ")
}

// FormatNotificationLine renders "YYYY-MM-DD HH:mm:ss, username, action, admin_username".
func FormatNotificationLine(n domain.Notification) string {
	return strings.Join([]string{
		domain.FormatLogTime(n.Timestamp),
		domain.SanitizeLogField(n.Username),
		domain.SanitizeLogField(n.Action),
		domain.SanitizeLogField(n.AdminUsername),
	}, ", ")
}

func ParseActivityLine(line string) (domain.AuditRecord, bool) {
	f, ok := splitLogLine(line)
	if !ok {
		return domain.AuditRecord{}, false
	}
	ts, err := domain.ParseLogTime(f[0])
	if err != nil {
		return domain.AuditRecord{}, false
	}
	return domain.AuditRecord{Timestamp: ts, Username: f[1], Action: f[2], IPAddress: f[3]}, true
}

func ParseNotificationLine(line string) (domain.AuditRecord, bool) {
	f, ok := splitLogLine(line)
	if !ok {
		return domain.AuditRecord{}, false
	}
	ts, err := domain.ParseLogTime(f[0])
	if err != nil {
		return domain.AuditRecord{}, false
	}
	return domain.AuditRecord{Timestamp: ts, Username: f[1], Action: f[2], AdminUsername: f[3]}, true
}

func splitLogLine(line string) ([4]string, bool) {
	var out [4]string
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return out, false
	}
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out, true
}
