package domain

import (
	"strings"
	"time"
)

// LogTimeLayout is the wall-clock layout of both append-only logs.
const LogTimeLayout = "2006-01-02 15:04:05"

// ActivityEntry is one immutable line of the activity log.
type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ipAddress"`
}

// Notification is one fan-out record of an activity entry for one admin.
type Notification struct {
	Timestamp     time.Time `json:"timestamp"`
	Username      string    `json:"username"`
	Action        string    `json:"action"`
	AdminUsername string    `json:"adminUsername"`
}

// SanitizeLogField strips characters that would break the one-line,
// comma-delimited record format.
func SanitizeLogField(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ',':
			return ' '
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}

// FormatLogTime renders t in local wall-clock time at second precision.
func FormatLogTime(t time.Time) string {
	return t.Local().Format(LogTimeLayout)
}

// ParseLogTime parses a log timestamp in local time.
func ParseLogTime(s string) (time.Time, error) {
	return time.ParseInLocation(LogTimeLayout, s, time.Local)
}

// AuditLogType selects which append-only log a query reads.
type AuditLogType string

const (
	AuditLogActivity      AuditLogType = "activity"
	AuditLogNotifications AuditLogType = "notifications"
)

// AuditQuery filters a bounded reverse scan of one log.
type AuditQuery struct {
	Type           AuditLogType
	Limit          int
	ScanLimit      int
	Username       string
	ActionContains string
	From           time.Time
	To             time.Time
	Before         time.Time
}

// AuditRecord is a log line of either type. AdminUsername is only set for
// notification records.
type AuditRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Username      string    `json:"username"`
	Action        string    `json:"action"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	AdminUsername string    `json:"adminUsername,omitempty"`
}

// AuditQueryResult is returned newest first.
type AuditQueryResult struct {
	Entries   []AuditRecord `json:"entries"`
	Scanned   int           `json:"scanned"`
	Truncated bool          `json:"truncated"`
}

// Matches applies the non-type filters of q to r.
func (q AuditQuery) Matches(r AuditRecord) bool {
	if q.Username != "" && !strings.EqualFold(r.Username, q.Username) {
		return false
	}
	if q.ActionContains != "" && !strings.Contains(strings.ToLower(r.Action), strings.ToLower(q.ActionContains)) {
		return false
	}
	if !q.From.IsZero() && r.Timestamp.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && r.Timestamp.After(q.To) {
		return false
	}
	if !q.Before.IsZero() && !r.Timestamp.Before(q.Before) {
		return false
	}
	return true
}
