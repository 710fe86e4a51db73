package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ibadah/tracker/internal/core/domain"
)

func TestAuditHandler_QueryParsesParameters(t *testing.T) {
	var got domain.AuditQuery
	audit := &stubAudit{queryFn: func(q domain.AuditQuery) (*domain.AuditQueryResult, error) {
		got = q
		return &domain.AuditQueryResult{}, nil
	}}
	h := NewAuditHandler(audit, &stubNotifications{})

	target := "/admin/audit?type=Notifications&limit=5&scanLimit=300&username=bob&action=delete" +
		"&from=2025-05-01&to=2025-05-02&before=2025-05-02%2010:30:00"
	c, rec := newJSONContext(http.MethodGet, target, "", adminPrincipal)
	if err := h.Query(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if got.Type != domain.AuditLogNotifications || got.Limit != 5 || got.ScanLimit != 300 {
		t.Fatalf("unexpected query: %+v", got)
	}
	if got.Username != "bob" || got.ActionContains != "delete" {
		t.Fatalf("unexpected filters: %+v", got)
	}
	if !got.From.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("unexpected from: %s", got.From)
	}
	if !got.To.Equal(time.Date(2025, 5, 2, 23, 59, 59, 0, time.Local)) {
		t.Fatalf("date-only upper bound should cover the whole day: %s", got.To)
	}
	if !got.Before.Equal(time.Date(2025, 5, 2, 10, 30, 0, 0, time.Local)) {
		t.Fatalf("unexpected before: %s", got.Before)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entries, ok := resp["entries"].([]any); !ok || len(entries) != 0 {
		t.Fatalf("expected empty entries array, got %v", resp["entries"])
	}
}

func TestAuditHandler_QueryRejectsBadParameters(t *testing.T) {
	audit := &stubAudit{queryFn: func(q domain.AuditQuery) (*domain.AuditQueryResult, error) {
		t.Fatalf("should not be called")
		return nil, nil
	}}
	h := NewAuditHandler(audit, &stubNotifications{})

	for _, target := range []string{
		"/admin/audit?limit=abc",
		"/admin/audit?scanLimit=-1",
		"/admin/audit?from=yesterday",
	} {
		c, _ := newJSONContext(http.MethodGet, target, "", adminPrincipal)
		if err := h.Query(c); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Fatalf("%s: expected INVALID_QUERY, got %v", target, err)
		}
	}
}

func TestAuditHandler_Notifications(t *testing.T) {
	ts := time.Date(2025, 5, 1, 8, 0, 0, 0, time.Local)
	notes := &stubNotifications{forAdminFn: func(admin string, since time.Time, limit int) ([]domain.Notification, error) {
		if admin != "alice" || limit != 10 {
			t.Fatalf("unexpected args %s %d", admin, limit)
		}
		if !since.Equal(time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC).In(time.Local)) {
			t.Fatalf("unexpected since: %s", since)
		}
		return []domain.Notification{{Timestamp: ts, Username: "bob", Action: "login", AdminUsername: "alice"}}, nil
	}}
	h := NewAuditHandler(&stubAudit{}, notes)

	c, rec := newJSONContext(http.MethodGet, "/admin/notifications?since=2025-05-01T07:00:00Z&limit=10", "", adminPrincipal)
	if err := h.Notifications(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp notificationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Notifications) != 1 || resp.Notifications[0].Action != "login" {
		t.Fatalf("unexpected notifications: %+v", resp.Notifications)
	}
}
