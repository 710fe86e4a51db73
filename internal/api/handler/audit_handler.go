package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ibadah/tracker/internal/core/domain"
	"github.com/ibadah/tracker/internal/core/ports"
)

const dateOnlyLayout = "2006-01-02"

// AuditHandler exposes the activity and notification logs to admins.
type AuditHandler struct {
	audit         ports.AuditService
	notifications ports.NotificationService
}

func NewAuditHandler(audit ports.AuditService, notifications ports.NotificationService) *AuditHandler {
	return &AuditHandler{audit: audit, notifications: notifications}
}

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// Query searches the tail of a log, newest first.
//
// @Summary      Query audit log
// @Tags         audit
// @Produce      json
// @Param        type       query     string  false  "activity or notifications"
// @Param        limit      query     int     false  "max results (default 100, max 1000)"
// @Param        scanLimit  query     int     false  "raw lines to read (default 2000, max 50000)"
// @Param        username   query     string  false  "exact username, case-insensitive"
// @Param        action     query     string  false  "action substring, case-insensitive"
// @Param        from       query     string  false  "inclusive lower bound"
// @Param        to         query     string  false  "inclusive upper bound"
// @Param        before     query     string  false  "exclusive upper bound"
// @Success      200        {object}  domain.AuditQueryResult
// @Failure      400        {object}  map[string]any
// @Router       /admin/audit [get]
func (h *AuditHandler) Query(c echo.Context) error {
	q, err := parseAuditQuery(c)
	if err != nil {
		return err
	}
	res, err := h.audit.Query(c.Request().Context(), q)
	if err != nil {
		return err
	}
	if res.Entries == nil {
		res.Entries = []domain.AuditRecord{}
	}
	return c.JSON(http.StatusOK, res)
}

// Notifications returns the caller's durable notifications, the fallback for
// clients without a live connection.
//
// @Summary      Poll notifications
// @Tags         audit
// @Produce      json
// @Param        since  query     string  false  "only newer than this time"
// @Param        limit  query     int     false  "max results (default 50, max 500)"
// @Success      200    {object}  notificationsResponse
// @Router       /admin/notifications [get]
func (h *AuditHandler) Notifications(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	since, err := parseTimeParam(c.QueryParam("since"), false)
	if err != nil {
		return domain.ErrInvalidQuery.WithMessage("since: " + err.Error())
	}
	limit, err := parseIntParam(c.QueryParam("limit"))
	if err != nil {
		return domain.ErrInvalidQuery.WithMessage("limit must be a non-negative integer")
	}

	notes, err := h.notifications.ForAdmin(c.Request().Context(), p.Username, since, limit)
	if err != nil {
		return err
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	return c.JSON(http.StatusOK, notificationsResponse{Notifications: notes})
}

func parseAuditQuery(c echo.Context) (domain.AuditQuery, error) {
	q := domain.AuditQuery{
		Type:           domain.AuditLogType(strings.ToLower(strings.TrimSpace(c.QueryParam("type")))),
		Username:       strings.TrimSpace(c.QueryParam("username")),
		ActionContains: strings.TrimSpace(c.QueryParam("action")),
	}

	var err error
	if q.Limit, err = parseIntParam(c.QueryParam("limit")); err != nil {
		return q, domain.ErrInvalidQuery.WithMessage("limit must be a non-negative integer")
	}
	if q.ScanLimit, err = parseIntParam(c.QueryParam("scanLimit")); err != nil {
		return q, domain.ErrInvalidQuery.WithMessage("scanLimit must be a non-negative integer")
	}
	if q.From, err = parseTimeParam(c.QueryParam("from"), false); err != nil {
		return q, domain.ErrInvalidQuery.WithMessage("from: " + err.Error())
	}
	if q.To, err = parseTimeParam(c.QueryParam("to"), true); err != nil {
		return q, domain.ErrInvalidQuery.WithMessage("to: " + err.Error())
	}
	if q.Before, err = parseTimeParam(c.QueryParam("before"), false); err != nil {
		return q, domain.ErrInvalidQuery.WithMessage("before: " + err.Error())
	}
	return q, nil
}

func parseIntParam(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

var errInvalidTime = errors.New("expected YYYY-MM-DD, YYYY-MM-DD HH:mm:ss or RFC3339")

// parseTimeParam accepts YYYY-MM-DD, "YYYY-MM-DD HH:mm:ss" or RFC3339, in the
// log's local time zone. A bare date used as an upper bound means the last
// second of that day.
func parseTimeParam(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, s, time.Local); err == nil {
		if endOfDay {
			return t.AddDate(0, 0, 1).Add(-time.Second), nil
		}
		return t, nil
	}
	if t, err := domain.ParseLogTime(s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(time.Local), nil
	}
	return time.Time{}, errInvalidTime
}
