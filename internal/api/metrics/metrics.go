// Package metrics defines and registers all custom Prometheus metrics for the
// tracker. It is the single source of truth for metric names, labels, and help
// strings.
//
// Metrics are registered with the default Prometheus registry on package init
// through promauto, and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ibadah"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or the failing error code (e.g. "INVALID_CREDENTIALS")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// SessionRejectionsTotal counts requests whose session failed verification.
// Label:
//   - code: the error code returned to the client
var SessionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rejections_total",
		Help:      "Total number of rejected session verifications, by error code.",
	},
	[]string{"code"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditLinesTotal counts lines appended to the append-only logs.
// Label:
//   - log: "activity" or "notifications"
var AuditLinesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_lines_total",
		Help:      "Total number of lines appended to the audit logs.",
	},
	[]string{"log"},
)

// ── Live channel metrics ──────────────────────────────────────────────────────

// PushesTotal counts live notification deliveries.
// Label:
//   - result: "delivered", "dropped" (client buffer full) or "offline"
var PushesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_pushes_total",
		Help:      "Total number of live notification push attempts, by result.",
	},
	[]string{"result"},
)

// LiveConnections tracks currently registered admin connections.
var LiveConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_connections",
		Help:      "Current number of registered live admin connections.",
	},
)

// ── Write queue metrics ───────────────────────────────────────────────────────

// WriteQueueDepth tracks tasks submitted to the write queue but not yet run.
var WriteQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "write_queue_depth",
		Help:      "Current number of tasks waiting in the serial write queue.",
	},
)

// WriteTaskDuration measures how long a single write task takes from enqueue
// to completion.
// Label:
//   - result: "ok" or "error"
var WriteTaskDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "write_task_duration_seconds",
		Help:      "Duration of serial write tasks from enqueue to completion.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"result"},
)
