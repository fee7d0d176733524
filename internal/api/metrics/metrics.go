// Package metrics defines and registers all custom Prometheus metrics for the
// room access service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import and
// exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roomaccess"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", "invalid_request" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// GuestTokensIssuedTotal counts guest token issuance attempts.
// Label:
//   - outcome: "success", "unauthorized", "missing_room", "room_not_found" or "error"
var GuestTokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guest_tokens_issued_total",
		Help:      "Total number of guest token issuance attempts, by outcome.",
	},
	[]string{"outcome"},
)

// GuestValidationsTotal counts guest token validations on the request/response path.
// Label:
//   - outcome: "success", "invalid_request", "invalid_token", "not_guest" or "error"
var GuestValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guest_validations_total",
		Help:      "Total number of guest token validations, by outcome.",
	},
	[]string{"outcome"},
)

// ── Connection metrics ────────────────────────────────────────────────────────

// ConnectionAdmissionsTotal counts streaming connection admissions.
// Labels:
//   - state: "admitted_guest" or "admitted_anonymous"
//   - reason: why the connection was admitted anonymously, empty for guests
var ConnectionAdmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connection_admissions_total",
		Help:      "Total number of streaming connection admissions, by state and reason.",
	},
	[]string{"state", "reason"},
)

// RoomAccessDeniedTotal counts room entries refused by the room policy.
// Label:
//   - reason: "forbidden", "unauthorized" or "missing_room"
var RoomAccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "room_access_denied_total",
		Help:      "Total number of room entries refused by room policy.",
	},
	[]string{"reason"},
)

// RoomConnections tracks open room WebSocket connections.
var RoomConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "room_connections",
		Help:      "Current number of open room WebSocket connections.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditDroppedTotal counts audit events dropped because a worker queue was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit events dropped on a full queue.",
	},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditWriteDuration measures how long persisting a single audit event takes.
// Label:
//   - result: "ok" or "error"
var AuditWriteDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_write_duration_seconds",
		Help:      "Duration of audit event persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
