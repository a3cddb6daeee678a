// Package metrics defines and registers all custom Prometheus metrics for the
// refund API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register with the default registry on package init (promauto), and
// are served by echoprometheus at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "refund"

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersRegisteredTotal counts successful registrations.
// Label:
//   - role: "employee" or "manager"
var UsersRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of users registered, by role.",
	},
	[]string{"role"},
)

// ── Refund metrics ────────────────────────────────────────────────────────────

// RefundsCreatedTotal counts newly created refunds. Idempotent replays are not counted.
// Label:
//   - category: food, others, services, transport, accommodation
var RefundsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refunds_created_total",
		Help:      "Total number of refunds created, by category.",
	},
	[]string{"category"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// AuthzDeniedTotal counts requests rejected with 403.
// Label:
//   - check: "role_gate" (route level) or "ownership" (resource level)
var AuthzDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_denied_total",
		Help:      "Total number of requests denied by authorization checks.",
	},
	[]string{"check"},
)

// ── File metrics ──────────────────────────────────────────────────────────────

// UploadsTotal counts upload attempts.
// Label:
//   - result: "stored", "rejected" or "error"
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of receipt uploads, by result.",
	},
	[]string{"result"},
)

// FileCleanupTotal counts background removals of unreferenced files.
// Label:
//   - result: "deleted", "error" or "dropped" (queue full)
var FileCleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "file_cleanup_total",
		Help:      "Total number of file cleanup jobs, by result.",
	},
	[]string{"result"},
)

// FileCleanupQueueDepth tracks pending removals per worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var FileCleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "file_cleanup_queue_depth",
		Help:      "Current number of files pending removal in each cleanup worker channel.",
	},
	[]string{"worker_id"},
)
