// Package metrics defines and registers all custom Prometheus metrics for the
// ledger API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto; /metrics serves them alongside the request
// metrics of the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", or "error"
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// LedgerWritesTotal counts committed writes.
// Labels:
//   - entity: "application" or "earning"
//   - op: "create", "update", or "delete"
var LedgerWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_writes_total",
		Help:      "Total number of committed ledger writes, by entity and operation.",
	},
	[]string{"entity", "op"},
)

// WriteQueueDepth tracks the number of writes waiting in each serializer worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var WriteQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "write_queue_depth",
		Help:      "Current number of writes pending in each serializer worker channel.",
	},
	[]string{"worker_id"},
)

// ── Stats metrics ─────────────────────────────────────────────────────────────

// StatsQueriesTotal counts dashboard queries.
// Labels:
//   - query: "gains_by_application" or "total_over_time"
//   - cache: "hit", "miss", or "error"
var StatsQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_queries_total",
		Help:      "Total number of dashboard queries, by query and cache outcome.",
	},
	[]string{"query", "cache"},
)

// StatsQueryDuration measures how long a dashboard query takes end-to-end.
// Label:
//   - query: "gains_by_application" or "total_over_time"
var StatsQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stats_query_duration_seconds",
		Help:      "Duration of dashboard queries including cache lookups.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"query"},
)
