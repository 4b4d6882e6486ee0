// Package metrics defines and registers the custom Prometheus metrics of the
// job board API. It is the single source of truth for metric names, labels
// and help strings.
//
// All metrics register with the default registry through promauto when the
// package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobboard"

// ── Job metrics ───────────────────────────────────────────────────────────────

// JobsCreatedTotal counts newly published jobs.
// Label:
//   - urgent: "true" or "false"
var JobsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_created_total",
		Help:      "Total number of jobs created, by urgency.",
	},
	[]string{"urgent"},
)

// JobMutationsTotal counts update and delete attempts.
// Labels:
//   - op: "update" or "delete"
//   - result: "ok", "not_found", "forbidden", "invalid", "quota_exceeded" or "error"
var JobMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_mutations_total",
		Help:      "Total number of job update/delete attempts, by operation and result.",
	},
	[]string{"op", "result"},
)

// JobsPurgedTotal counts records removed by the retention purge.
var JobsPurgedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_purged_total",
		Help:      "Total number of job records deleted by the retention purge.",
	},
)

// ── Quota metrics ─────────────────────────────────────────────────────────────

// QuotaDecisionsTotal counts urgent credit decisions.
// Label:
//   - result: "granted", "exhausted", "reward" or "error"
var QuotaDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_decisions_total",
		Help:      "Total number of urgent quota decisions, labelled by result.",
	},
	[]string{"result"},
)

// ── View metrics ──────────────────────────────────────────────────────────────

// ViewIncrementsTotal counts view increments handled by the dispatcher.
// Label:
//   - result: "applied", "dropped" or "error"
var ViewIncrementsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_increments_total",
		Help:      "Total number of view increments, labelled by outcome.",
	},
	[]string{"result"},
)

// ViewQueueDepth tracks pending view increments per worker channel.
// Label:
//   - worker_id: numeric worker index
var ViewQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "view_queue_depth",
		Help:      "Current number of view increments pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ViewIncrementDuration measures how long view increments take to persist.
var ViewIncrementDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "view_increment_duration_seconds",
		Help:      "Duration of a view increment from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Storage metrics ───────────────────────────────────────────────────────────

// StorageRetriesTotal counts retried storage operations.
// Label:
//   - op: operation name (e.g. "jobs.list", "quota.consume")
var StorageRetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_retries_total",
		Help:      "Total number of storage operation retries after transient errors.",
	},
	[]string{"op"},
)
