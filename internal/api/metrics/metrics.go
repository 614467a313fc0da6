// Package metrics defines and registers the custom Prometheus metrics of the
// blog API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; echoprometheus serves them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - operation: "register" or "login"
//   - result: "success" or the domain error code (e.g. "INVALID_CREDENTIALS")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// AccessDeniedTotal counts requests rejected by the access gate.
// Label:
//   - code: NO_TOKEN, INVALID_TOKEN, NOT_AUTHENTICATED or INSUFFICIENT_PERMISSIONS
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests rejected by authentication or role checks.",
	},
	[]string{"code"},
)

// RateLimitedTotal counts requests rejected by the fixed-window limiter.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter, by route.",
	},
	[]string{"route"},
)

// ── Article metrics ───────────────────────────────────────────────────────────

// ArticleWritesTotal counts successful article mutations.
// Label:
//   - action: "create", "update", "delete", "publish" or "unpublish"
var ArticleWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "article_writes_total",
		Help:      "Total number of article mutations, by action.",
	},
	[]string{"action"},
)

// ── View metrics ──────────────────────────────────────────────────────────────

// ViewsProcessedTotal counts views taken off the dispatcher queues.
// Label:
//   - result: "ok" or "error"
var ViewsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "views_processed_total",
		Help:      "Total number of article views processed by the dispatcher.",
	},
	[]string{"result"},
)

// ViewsDroppedTotal counts views discarded because a worker queue was full
// or the dispatcher was stopping.
var ViewsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "views_dropped_total",
		Help:      "Total number of article views dropped before processing.",
	},
)

// ViewsQueueDepth tracks the number of views waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ViewsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "views_queue_depth",
		Help:      "Current number of views pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ViewProcessingDuration measures how long recording a single view takes.
var ViewProcessingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "view_processing_duration_seconds",
		Help:      "Duration of view processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)
