package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommentsCreatedTotal counts accepted comments by site and identity kind.
	CommentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paranote_comments_created_total",
		Help: "Total number of comments accepted",
	}, []string{"site", "identity"})

	// CommentsRejectedTotal counts rejected comment submissions by reason.
	CommentsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paranote_comments_rejected_total",
		Help: "Total number of comment submissions rejected",
	}, []string{"reason"})

	// LikesTotal counts like attempts by outcome.
	LikesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paranote_likes_total",
		Help: "Total number of like attempts by outcome",
	}, []string{"outcome"})

	// ModerationActionsTotal counts ban registry operations by action.
	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paranote_moderation_actions_total",
		Help: "Total number of moderation actions",
	}, []string{"action"})

	// StorageOperationLatency records backend call latency by backend and operation.
	StorageOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paranote_storage_operation_latency_seconds",
		Help:    "Storage backend operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	// ImportedRecordsTotal counts records processed by bulk import.
	ImportedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paranote_imported_records_total",
		Help: "Total number of records processed by bulk import",
	})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paranote_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// StorageMetrics records backend call latency for one backend kind.
type StorageMetrics struct {
	backend string
}

// NewStorageMetrics returns a StorageMetrics instance labeled with the
// backend kind ("file" or "mongo").
func NewStorageMetrics(backend string) *StorageMetrics {
	return &StorageMetrics{backend: backend}
}

// ObserveOperation records the latency of one backend call.
func (m *StorageMetrics) ObserveOperation(operation string, start time.Time) {
	latency := time.Since(start).Seconds()
	StorageOperationLatency.WithLabelValues(m.backend, operation).Observe(latency)
}

// TrackOperation returns a function that records latency when called (e.g. defer).
func (m *StorageMetrics) TrackOperation(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveOperation(operation, start)
	}
}

// IdentityKind returns the metric label for a resolved identity.
func IdentityKind(anonymous bool) string {
	if anonymous {
		return "anonymous"
	}
	return "authenticated"
}
