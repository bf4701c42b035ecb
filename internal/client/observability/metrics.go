package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/possync/internal/models"
)

const metricsNamespace = "possync"

// Metrics exports sync activity to Prometheus. A nil *Metrics is a valid no-op.
type Metrics struct {
	pending    prometheus.Gauge
	queueDepth prometheus.Gauge
	attempts   *prometheus.CounterVec
	retries    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	drained    *prometheus.CounterVec
	connection *prometheus.GaugeVec
}

// NewMetrics registers the sync metrics on the provided registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_operations",
			Help:      "Sync operations started but not yet finished.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "queue_depth",
			Help:      "Mutations waiting in the durable queue.",
		}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Finished sync operations by entity, action and result.",
		}, []string{"entity", "action", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retries_total",
			Help:      "Retry attempts by entity.",
		}, []string{"entity"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall-clock duration of sync operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
		drained: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "drained_items_total",
			Help:      "Queue items processed by drain passes, by outcome.",
		}, []string{"outcome"}),
		connection: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connection_state",
			Help:      "Current backend reachability (1 for the active state).",
		}, []string{"state"}),
	}

	reg.MustRegister(m.pending, m.queueDepth, m.attempts, m.retries, m.duration, m.drained, m.connection)
	return m
}

// SetPending sets the pending operations gauge
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// SetQueueDepth sets the queue depth gauge
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// ObserveOperation records a finished operation
func (m *Metrics) ObserveOperation(entity models.EntityKind, action models.Action, status models.SyncStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(string(entity)), normalizeLabel(string(action)), string(status)).Inc()
	m.duration.WithLabelValues(normalizeLabel(string(entity))).Observe(d.Seconds())
}

// IncRetry counts a retry attempt
func (m *Metrics) IncRetry(entity models.EntityKind) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(string(entity))).Inc()
}

// ObserveDrain records the outcome counts of a drain pass
func (m *Metrics) ObserveDrain(success, failed, dropped int) {
	if m == nil {
		return
	}
	m.drained.WithLabelValues("success").Add(float64(success))
	m.drained.WithLabelValues("failed").Add(float64(failed))
	m.drained.WithLabelValues("dropped").Add(float64(dropped))
}

// SetConnectionState marks state as the active one
func (m *Metrics) SetConnectionState(state models.ConnectionState) {
	if m == nil {
		return
	}
	for _, s := range []models.ConnectionState{models.StateUnknown, models.StateConnected, models.StateDisconnected} {
		v := 0.0
		if s == state {
			v = 1
		}
		m.connection.WithLabelValues(string(s)).Set(v)
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
