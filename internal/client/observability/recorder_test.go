package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/models"
)

type codedError struct{ code string }

func (e *codedError) Error() string     { return "backend rejected: " + e.code }
func (e *codedError) ErrorCode() string { return e.code }

func TestRecorder_Lifecycle(t *testing.T) {
	r := NewRecorder(10, nil)

	var pending []int
	r.Subscribe(func(v int) { pending = append(pending, v) })

	h := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "order-1")
	require.NotNil(t, h)
	assert.NotEmpty(t, h.ID())
	assert.Equal(t, 1, r.Pending().Value())

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.SyncPending, entries[0].Status)
	assert.Equal(t, "order-1", entries[0].EntityID)

	r.RecordRetry(h, 1, errors.New("timeout"))
	assert.Equal(t, models.SyncRetrying, r.Entries()[0].Status)
	assert.Equal(t, 1, r.Entries()[0].RetryCount)

	r.RecordSuccess(h, 150*time.Millisecond)
	entries = r.Entries()
	require.Len(t, entries, 1, "запись обновляется на месте")
	assert.Equal(t, models.SyncSuccess, entries[0].Status)
	assert.Equal(t, int64(150), entries[0].DurationMs)
	assert.Empty(t, entries[0].Error)
	assert.Equal(t, 0, r.Pending().Value())

	assert.Equal(t, []int{0, 1, 0}, pending)
}

func TestRecorder_FailureWithCode(t *testing.T) {
	r := NewRecorder(10, nil)

	var reported []models.SyncLogEntry
	r.OnError(func(e models.SyncLogEntry) { reported = append(reported, e) })

	h := r.RecordAttempt(models.ActionUpdate, models.EntityCustomers, "c-1")
	r.RecordFailure(h, &codedError{code: "validation_failed"}, time.Second)

	errs := r.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "backend rejected: validation_failed", errs[0].Error)
	assert.Equal(t, "validation_failed", errs[0].ErrorCode)
	assert.Equal(t, int64(1000), errs[0].DurationMs)

	require.Len(t, reported, 1)
	assert.Equal(t, h.ID(), reported[0].ID)
}

func TestRecorder_DoubleTerminalIsNoop(t *testing.T) {
	r := NewRecorder(10, nil)

	h := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "")
	r.RecordSuccess(h, time.Millisecond)
	r.RecordFailure(h, errors.New("late"), time.Millisecond)
	r.RecordRetry(h, 2, nil)

	assert.Equal(t, 0, r.Pending().Value())
	assert.Equal(t, models.SyncSuccess, r.Entries()[0].Status)

	// вторая попытка не уводит счетчик в минус
	other := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "")
	assert.Equal(t, 1, r.Pending().Value())
	r.RecordSuccess(other, 0)
	assert.Equal(t, 0, r.Pending().Value())
}

func TestRecorder_NilHandle(t *testing.T) {
	r := NewRecorder(10, nil)
	require.NotPanics(t, func() {
		r.RecordRetry(nil, 1, nil)
		r.RecordSuccess(nil, 0)
		r.RecordFailure(nil, nil, 0)
	})
	assert.Equal(t, 0, r.Pending().Value())
}

func TestRecorder_EvictedEntryIsReappended(t *testing.T) {
	r := NewRecorder(2, nil)

	h := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "slow")
	r.RecordAttempt(models.ActionCreate, models.EntityOrders, "b")
	r.RecordAttempt(models.ActionCreate, models.EntityOrders, "c")

	r.RecordFailure(h, errors.New("boom"), time.Second)

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "slow", entries[0].EntityID)
	assert.Equal(t, models.SyncError, entries[0].Status)
	assert.Equal(t, 2, r.Pending().Value())
}

func TestRecorder_OnErrorPanicIsIsolated(t *testing.T) {
	r := NewRecorder(10, nil)
	r.OnError(func(models.SyncLogEntry) { panic("ui bug") })

	h := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "")
	require.NotPanics(t, func() { r.RecordFailure(h, nil, 0) })
	assert.Equal(t, "unknown error", r.Errors()[0].Error)
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder(10, nil)
	r.RecordAttempt(models.ActionCreate, models.EntityOrders, "")
	r.RecordAttempt(models.ActionCreate, models.EntityOrders, "")

	r.Reset()
	assert.Empty(t, r.Entries())
	assert.Equal(t, 0, r.Pending().Value())
	assert.Zero(t, r.Stats().Total)
}

func TestRecorder_ResetWithAttemptsInFlight(t *testing.T) {
	r := NewRecorder(10, nil)
	a := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "a")
	b := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "b")

	r.Reset()
	c := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "c")
	assert.Equal(t, 1, r.Pending().Value())

	// завершение попыток, начатых до сброса, не трогает новый счетчик
	r.RecordSuccess(a, time.Millisecond)
	r.RecordFailure(b, errors.New("boom"), time.Millisecond)
	assert.Equal(t, 1, r.Pending().Value())

	r.RecordSuccess(c, time.Millisecond)
	assert.Equal(t, 0, r.Pending().Value())
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	require.NotPanics(t, func() {
		h := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "a")
		assert.Nil(t, h)
		r.RecordRetry(h, 1, errors.New("timeout"))
		r.RecordSuccess(h, time.Millisecond)
		r.RecordFailure(h, errors.New("boom"), time.Millisecond)

		assert.Nil(t, r.Metrics())
		r.Metrics().ObserveDrain(1, 0, 0)
		r.Metrics().SetQueueDepth(3)

		assert.Nil(t, r.Log())
		assert.Nil(t, r.Pending())
		assert.Zero(t, r.Stats())
		assert.Empty(t, r.Entries())
		assert.Empty(t, r.Recent(5))
		assert.Empty(t, r.Errors())
		assert.Empty(t, r.ForEntity(models.EntityOrders))

		r.OnError(func(models.SyncLogEntry) {})
		r.Subscribe(func(int) {})()
		r.SubscribeLog(func([]models.SyncLogEntry) {})()
		r.Clear()
		r.Reset()
	})
}

func TestRecorder_ExportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(10, NewMetrics(reg))

	ok := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "")
	r.RecordRetry(ok, 1, errors.New("timeout"))
	r.RecordSuccess(ok, 250*time.Millisecond)

	failed := r.RecordAttempt(models.ActionCreate, models.EntityOrders, "")
	r.RecordFailure(failed, errors.New("boom"), time.Millisecond)

	r.Metrics().ObserveDrain(3, 1, 1)
	r.Metrics().SetQueueDepth(4)
	r.Metrics().SetConnectionState(models.StateConnected)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, mfs, "possync_operations_total", map[string]string{"result": "success"}))
	assert.Equal(t, 1.0, counterValue(t, mfs, "possync_operations_total", map[string]string{"result": "error"}))
	assert.Equal(t, 1.0, counterValue(t, mfs, "possync_retries_total", map[string]string{"entity": "orders"}))
	assert.Equal(t, 3.0, counterValue(t, mfs, "possync_drained_items_total", map[string]string{"outcome": "success"}))
	assert.Equal(t, 0.0, gaugeValue(t, mfs, "possync_pending_operations", nil))
	assert.Equal(t, 4.0, gaugeValue(t, mfs, "possync_queue_depth", nil))
	assert.Equal(t, 1.0, gaugeValue(t, mfs, "possync_connection_state", map[string]string{"state": "connected"}))
	assert.Equal(t, 0.0, gaugeValue(t, mfs, "possync_connection_state", map[string]string{"state": "disconnected"}))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.SetPending(1)
		m.SetQueueDepth(1)
		m.IncRetry(models.EntityOrders)
		m.ObserveOperation(models.EntityOrders, models.ActionCreate, models.SyncSuccess, time.Second)
		m.ObserveDrain(1, 1, 1)
		m.SetConnectionState(models.StateConnected)
	})
	assert.Nil(t, NewMetrics(nil))
}

func findMetric(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	t.Helper()

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if matchesLabels(metric.GetLabel(), labels) {
				return metric
			}
		}
	}
	t.Fatalf("metric %q with labels %v not found", name, labels)
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, p := range pairs {
			if p.GetName() == name && p.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	return findMetric(t, mfs, name, labels).GetCounter().GetValue()
}

func gaugeValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	return findMetric(t, mfs, name, labels).GetGauge().GetValue()
}
