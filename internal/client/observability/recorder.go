// Package observability records sync attempts for diagnostics and UI indicators.
//
// It is purely additive: nothing here returns errors or panics into the caller,
// and removing the recorder must not change what gets delivered.
package observability

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/possync/internal/models"
)

// Handle identifies one recorded attempt.
// Only the first terminal transition has an effect.
type Handle struct {
	started time.Time
	entry   models.SyncLogEntry
	mu      sync.Mutex
	epoch   uint64
	done    atomic.Bool
}

// ID returns the log entry id of the attempt
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.entry.ID
}

// Started returns when the attempt began
func (h *Handle) Started() time.Time {
	if h == nil {
		return time.Time{}
	}
	return h.started
}

// Recorder owns the operation log, the pending counter and metrics.
// Create one per process and pass it to components explicitly.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	log     *Log
	pending *PendingCounter
	metrics *Metrics
	onError func(models.SyncLogEntry)
	now     func() time.Time
	mu      sync.RWMutex
}

// NewRecorder creates a recorder. metrics may be nil.
func NewRecorder(capacity int, metrics *Metrics) *Recorder {
	r := &Recorder{
		log:     NewLog(capacity),
		pending: NewPendingCounter(),
		metrics: metrics,
		now:     time.Now,
	}
	r.pending.Subscribe(metrics.SetPending)
	return r
}

// Log returns the underlying operation log, nil for a nil recorder
func (r *Recorder) Log() *Log {
	if r == nil {
		return nil
	}
	return r.log
}

// Pending returns the pending operations counter, nil for a nil recorder
func (r *Recorder) Pending() *PendingCounter {
	if r == nil {
		return nil
	}
	return r.pending
}

// Metrics returns the Prometheus metrics, possibly nil
func (r *Recorder) Metrics() *Metrics {
	if r == nil {
		return nil
	}
	return r.metrics
}

// RecordAttempt appends a Pending entry and increments the pending counter
func (r *Recorder) RecordAttempt(op models.Action, entity models.EntityKind, entityID string) *Handle {
	if r == nil {
		return nil
	}

	now := r.now()
	h := &Handle{
		started: now,
		entry: models.SyncLogEntry{
			ID:        uuid.NewString(),
			Timestamp: now,
			Operation: op,
			Entity:    entity,
			EntityID:  entityID,
			Status:    models.SyncPending,
		},
	}

	r.log.append(h.entry)
	h.epoch = r.pending.Acquire()
	return h
}

// RecordRetry moves the entry to Retrying with the retry number
func (r *Recorder) RecordRetry(h *Handle, attempt int, err error) {
	if r == nil || h == nil || h.done.Load() {
		return
	}

	h.mu.Lock()
	h.entry.Status = models.SyncRetrying
	h.entry.RetryCount = attempt
	if err != nil {
		h.entry.ErrorCode = errorCode(err)
	}
	entry := h.entry
	h.mu.Unlock()

	r.log.update(entry.ID, func(e *models.SyncLogEntry) {
		e.Status = entry.Status
		e.RetryCount = entry.RetryCount
	})
	r.metrics.IncRetry(entry.Entity)
}

// RecordSuccess terminates the attempt with Success
func (r *Recorder) RecordSuccess(h *Handle, d time.Duration) {
	r.finish(h, models.SyncSuccess, nil, d)
}

// RecordFailure terminates the attempt with Error
func (r *Recorder) RecordFailure(h *Handle, err error, d time.Duration) {
	if err == nil {
		err = errors.New("unknown error")
	}
	r.finish(h, models.SyncError, err, d)
}

func (r *Recorder) finish(h *Handle, status models.SyncStatus, err error, d time.Duration) {
	if r == nil || h == nil || !h.done.CompareAndSwap(false, true) {
		return
	}

	h.mu.Lock()
	h.entry.Status = status
	h.entry.DurationMs = d.Milliseconds()
	if err != nil {
		h.entry.Error = err.Error()
		h.entry.ErrorCode = errorCode(err)
	} else {
		h.entry.Error = ""
		h.entry.ErrorCode = ""
	}
	entry := h.entry
	h.mu.Unlock()

	updated := r.log.update(entry.ID, func(e *models.SyncLogEntry) { *e = entry })
	if !updated {
		// запись успели вытеснить, итог все равно должен попасть в журнал
		r.log.append(entry)
	}

	// попытки, начатые до Reset, уже списаны со счетчика
	r.pending.Release(h.epoch)
	r.metrics.ObserveOperation(entry.Entity, entry.Operation, status, d)

	if status == models.SyncError {
		r.mu.RLock()
		cb := r.onError
		r.mu.RUnlock()
		if cb != nil {
			safeCall(func() { cb(entry) })
		}
	}
}

// Stats returns aggregates over the current log contents
func (r *Recorder) Stats() models.Stats {
	if r == nil {
		return models.Stats{}
	}
	return r.log.Stats()
}

// Entries returns all log entries, newest first
func (r *Recorder) Entries() []models.SyncLogEntry {
	if r == nil {
		return nil
	}
	return r.log.Entries()
}

// Recent returns at most n newest entries
func (r *Recorder) Recent(n int) []models.SyncLogEntry {
	if r == nil {
		return nil
	}
	return r.log.Recent(n)
}

// Errors returns failed entries, newest first
func (r *Recorder) Errors() []models.SyncLogEntry {
	if r == nil {
		return nil
	}
	return r.log.Errors()
}

// ForEntity returns entries of one entity kind
func (r *Recorder) ForEntity(kind models.EntityKind) []models.SyncLogEntry {
	if r == nil {
		return nil
	}
	return r.log.ForEntity(kind)
}

// Clear empties the log, the pending counter is left as is
func (r *Recorder) Clear() {
	if r == nil {
		return
	}
	r.log.Clear()
}

// Subscribe registers a pending counter listener, called immediately and on every change
func (r *Recorder) Subscribe(fn func(int)) (unsubscribe func()) {
	if r == nil {
		return func() {}
	}
	return r.pending.Subscribe(fn)
}

// SubscribeLog registers a log listener
func (r *Recorder) SubscribeLog(fn func([]models.SyncLogEntry)) (unsubscribe func()) {
	if r == nil {
		return func() {}
	}
	return r.log.Subscribe(fn)
}

// OnError sets a callback invoked for every attempt that terminates with Error
func (r *Recorder) OnError(fn func(models.SyncLogEntry)) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
}

// Reset clears the log and the pending counter.
// Attempts still in flight finish normally but no longer count as pending.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.log.Clear()
	r.pending.Reset()
}

// errorCode извлекает код ошибки бэкенда, если ошибка его несет
func errorCode(err error) string {
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}
