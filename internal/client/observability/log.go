package observability

import (
	"sync"

	"github.com/iudanet/possync/internal/models"
)

// DefaultLogCapacity размер журнала по умолчанию
const DefaultLogCapacity = 100

// Log is a bounded in-memory log of sync attempts.
// Once capacity is reached the oldest entry is evicted.
type Log struct {
	listeners map[int]func([]models.SyncLogEntry)
	entries   []models.SyncLogEntry // от старых к новым
	mu        sync.RWMutex
	capacity  int
	nextID    int
}

// NewLog creates a log holding at most capacity entries
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &Log{
		listeners: make(map[int]func([]models.SyncLogEntry)),
		entries:   make([]models.SyncLogEntry, 0, capacity),
		capacity:  capacity,
	}
}

// Capacity returns the maximum number of entries
func (l *Log) Capacity() int {
	return l.capacity
}

// append добавляет запись, вытесняя самую старую при переполнении
func (l *Log) append(e models.SyncLogEntry) {
	l.mu.Lock()
	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	l.notify()
}

// update изменяет запись с данным ID на месте.
// Возвращает false, если запись уже вытеснена.
func (l *Log) update(id string, fn func(*models.SyncLogEntry)) bool {
	l.mu.Lock()
	found := false
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].ID == id {
			fn(&l.entries[i])
			found = true
			break
		}
	}
	l.mu.Unlock()

	if found {
		l.notify()
	}
	return found
}

// Entries returns a copy of all entries, newest first
func (l *Log) Entries() []models.SyncLogEntry {
	return l.filter(0, func(models.SyncLogEntry) bool { return true })
}

// Recent returns at most n newest entries
func (l *Log) Recent(n int) []models.SyncLogEntry {
	if n <= 0 {
		return []models.SyncLogEntry{}
	}
	return l.filter(n, func(models.SyncLogEntry) bool { return true })
}

// Errors returns entries that terminated with an error, newest first
func (l *Log) Errors() []models.SyncLogEntry {
	return l.filter(0, func(e models.SyncLogEntry) bool { return e.Status == models.SyncError })
}

// ForEntity returns entries of one entity kind, newest first
func (l *Log) ForEntity(kind models.EntityKind) []models.SyncLogEntry {
	return l.filter(0, func(e models.SyncLogEntry) bool { return e.Entity == kind })
}

// Clear removes all entries
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()

	l.notify()
}

// Stats aggregates the current log contents
func (l *Log) Stats() models.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := models.Stats{Total: len(l.entries)}
	for i := range l.entries {
		e := &l.entries[i]
		switch e.Status {
		case models.SyncSuccess:
			stats.Success++
			if stats.LastSuccess == nil || e.Timestamp.After(*stats.LastSuccess) {
				ts := e.Timestamp
				stats.LastSuccess = &ts
			}
		case models.SyncError:
			stats.Errors++
			if stats.LastError == nil || e.Timestamp.After(*stats.LastError) {
				ts := e.Timestamp
				stats.LastError = &ts
			}
		case models.SyncPending, models.SyncRetrying:
			stats.Pending++
		}
	}
	return stats
}

// Subscribe registers fn to be called with all entries (newest first) after every change
func (l *Log) Subscribe(fn func([]models.SyncLogEntry)) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.listeners, id)
			l.mu.Unlock()
		})
	}
}

func (l *Log) filter(limit int, keep func(models.SyncLogEntry) bool) []models.SyncLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.SyncLogEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		if keep(l.entries[i]) {
			out = append(out, l.entries[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

func (l *Log) notify() {
	l.mu.RLock()
	if len(l.listeners) == 0 {
		l.mu.RUnlock()
		return
	}
	listeners := make([]func([]models.SyncLogEntry), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	l.mu.RUnlock()

	snapshot := l.Entries()
	for _, fn := range listeners {
		safeCall(func() { fn(snapshot) })
	}
}
