package observability

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/models"
)

func testEntry(id string, status models.SyncStatus, entity models.EntityKind) models.SyncLogEntry {
	return models.SyncLogEntry{
		ID:        id,
		Timestamp: time.Now(),
		Operation: models.ActionCreate,
		Entity:    entity,
		Status:    status,
	}
}

func TestLog_EvictsOldest(t *testing.T) {
	l := NewLog(3)

	for i := 1; i <= 5; i++ {
		l.append(testEntry(fmt.Sprint(i), models.SyncSuccess, models.EntityOrders))
	}

	entries := l.Entries()
	require.Len(t, entries, 3)
	// новые первыми
	assert.Equal(t, "5", entries[0].ID)
	assert.Equal(t, "4", entries[1].ID)
	assert.Equal(t, "3", entries[2].ID)
}

func TestLog_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultLogCapacity, NewLog(0).Capacity())
}

func TestLog_Queries(t *testing.T) {
	l := NewLog(10)
	l.append(testEntry("a", models.SyncSuccess, models.EntityOrders))
	l.append(testEntry("b", models.SyncError, models.EntityCustomers))
	l.append(testEntry("c", models.SyncError, models.EntityOrders))
	l.append(testEntry("d", models.SyncPending, models.EntityInventory))

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "d", recent[0].ID)
	assert.Equal(t, "c", recent[1].ID)
	assert.Empty(t, l.Recent(0))

	errs := l.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, "c", errs[0].ID)

	orders := l.ForEntity(models.EntityOrders)
	require.Len(t, orders, 2)
	assert.Equal(t, "c", orders[0].ID)
	assert.Equal(t, "a", orders[1].ID)

	l.Clear()
	assert.Empty(t, l.Entries())
}

func TestLog_Update(t *testing.T) {
	l := NewLog(2)
	l.append(testEntry("a", models.SyncPending, models.EntityOrders))

	ok := l.update("a", func(e *models.SyncLogEntry) { e.Status = models.SyncSuccess })
	require.True(t, ok)
	assert.Equal(t, models.SyncSuccess, l.Entries()[0].Status)

	l.append(testEntry("b", models.SyncPending, models.EntityOrders))
	l.append(testEntry("c", models.SyncPending, models.EntityOrders))
	assert.False(t, l.update("a", func(e *models.SyncLogEntry) {}))
}

func TestLog_Stats(t *testing.T) {
	l := NewLog(10)
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	add := func(id string, status models.SyncStatus, offset time.Duration) {
		e := testEntry(id, status, models.EntityOrders)
		e.Timestamp = base.Add(offset)
		l.append(e)
	}
	add("1", models.SyncSuccess, time.Minute)
	add("2", models.SyncError, 2*time.Minute)
	add("3", models.SyncSuccess, 3*time.Minute)
	add("4", models.SyncPending, 4*time.Minute)
	add("5", models.SyncRetrying, 5*time.Minute)

	stats := l.Stats()
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Success)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 2, stats.Pending)
	require.NotNil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastError)
	assert.True(t, stats.LastSuccess.Equal(base.Add(3*time.Minute)))
	assert.True(t, stats.LastError.Equal(base.Add(2*time.Minute)))

	empty := NewLog(1).Stats()
	assert.Zero(t, empty.Total)
	assert.Nil(t, empty.LastError)
}

func TestLog_Subscribe(t *testing.T) {
	l := NewLog(5)

	var calls int
	var lastLen int
	unsubscribe := l.Subscribe(func(entries []models.SyncLogEntry) {
		calls++
		lastLen = len(entries)
	})

	l.append(testEntry("a", models.SyncPending, models.EntityOrders))
	l.append(testEntry("b", models.SyncPending, models.EntityOrders))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, lastLen)

	unsubscribe()
	l.Clear()
	assert.Equal(t, 2, calls)
}
