package boltdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

func TestStorage_AppendAndList_Ordered(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	base := time.Now()
	// часы идут назад, порядок очереди остается порядком вставки
	first := createTestItem(base.Add(2*time.Second), "AB-1")
	second := createTestItem(base, "AB-2")
	third := createTestItem(base, "AB-3")

	for _, item := range []*models.QueueItem{first, second, third} {
		require.NoError(t, store.AppendItem(ctx, item))
		require.NotEmpty(t, item.Key)
	}

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, first.Key, items[0].Key)
	assert.Equal(t, second.Key, items[1].Key)
	assert.Equal(t, third.Key, items[2].Key)
	for _, item := range items {
		assert.NoError(t, item.ReadErr)
	}

	n, err := store.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStorage_AppendItem_OverwritesCallerKey(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	item := createTestItem(time.Now(), "AB-1")
	item.Key = "99999999999999999999-ffffffff"
	require.NoError(t, store.AppendItem(ctx, item))
	assert.NotEqual(t, models.QueueKey("99999999999999999999-ffffffff"), item.Key)

	// повторная запись того же значения дает новый элемент, а не ошибку
	require.NoError(t, store.AppendItem(ctx, item))

	n, err := store.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStorage_ListItems_UnreadableRecord(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	good := createTestItem(time.Now(), "AB-1")
	require.NoError(t, store.AppendItem(ctx, good))

	// запись неизвестного домена от более новой версии и битое значение
	future := []byte(`{"key":"x","id":"gc-1","entity_kind":"gift_cards","action":"CREATE","payload":{}}`)
	require.NoError(t, store.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketQueue)
		if err := b.Put([]byte(models.NewQueueKey(1000)), future); err != nil {
			return err
		}
		return b.Put([]byte(models.NewQueueKey(1001)), []byte("{not json"))
	}))

	other := createTestItem(time.Now(), "AB-2")
	require.NoError(t, store.AppendItem(ctx, other))

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, good.Key, items[0].Key)
	assert.NoError(t, items[0].ReadErr)
	for _, item := range items[1:3] {
		assert.Error(t, item.ReadErr)
		assert.NotEmpty(t, item.Key)
		assert.Empty(t, item.Kind)
	}
	assert.Equal(t, other.Key, items[3].Key)
	assert.NoError(t, items[3].ReadErr)

	// нечитаемый элемент можно убрать в dead letters
	require.NoError(t, store.MoveToDeadLetter(ctx, items[1].Key, "unreadable", time.Now()))
	letters, err := store.ListDeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, items[1].Key, letters[0].Item.Key)
	assert.Contains(t, letters[0].Reason, "undecodable")
}

func TestStorage_ListItems_Empty(t *testing.T) {
	store, _ := createTestStorage(t)

	items, err := store.ListItems(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestStorage_GetItem(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	item := createTestItem(time.Now(), "AB-1")
	require.NoError(t, store.AppendItem(ctx, item))

	got, err := store.GetItem(ctx, item.Key)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, err = store.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestStorage_IncrementRetry(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	item := createTestItem(time.Now(), "AB-1")
	require.NoError(t, store.AppendItem(ctx, item))

	for want := 1; want <= 3; want++ {
		n, err := store.IncrementRetry(ctx, item.Key)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	got, err := store.GetItem(ctx, item.Key)
	require.NoError(t, err)
	assert.Equal(t, 3, got.RetryCount)
	// остальные поля не меняются
	assert.Equal(t, item.ID, got.ID)
	assert.True(t, item.EnqueuedAt.Equal(got.EnqueuedAt))

	_, err = store.IncrementRetry(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestStorage_DeleteItem_Idempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	item := createTestItem(time.Now(), "AB-1")
	require.NoError(t, store.AppendItem(ctx, item))

	require.NoError(t, store.DeleteItem(ctx, item.Key))
	require.NoError(t, store.DeleteItem(ctx, item.Key))

	n, err := store.CountItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStorage_ClearItems(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	now := time.Now()
	for i := range 5 {
		require.NoError(t, store.AppendItem(ctx, createTestItem(now.Add(time.Duration(i)), "AB")))
	}

	require.NoError(t, store.ClearItems(ctx))

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	// после очистки очередь снова пригодна для записи, номера не повторяются
	last := createTestItem(now, "AB-9")
	require.NoError(t, store.AppendItem(ctx, last))
	assert.Equal(t, models.NewQueueKey(6)[:20], last.Key[:20])
}

func TestStorage_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	now := time.Now()
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AppendItem(ctx, createTestItem(now, "AB")))
		}()
	}
	wg.Wait()

	n, err := store.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	// каждой записи достался свой номер
	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	for i, item := range items {
		assert.Equal(t, models.NewQueueKey(uint64(i+1))[:20], item.Key[:20])
	}
}

func TestStorage_DeadLetters(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStorage(t)

	now := time.Now()
	item := createTestItem(now, "AB-1")
	other := createTestItem(now.Add(time.Second), "AB-2")
	require.NoError(t, store.AppendItem(ctx, item))
	require.NoError(t, store.AppendItem(ctx, other))

	failedAt := now.Add(time.Minute)
	require.NoError(t, store.MoveToDeadLetter(ctx, item.Key, "rejected: 422", failedAt))

	// из очереди ушел только один элемент
	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, other.Key, items[0].Key)

	letters, err := store.ListDeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, item.Key, letters[0].Item.Key)
	assert.Equal(t, "rejected: 422", letters[0].Reason)
	assert.True(t, failedAt.Equal(letters[0].FailedAt))

	err = store.MoveToDeadLetter(ctx, item.Key, "again", failedAt)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)

	t.Run("requeue", func(t *testing.T) {
		requeued := *letters[0].Item.Payload.(*models.OrderPayload)
		fresh := &models.QueueItem{
			ID:         item.ID,
			Kind:       item.Kind,
			Action:     item.Action,
			EnqueuedAt: now.Add(time.Hour),
			Payload:    &requeued,
		}
		require.NoError(t, store.RequeueDeadLetter(ctx, item.Key, fresh))
		// вернувшийся элемент встает в хвост очереди
		assert.Less(t, string(other.Key), string(fresh.Key))

		items, err := store.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, fresh.Key, items[1].Key)
		assert.Zero(t, items[1].RetryCount)

		err = store.RequeueDeadLetter(ctx, item.Key, fresh)
		assert.ErrorIs(t, err, storage.ErrDeadLetterNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, store.MoveToDeadLetter(ctx, other.Key, "boom", failedAt))

		n, err := store.ClearDeadLetters(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		letters, err := store.ListDeadLetters(ctx)
		require.NoError(t, err)
		assert.Empty(t, letters)
	})
}
