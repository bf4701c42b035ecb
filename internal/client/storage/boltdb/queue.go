package boltdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

// AppendItem assigns item.Key from the persisted queue sequence and stores the item.
// Последовательность bbolt монотонна и не зависит от системных часов.
func (s *Storage) AppendItem(ctx context.Context, item *models.QueueItem) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		return s.putNext(bucket, item)
	})
}

// putNext выдает элементу следующий номер очереди и сохраняет его.
// При ошибке транзакция откатывается вместе с номером, item.Key восстанавливается.
func (s *Storage) putNext(bucket *bbolt.Bucket, item *models.QueueItem) (err error) {
	seq, err := bucket.NextSequence()
	if err != nil {
		return fmt.Errorf("failed to allocate queue sequence: %w", err)
	}

	prev := item.Key
	item.Key = models.NewQueueKey(seq)
	defer func() {
		if err != nil {
			item.Key = prev
		}
	}()

	key := []byte(item.Key)
	data, err := s.encode(key, item)
	if err != nil {
		return err
	}
	if err := bucket.Put(key, data); err != nil {
		return fmt.Errorf("failed to save queue item: %w", err)
	}
	return nil
}

// ListItems returns all queued items ordered by key.
// bbolt хранит ключи отсортированными побайтно, а формат QueueKey
// гарантирует совпадение этого порядка с порядком постановки в очередь.
//
// A record that cannot be read is returned as a placeholder carrying only Key
// and ReadErr, so one bad record does not hide the rest of the queue.
// A sealed queue opened without a passphrase is an error for the whole call.
func (s *Storage) ListItems(ctx context.Context) ([]*models.QueueItem, error) {
	items := []*models.QueueItem{}

	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			var item models.QueueItem
			if err := s.decode(k, v, &item); err != nil {
				if errors.Is(err, storage.ErrSealed) {
					return fmt.Errorf("queue item %s: %w", k, err)
				}
				items = append(items, &models.QueueItem{Key: models.QueueKey(k), ReadErr: err})
				return nil
			}
			// ключ в значении мог разойтись с ключом записи, доверяем ключу bucket
			item.Key = models.QueueKey(k)
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	return items, nil
}

// GetItem retrieves a queue item by key
func (s *Storage) GetItem(ctx context.Context, key models.QueueKey) (*models.QueueItem, error) {
	var item *models.QueueItem

	err := s.view(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketQueue).Get([]byte(key))
		if data == nil {
			return storage.ErrItemNotFound
		}
		item = &models.QueueItem{}
		return s.decode([]byte(key), data, item)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// IncrementRetry increments RetryCount of the item and returns the new value
func (s *Storage) IncrementRetry(ctx context.Context, key models.QueueKey) (int, error) {
	var count int

	err := s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		k := []byte(key)

		data := bucket.Get(k)
		if data == nil {
			return storage.ErrItemNotFound
		}

		var item models.QueueItem
		if err := s.decode(k, data, &item); err != nil {
			return err
		}

		// единственное поле, которое меняется у сохраненного элемента
		item.RetryCount++
		count = item.RetryCount

		updated, err := s.encode(k, &item)
		if err != nil {
			return err
		}
		return bucket.Put(k, updated)
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteItem removes a queue item, no-op if absent
func (s *Storage) DeleteItem(ctx context.Context, key models.QueueKey) error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketQueue).Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete queue item: %w", err)
		}
		return nil
	})
}

// ClearItems removes all queue items
func (s *Storage) ClearItems(ctx context.Context) error {
	return s.update(func(tx *bbolt.Tx) error {
		return recreateBucket(tx, bucketQueue)
	})
}

// CountItems returns the number of queued items
func (s *Storage) CountItems(ctx context.Context) (int, error) {
	var n int
	err := s.view(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketQueue).Stats().KeyN
		return nil
	})
	return n, err
}

// MoveToDeadLetter atomically removes the item from the queue and stores it as a dead letter
func (s *Storage) MoveToDeadLetter(ctx context.Context, key models.QueueKey, reason string, failedAt time.Time) error {
	return s.update(func(tx *bbolt.Tx) error {
		queue := tx.Bucket(bucketQueue)
		k := []byte(key)

		data := queue.Get(k)
		if data == nil {
			return storage.ErrItemNotFound
		}

		var item models.QueueItem
		if err := s.decode(k, data, &item); err != nil {
			// нечитаемый элемент все равно нужно убрать из ротации
			item = models.QueueItem{Key: key}
			reason = fmt.Sprintf("%s (undecodable: %v)", reason, err)
		}

		letter := models.DeadLetter{Item: item, Reason: reason, FailedAt: failedAt}
		encoded, err := s.encode(k, &letter)
		if err != nil {
			return err
		}

		if err := tx.Bucket(bucketDeadLetters).Put(k, encoded); err != nil {
			return fmt.Errorf("failed to save dead letter: %w", err)
		}
		return queue.Delete(k)
	})
}

// ListDeadLetters returns all dead letters ordered by original key
func (s *Storage) ListDeadLetters(ctx context.Context) ([]*models.DeadLetter, error) {
	letters := []*models.DeadLetter{}

	err := s.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDeadLetters).ForEach(func(k, v []byte) error {
			var letter models.DeadLetter
			if err := s.decode(k, v, &letter); err != nil {
				return fmt.Errorf("dead letter %s: %w", k, err)
			}
			letters = append(letters, &letter)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}

	return letters, nil
}

// RequeueDeadLetter atomically moves the dead letter back to the tail of the queue as item.
// item.Key is assigned from the queue sequence like in AppendItem.
func (s *Storage) RequeueDeadLetter(ctx context.Context, key models.QueueKey, item *models.QueueItem) error {
	return s.update(func(tx *bbolt.Tx) error {
		dead := tx.Bucket(bucketDeadLetters)

		if dead.Get([]byte(key)) == nil {
			return storage.ErrDeadLetterNotFound
		}
		if err := s.putNext(tx.Bucket(bucketQueue), item); err != nil {
			return err
		}
		return dead.Delete([]byte(key))
	})
}

// ClearDeadLetters removes all dead letters and returns how many were removed
func (s *Storage) ClearDeadLetters(ctx context.Context) (int, error) {
	var n int
	err := s.update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketDeadLetters).Stats().KeyN
		return recreateBucket(tx, bucketDeadLetters)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// recreateBucket очищает bucket удалением и повторным созданием.
// Последовательность переносится в новый bucket, чтобы номера не повторялись.
func recreateBucket(tx *bbolt.Tx, name []byte) error {
	var seq uint64
	if b := tx.Bucket(name); b != nil {
		seq = b.Sequence()
	}
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return fmt.Errorf("failed to delete %s bucket: %w", name, err)
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return fmt.Errorf("failed to create %s bucket: %w", name, err)
	}
	if err := b.SetSequence(seq); err != nil {
		return fmt.Errorf("failed to restore %s sequence: %w", name, err)
	}
	return nil
}
