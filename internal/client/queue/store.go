// Package queue implements the durable mutation queue contract on top of QueueStorage.
//
// Enqueue is best-effort: it never returns an error to the caller and never panics,
// because it is usually the fallback path after a direct write already failed.
// Everything else is a plain pass-through with logging.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/internal/validation"
)

// EnqueueStatus результат постановки мутации в очередь
type EnqueueStatus struct {
	Err    error           // причина, если элемент не сохранен
	Key    models.QueueKey // ключ сохраненного элемента
	Queued bool            // true, если элемент надежно сохранен
}

// Store is the durable queue of pending mutations
type Store struct {
	storage storage.QueueStorage
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore creates a new queue store
func NewStore(st storage.QueueStorage, logger *slog.Logger) *Store {
	return &Store{
		storage: st,
		logger:  logger,
		now:     time.Now,
	}
}

// Enqueue validates the mutation and appends it to the queue.
// Failures are logged and reported through the returned status only.
func (s *Store) Enqueue(ctx context.Context, m models.Mutation) (status EnqueueStatus) {
	defer func() {
		if r := recover(); r != nil {
			status = EnqueueStatus{Err: fmt.Errorf("enqueue panicked: %v", r)}
			s.logger.Error("Enqueue panicked", "entity", m.Kind, "entity_id", m.ID, "panic", r)
		}
	}()

	if err := validation.ValidateMutation(m); err != nil {
		s.logger.Warn("Rejected invalid mutation",
			"entity", m.Kind,
			"entity_id", m.ID,
			"action", m.Action,
			"error", err)
		return EnqueueStatus{Err: err}
	}

	now := s.now()
	item := &models.QueueItem{
		ID:         m.ID,
		Kind:       m.Kind,
		Action:     m.Action,
		Payload:    m.Payload,
		EnqueuedAt: now,
	}

	// ключ выдает хранилище, порядок не зависит от часов
	if err := s.storage.AppendItem(ctx, item); err != nil {
		s.logger.Error("Failed to enqueue mutation",
			"entity", m.Kind,
			"entity_id", m.ID,
			"action", m.Action,
			"error", err)
		return EnqueueStatus{Err: err}
	}

	s.logger.Debug("Mutation enqueued",
		"key", item.Key,
		"entity", item.Kind,
		"entity_id", item.ID,
		"action", item.Action)

	return EnqueueStatus{Key: item.Key, Queued: true}
}

// List returns all pending items in enqueue order
func (s *Store) List(ctx context.Context) ([]*models.QueueItem, error) {
	items, err := s.storage.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	return items, nil
}

// Len returns the number of pending items
func (s *Store) Len(ctx context.Context) (int, error) {
	return s.storage.CountItems(ctx)
}

// Remove deletes the item with the given key. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key models.QueueKey) error {
	if err := s.storage.DeleteItem(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Clear empties the queue. Administrative action, never used by the sync flow.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.ClearItems(ctx); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	s.logger.Warn("Queue cleared")
	return nil
}

// MarkFailed increments the retry counter of the item and returns the new value
func (s *Store) MarkFailed(ctx context.Context, key models.QueueKey) (int, error) {
	n, err := s.storage.IncrementRetry(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to update retry count of %s: %w", key, err)
	}
	return n, nil
}

// DeadLetter takes the item out of drain rotation
func (s *Store) DeadLetter(ctx context.Context, key models.QueueKey, reason string) error {
	if err := s.storage.MoveToDeadLetter(ctx, key, reason, s.now()); err != nil {
		return fmt.Errorf("failed to dead-letter %s: %w", key, err)
	}
	s.logger.Warn("Queue item moved to dead letters", "key", key, "reason", reason)
	return nil
}

// DeadLetters lists items removed from rotation
func (s *Store) DeadLetters(ctx context.Context) ([]*models.DeadLetter, error) {
	letters, err := s.storage.ListDeadLetters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	return letters, nil
}

// Requeue moves a dead letter back to the queue under a fresh key with zero retries
func (s *Store) Requeue(ctx context.Context, key models.QueueKey) (*models.QueueItem, error) {
	letters, err := s.storage.ListDeadLetters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}

	var letter *models.DeadLetter
	for _, l := range letters {
		if l.Item.Key == key {
			letter = l
			break
		}
	}
	if letter == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrDeadLetterNotFound, key)
	}

	now := s.now()
	item := letter.Item
	item.EnqueuedAt = now
	item.RetryCount = 0

	if err := s.storage.RequeueDeadLetter(ctx, key, &item); err != nil {
		return nil, fmt.Errorf("failed to requeue %s: %w", key, err)
	}

	s.logger.Info("Dead letter requeued", "old_key", key, "key", item.Key, "entity", item.Kind)
	return &item, nil
}

// PurgeDeadLetters deletes all dead letters
func (s *Store) PurgeDeadLetters(ctx context.Context) (int, error) {
	n, err := s.storage.ClearDeadLetters(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dead letters: %w", err)
	}
	if n > 0 {
		s.logger.Warn("Dead letters purged", "count", n)
	}
	return n, nil
}
