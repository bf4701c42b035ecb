package storage

import (
	"context"
	"time"

	"github.com/iudanet/possync/internal/models"
)

//go:generate moq -out queuestorage_mock.go . QueueStorage

// QueueStorage defines interface for the durable mutation queue on client
type QueueStorage interface {
	// AppendItem assigns item.Key from a monotonic persisted sequence and stores the item
	AppendItem(ctx context.Context, item *models.QueueItem) error

	// ListItems returns all queued items ordered by key (enqueue order)
	// An unreadable record is returned as an item with only Key and ReadErr set
	ListItems(ctx context.Context) ([]*models.QueueItem, error)

	// GetItem retrieves a queue item by key
	// Returns ErrItemNotFound if item doesn't exist
	GetItem(ctx context.Context, key models.QueueKey) (*models.QueueItem, error)

	// IncrementRetry increments RetryCount of the item and returns the new value
	// Returns ErrItemNotFound if item doesn't exist
	IncrementRetry(ctx context.Context, key models.QueueKey) (int, error)

	// DeleteItem removes a queue item, no-op if absent
	DeleteItem(ctx context.Context, key models.QueueKey) error

	// ClearItems removes all queue items
	ClearItems(ctx context.Context) error

	// CountItems returns the number of queued items
	CountItems(ctx context.Context) (int, error)

	// MoveToDeadLetter atomically removes the item from the queue and stores it as a dead letter
	// Returns ErrItemNotFound if item doesn't exist
	MoveToDeadLetter(ctx context.Context, key models.QueueKey, reason string, failedAt time.Time) error

	// ListDeadLetters returns all dead letters ordered by original key
	ListDeadLetters(ctx context.Context) ([]*models.DeadLetter, error)

	// RequeueDeadLetter atomically moves the dead letter back to the tail of the queue as item
	// item.Key is assigned the same way as in AppendItem
	// Returns ErrDeadLetterNotFound if dead letter doesn't exist
	RequeueDeadLetter(ctx context.Context, key models.QueueKey, item *models.QueueItem) error

	// ClearDeadLetters removes all dead letters and returns how many were removed
	ClearDeadLetters(ctx context.Context) (int, error)
}
