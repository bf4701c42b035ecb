package storage

import (
	"context"
	"time"

	"github.com/iudanet/possync/internal/models"
)

//go:generate moq -out transactionstorage_mock.go . TransactionStorage

// TransactionStorage defines interface for the set of submitted transaction ids
type TransactionStorage interface {
	// SaveTransaction stores or overwrites a submitted transaction record
	SaveTransaction(ctx context.Context, rec *models.TransactionRecord) error

	// GetTransaction retrieves a submitted transaction record
	// Returns ErrTransactionNotFound if id was never submitted
	GetTransaction(ctx context.Context, id models.TransactionID) (*models.TransactionRecord, error)

	// DeleteTransaction removes a transaction record, no-op if absent
	DeleteTransaction(ctx context.Context, id models.TransactionID) error

	// DeleteTransactionsBefore removes records submitted before cutoff
	// Returns the number of removed records
	DeleteTransactionsBefore(ctx context.Context, cutoff time.Time) (int, error)
}
