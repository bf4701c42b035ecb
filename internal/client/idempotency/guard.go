// Package idempotency prevents a checkout from creating two financial records.
//
// A transaction id is generated once per logical checkout attempt and reused
// across retries. Submit runs check, write and mark as one critical section per id.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

var (
	// ErrAlreadyProcessed returned when the transaction id was already submitted
	ErrAlreadyProcessed = errors.New("transaction already processed")

	// ErrInvalidTransactionID returned for ids not produced by GenerateTransactionID
	ErrInvalidTransactionID = errors.New("invalid transaction id")
)

// DefaultRetention время хранения отметок об отправке
const DefaultRetention = 24 * time.Hour

// GenerateTransactionID returns a new id independent of payload content.
// UUIDv7 keeps ids roughly time-ordered, which makes the transactions bucket easy to scan.
func GenerateTransactionID() models.TransactionID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 падает только при отказе источника случайности
		id = uuid.New()
	}
	return models.TransactionID(models.TransactionIDPrefix + id.String())
}

// Guard tracks submitted transaction ids
type Guard struct {
	storage   storage.TransactionStorage
	logger    *slog.Logger
	locks     *keyedMutex
	now       func() time.Time
	retention time.Duration
}

// NewGuard creates a guard. Zero retention keeps ids forever.
func NewGuard(st storage.TransactionStorage, retention time.Duration, logger *slog.Logger) *Guard {
	return &Guard{
		storage:   st,
		logger:    logger,
		locks:     newKeyedMutex(),
		now:       time.Now,
		retention: retention,
	}
}

// IsSubmitted reports whether MarkSubmitted was called for id within the retention window
func (g *Guard) IsSubmitted(ctx context.Context, id models.TransactionID) (bool, error) {
	rec, err := g.storage.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrTransactionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check transaction %s: %w", id, err)
	}
	return !rec.Expired(g.now(), g.retention), nil
}

// MarkSubmitted records id as submitted. Marking twice is harmless.
func (g *Guard) MarkSubmitted(ctx context.Context, id models.TransactionID) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTransactionID, id)
	}

	submitted, err := g.IsSubmitted(ctx, id)
	if err == nil && submitted {
		return nil
	}

	rec := &models.TransactionRecord{ID: id, SubmittedAt: g.now()}
	if err := g.storage.SaveTransaction(ctx, rec); err != nil {
		return fmt.Errorf("failed to mark transaction %s: %w", id, err)
	}
	return nil
}

// Submit runs fn unless id was already submitted, then marks id.
// Concurrent calls with the same id are serialized, so only one of them runs fn.
// A storage error on the check aborts the submission (fail closed).
func (g *Guard) Submit(ctx context.Context, id models.TransactionID, fn func(ctx context.Context) error) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTransactionID, id)
	}

	unlock := g.locks.Lock(string(id))
	defer unlock()

	submitted, err := g.IsSubmitted(ctx, id)
	if err != nil {
		return err
	}
	if submitted {
		g.logger.Info("Duplicate submission refused", "transaction_id", id)
		return fmt.Errorf("%w: %s", ErrAlreadyProcessed, id)
	}

	if err := fn(ctx); err != nil {
		return err
	}

	// запись на бэкенде уже создана, поэтому ошибку отметки не возвращаем:
	// повтор с тем же id отсечет уникальный индекс сервера
	if err := g.MarkSubmitted(ctx, id); err != nil {
		g.logger.Error("Failed to mark transaction submitted", "transaction_id", id, "error", err)
	}
	return nil
}

// Forget removes the submission mark of id
func (g *Guard) Forget(ctx context.Context, id models.TransactionID) error {
	if err := g.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("failed to forget transaction %s: %w", id, err)
	}
	return nil
}

// Sweep removes marks older than the retention window
func (g *Guard) Sweep(ctx context.Context) (int, error) {
	if g.retention <= 0 {
		return 0, nil
	}

	n, err := g.storage.DeleteTransactionsBefore(ctx, g.now().Add(-g.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		g.logger.Info("Expired transaction marks removed", "count", n)
	}
	return n, nil
}
