// Package data is the entry point for callers that write to the record store.
//
// Write tries the backend directly through the retry engine and falls back to the
// durable queue on transient failure. FinalizeOrder wraps order creation in the
// idempotency guard so a retried checkout never creates a second order.
package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpClient "github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/idempotency"
	"github.com/iudanet/possync/internal/client/observability"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/internal/retry"
	"github.com/iudanet/possync/internal/validation"
	"github.com/iudanet/possync/pkg/api"
)

// ErrNotPersisted returned when a write neither reached the backend nor the queue
var ErrNotPersisted = errors.New("mutation was not delivered and could not be queued")

//go:generate moq -out recordwriter_mock.go . RecordWriter

// RecordWriter is the remote data-access layer.
type RecordWriter interface {
	CreateRecord(ctx context.Context, kind models.EntityKind, id string, payload models.Payload) (*api.Record, error)
	UpdateRecord(ctx context.Context, kind models.EntityKind, id string, payload models.Payload) (*api.Record, error)
	DeleteRecord(ctx context.Context, kind models.EntityKind, id string) error
}

//go:generate moq -out gate_mock.go . Gate

// Gate reports whether the backend is worth calling right now.
type Gate interface {
	CanSync() bool
}

// Options настройки повторов прямой записи и оформления заказа
type Options struct {
	Write    retry.Options
	Checkout retry.Options
}

// DefaultOptions returns foreground retry budgets for both paths
func DefaultOptions() Options {
	return Options{Write: retry.Foreground(), Checkout: retry.Foreground()}
}

// WriteResult describes where a mutation ended up
type WriteResult struct {
	Record    *api.Record     // ответ сервера, если запись доставлена
	Key       models.QueueKey // ключ в очереди, если запись отложена
	Delivered bool
	Queued    bool
}

// CheckoutResult describes a finalized order
type CheckoutResult struct {
	Record        *api.Record
	TransactionID models.TransactionID
	Queued        bool // заказ сохранен в очереди и будет отправлен при появлении связи
}

// Service implements direct writes and checkout finalization
type Service struct {
	writer   RecordWriter
	gate     Gate
	queue    *queue.Store
	guard    *idempotency.Guard
	recorder *observability.Recorder
	logger   *slog.Logger
	now      func() time.Time
	opts     Options
}

// NewService creates a new data service. gate may be nil.
func NewService(
	writer RecordWriter,
	q *queue.Store,
	guard *idempotency.Guard,
	gate Gate,
	recorder *observability.Recorder,
	opts Options,
	logger *slog.Logger,
) *Service {
	return &Service{
		writer:   writer,
		gate:     gate,
		queue:    q,
		guard:    guard,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		opts:     opts,
	}
}

// Write delivers m to the backend. Transient failures and a known-offline
// backend send m to the durable queue instead; permanent rejections are returned.
func (s *Service) Write(ctx context.Context, m models.Mutation) (*WriteResult, error) {
	if err := validation.ValidateMutation(m); err != nil {
		return nil, err
	}

	if s.offline() {
		s.logger.Debug("Backend offline, queueing mutation", "entity", m.Kind, "entity_id", m.ID)
		return s.fallback(ctx, m, nil)
	}

	rec, err := s.deliver(ctx, m, s.opts.Write, nil)
	if err == nil {
		return &WriteResult{Record: rec, Delivered: true}, nil
	}

	if !httpClient.IsRetryable(err) {
		return nil, err
	}
	return s.fallback(ctx, m, err)
}

// FinalizeOrder creates order under txID at most once.
// A second call with an id that was already submitted returns idempotency.ErrAlreadyProcessed
// without a network call. onRetry, if set, is called before every automatic retry.
func (s *Service) FinalizeOrder(
	ctx context.Context,
	txID models.TransactionID,
	order *models.OrderPayload,
	onRetry func(attempt int, err error),
) (*CheckoutResult, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: order is required", validation.ErrInvalidPayload)
	}

	// заказ отправляется с тем же id при каждом повторе
	payload := *order
	payload.TransactionID = txID
	m := models.Mutation{
		ID:      string(txID),
		Kind:    models.EntityOrders,
		Action:  models.ActionCreate,
		Payload: &payload,
	}

	result := &CheckoutResult{TransactionID: txID}

	err := s.guard.Submit(ctx, txID, func(ctx context.Context) error {
		if err := validation.ValidateMutation(m); err != nil {
			return err
		}

		if s.offline() {
			status := s.queue.Enqueue(ctx, m)
			if !status.Queued {
				return fmt.Errorf("%w: %w", ErrNotPersisted, status.Err)
			}
			result.Queued = true
			s.logger.Info("Order queued for later delivery", "transaction_id", txID, "key", status.Key)
			return nil
		}

		rec, err := s.deliver(ctx, m, s.opts.Checkout, onRetry)
		if errors.Is(err, httpClient.ErrDuplicateTransaction) {
			// прошлая попытка дошла до сервера, но ответ был потерян
			s.logger.Info("Order already exists on server", "transaction_id", txID)
			return nil
		}
		if err != nil {
			return err
		}
		result.Record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deliver выполняет запись через retry с записью в журнал наблюдаемости
func (s *Service) deliver(
	ctx context.Context,
	m models.Mutation,
	opts retry.Options,
	onRetry func(attempt int, err error),
) (*api.Record, error) {
	h := s.recorder.RecordAttempt(m.Action, m.Kind, m.ID)
	started := s.now()

	opts.OnRetry = func(attempt int, err error) {
		s.recorder.RecordRetry(h, attempt, err)
		s.logger.Debug("Retrying write",
			"entity", m.Kind,
			"entity_id", m.ID,
			"attempt", attempt,
			"error", err)
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}

	rec, err := retry.Do(ctx, func(ctx context.Context) (*api.Record, error) {
		rec, err := s.call(ctx, m)
		if err != nil && !httpClient.IsRetryable(err) {
			return nil, retry.Permanent(err)
		}
		return rec, err
	}, opts)

	elapsed := s.now().Sub(started)
	if err != nil {
		s.recorder.RecordFailure(h, err, elapsed)
		return nil, err
	}
	s.recorder.RecordSuccess(h, elapsed)
	return rec, nil
}

func (s *Service) call(ctx context.Context, m models.Mutation) (*api.Record, error) {
	switch m.Action {
	case models.ActionCreate:
		return s.writer.CreateRecord(ctx, m.Kind, m.ID, m.Payload)
	case models.ActionUpdate:
		return s.writer.UpdateRecord(ctx, m.Kind, m.ID, m.Payload)
	case models.ActionDelete:
		return nil, s.writer.DeleteRecord(ctx, m.Kind, m.ID)
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownAction, m.Action)
}

func (s *Service) fallback(ctx context.Context, m models.Mutation, cause error) (*WriteResult, error) {
	status := s.queue.Enqueue(ctx, m)
	if !status.Queued {
		if cause != nil {
			return nil, fmt.Errorf("%w: %w (queue: %w)", ErrNotPersisted, cause, status.Err)
		}
		return nil, fmt.Errorf("%w: %w", ErrNotPersisted, status.Err)
	}

	if cause != nil {
		s.logger.Warn("Write failed, mutation queued",
			"entity", m.Kind,
			"entity_id", m.ID,
			"key", status.Key,
			"error", cause)
	}
	return &WriteResult{Key: status.Key, Queued: true}, nil
}

func (s *Service) offline() bool {
	return s.gate != nil && !s.gate.CanSync()
}
