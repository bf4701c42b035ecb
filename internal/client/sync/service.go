// Package sync drains the durable queue into the remote record store.
//
// The dispatcher has two states, Idle and Draining. At most one drain pass
// runs at a time; a pass works on the snapshot of the queue taken at its
// start, so items enqueued mid-pass are picked up by the next one.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	httpClient "github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/observability"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/internal/retry"
	"github.com/iudanet/possync/pkg/api"
)

var (
	// ErrDrainInProgress indicates that another drain pass is running
	ErrDrainInProgress = errors.New("drain already in progress")

	// ErrOffline indicates that the backend is known to be unreachable
	ErrOffline = errors.New("backend is unreachable")

	// ErrUnsupportedOperation indicates that a queued item has no remote operation
	ErrUnsupportedOperation = models.ErrUnsupportedOperation
)

const (
	// DefaultInterval период фоновой выгрузки по умолчанию
	DefaultInterval = 30 * time.Second
	// DefaultMaxAttempts количество неудачных проходов до переноса в dead letters
	DefaultMaxAttempts = 5
)

//go:generate moq -out recordwriter_mock.go . RecordWriter

// RecordWriter is the data-access layer the dispatcher delivers mutations to.
type RecordWriter interface {
	CreateRecord(ctx context.Context, kind models.EntityKind, id string, payload models.Payload) (*api.Record, error)
	UpdateRecord(ctx context.Context, kind models.EntityKind, id string, payload models.Payload) (*api.Record, error)
	DeleteRecord(ctx context.Context, kind models.EntityKind, id string) error
}

//go:generate moq -out gate_mock.go . Gate

// Gate reports whether a drain may start.
type Gate interface {
	CanSync() bool
}

// Options configures the dispatcher.
type Options struct {
	Retry       retry.Options // бюджет повторов одного элемента внутри прохода
	Interval    time.Duration // период фоновой выгрузки
	MaxAttempts int           // 0 - без ограничения
}

// DefaultOptions returns the background drain defaults
func DefaultOptions() Options {
	return Options{
		Retry:       retry.Background(),
		Interval:    DefaultInterval,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// DrainResult contains the outcome of one drain pass
type DrainResult struct {
	SuccessCount int // доставлено и удалено из очереди
	FailCount    int // осталось в очереди до следующего прохода
	DroppedCount int // перенесено в dead letters
}

// Service is the sync dispatcher
type Service struct {
	writer   RecordWriter
	gate     Gate
	queue    *queue.Store
	metadata storage.MetadataStorage
	recorder *observability.Recorder
	logger   *slog.Logger
	now      func() time.Time
	triggers chan string
	opts     Options
	draining atomic.Bool
}

// NewService creates a new sync dispatcher. gate and metadata may be nil.
func NewService(
	writer RecordWriter,
	q *queue.Store,
	metadata storage.MetadataStorage,
	gate Gate,
	recorder *observability.Recorder,
	opts Options,
	logger *slog.Logger,
) *Service {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Service{
		writer:   writer,
		gate:     gate,
		queue:    q,
		metadata: metadata,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		triggers: make(chan string, 1),
		opts:     opts,
	}
}

// Draining reports whether a drain pass is in flight
func (s *Service) Draining() bool {
	return s.draining.Load()
}

// Drain runs one drain pass over the current queue snapshot.
// Per-item failures are counted, not returned.
func (s *Service) Drain(ctx context.Context) (*DrainResult, error) {
	if s.gate != nil && !s.gate.CanSync() {
		return nil, ErrOffline
	}
	if !s.draining.CompareAndSwap(false, true) {
		return nil, ErrDrainInProgress
	}
	defer s.draining.Store(false)

	items, err := s.queue.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue snapshot: %w", err)
	}

	result := &DrainResult{}
	if len(items) == 0 {
		s.finishPass(ctx, result)
		return result, nil
	}

	s.logger.Info("Starting drain pass", "count", len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Drain pass interrupted", "processed", result.SuccessCount+result.FailCount+result.DroppedCount, "error", err)
			s.finishPass(context.WithoutCancel(ctx), result)
			return result, err
		}
		s.drainItem(ctx, item, result)
	}

	s.finishPass(ctx, result)

	s.logger.Info("Drain pass completed",
		"success", result.SuccessCount,
		"failed", result.FailCount,
		"dropped", result.DroppedCount)

	return result, nil
}

// drainItem доставляет один элемент и обновляет счетчики прохода
func (s *Service) drainItem(ctx context.Context, item *models.QueueItem, result *DrainResult) {
	if item.ReadErr != nil {
		// запись не читается, например домен от более новой версии клиента
		s.logger.Error("Queue item is unreadable", "key", item.Key, "error", item.ReadErr)
		s.drop(ctx, item, fmt.Sprintf("unreadable queue item: %v", item.ReadErr), result)
		return
	}

	op, err := s.resolve(item)
	if err != nil {
		// такой элемент не будет доставлен никогда
		s.logger.Error("Queue item has no remote operation",
			"key", item.Key,
			"entity", item.Kind,
			"action", item.Action,
			"error", err)
		s.drop(ctx, item, err.Error(), result)
		return
	}

	h := s.recorder.RecordAttempt(item.Action, item.Kind, item.ID)
	started := s.now()

	opts := s.opts.Retry
	opts.OnRetry = func(attempt int, err error) {
		s.recorder.RecordRetry(h, attempt, err)
		s.logger.Debug("Retrying queued mutation",
			"key", item.Key,
			"operation", op.name,
			"attempt", attempt,
			"error", err)
	}

	err = retry.Run(ctx, func(ctx context.Context) error {
		err := op.call(ctx)
		if err != nil && !httpClient.IsRetryable(err) {
			return retry.Permanent(err)
		}
		return err
	}, opts)

	if err != nil && op.createsTransaction && errors.Is(err, httpClient.ErrDuplicateTransaction) {
		// предыдущая попытка дошла до сервера, заказ уже создан
		s.logger.Info("Order already exists on server, treating as delivered",
			"key", item.Key,
			"entity_id", item.ID)
		err = nil
	}

	elapsed := s.now().Sub(started)

	if err == nil {
		s.recorder.RecordSuccess(h, elapsed)
		if rmErr := s.queue.Remove(ctx, item.Key); rmErr != nil {
			// элемент будет отправлен повторно на следующем проходе
			s.logger.Error("Failed to remove delivered item", "key", item.Key, "error", rmErr)
		}
		result.SuccessCount++
		return
	}

	s.recorder.RecordFailure(h, err, elapsed)

	if ctx.Err() != nil {
		result.FailCount++
		return
	}

	s.logger.Warn("Failed to deliver queued mutation",
		"key", item.Key,
		"operation", op.name,
		"entity_id", item.ID,
		"error", err)

	if !httpClient.IsRetryable(err) {
		s.drop(ctx, item, fmt.Sprintf("permanent error: %v", err), result)
		return
	}

	attempts, markErr := s.queue.MarkFailed(ctx, item.Key)
	if markErr != nil {
		s.logger.Error("Failed to update retry count", "key", item.Key, "error", markErr)
		result.FailCount++
		return
	}

	if s.opts.MaxAttempts > 0 && attempts >= s.opts.MaxAttempts {
		s.drop(ctx, item, fmt.Sprintf("max attempts (%d) reached: %v", s.opts.MaxAttempts, err), result)
		return
	}
	result.FailCount++
}

func (s *Service) drop(ctx context.Context, item *models.QueueItem, reason string, result *DrainResult) {
	if err := s.queue.DeadLetter(ctx, item.Key, reason); err != nil {
		s.logger.Error("Failed to dead-letter item", "key", item.Key, "error", err)
		result.FailCount++
		return
	}
	result.DroppedCount++
}

func (s *Service) finishPass(ctx context.Context, result *DrainResult) {
	metrics := s.recorder.Metrics()
	metrics.ObserveDrain(result.SuccessCount, result.FailCount, result.DroppedCount)

	if n, err := s.queue.Len(ctx); err == nil {
		metrics.SetQueueDepth(n)
	}

	if result.FailCount > 0 || s.metadata == nil {
		return
	}
	if err := s.metadata.SaveLastSyncTimestamp(ctx, s.now().Unix()); err != nil {
		s.logger.Warn("Failed to save last sync timestamp", "error", err)
	}
}

// Trigger requests a drain pass from Run. Triggers arriving while one is
// already pending are coalesced.
func (s *Service) Trigger(reason string) {
	select {
	case s.triggers <- reason:
	default:
	}
}

// OnConnectionChange triggers a drain when the backend becomes reachable again.
// Intended for connection.Oracle.Subscribe.
func (s *Service) OnConnectionChange(prev, next models.ConnectionState) {
	if prev == models.StateDisconnected && next == models.StateConnected {
		s.Trigger("reconnect")
	}
}

// Run drains on every Interval tick and on every Trigger until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runPass(ctx, "timer")
		case reason := <-s.triggers:
			s.runPass(ctx, reason)
		}
	}
}

func (s *Service) runPass(ctx context.Context, reason string) {
	result, err := s.Drain(ctx)
	switch {
	case errors.Is(err, ErrOffline), errors.Is(err, ErrDrainInProgress):
		s.logger.Debug("Drain skipped", "reason", reason, "error", err)
	case err != nil:
		s.logger.Error("Drain pass failed", "reason", reason, "error", err)
	case result.SuccessCount+result.FailCount+result.DroppedCount > 0:
		s.logger.Debug("Drain pass finished", "reason", reason)
	}
}

// PendingCount returns the number of items waiting in the queue
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	n, err := s.queue.Len(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending items: %w", err)
	}
	return n, nil
}
