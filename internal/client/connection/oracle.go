// Package connection tracks reachability of the remote record store.
package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/possync/internal/client/observability"
	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/pkg/api"
)

//go:generate moq -out healthchecker_mock.go . HealthChecker

// HealthChecker performs an active reachability probe against the backend.
type HealthChecker interface {
	Health(ctx context.Context) (*api.HealthResponse, error)
}

const (
	// DefaultProbeInterval период активной проверки по умолчанию
	DefaultProbeInterval = 30 * time.Second
	// DefaultProbeTimeout таймаут одной проверки по умолчанию
	DefaultProbeTimeout = 5 * time.Second
)

// Options configures the probe loop.
type Options struct {
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

// Oracle holds the current ConnectionState. It is fed by the host
// connectivity signal (SetOnline) and by active probes (Probe, Run).
type Oracle struct {
	checker   HealthChecker
	logger    *slog.Logger
	metrics   *observability.Metrics
	listeners map[int]func(prev, next models.ConnectionState)
	state     models.ConnectionState
	opts      Options
	notifyMu  sync.Mutex
	mu        sync.RWMutex
	nextID    int
}

// NewOracle creates an oracle in the Unknown state. checker and metrics may be nil.
func NewOracle(checker HealthChecker, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Oracle {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = DefaultProbeInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}

	metrics.SetConnectionState(models.StateUnknown)

	return &Oracle{
		checker:   checker,
		logger:    logger,
		metrics:   metrics,
		listeners: make(map[int]func(prev, next models.ConnectionState)),
		state:     models.StateUnknown,
		opts:      opts,
	}
}

// State returns the current connection state
func (o *Oracle) State() models.ConnectionState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// CanSync reports whether a drain may start.
// Unknown counts as reachable: the drain itself will find out.
func (o *Oracle) CanSync() bool {
	return o.State() != models.StateDisconnected
}

// SetOnline applies the host platform connectivity signal
func (o *Oracle) SetOnline(online bool) {
	if online {
		o.set(models.StateConnected, "host")
		return
	}
	o.set(models.StateDisconnected, "host")
}

// Probe checks the backend once and returns the resulting state.
// Without a checker the current state is returned unchanged.
func (o *Oracle) Probe(ctx context.Context) models.ConnectionState {
	if o.checker == nil {
		return o.State()
	}

	probeCtx, cancel := context.WithTimeout(ctx, o.opts.ProbeTimeout)
	defer cancel()

	if _, err := o.checker.Health(probeCtx); err != nil {
		// отмена внешнего контекста ничего не говорит о доступности сервера
		if ctx.Err() != nil {
			return o.State()
		}
		o.logger.Debug("Health probe failed", "error", err)
		o.set(models.StateDisconnected, "probe")
		return models.StateDisconnected
	}

	o.set(models.StateConnected, "probe")
	return models.StateConnected
}

// Run probes immediately and then every ProbeInterval until ctx is done.
func (o *Oracle) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.opts.ProbeInterval)
	defer ticker.Stop()

	o.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			o.Probe(ctx)
		}
	}
}

// Subscribe registers fn to be called on every state change.
// The returned func unsubscribes.
func (o *Oracle) Subscribe(fn func(prev, next models.ConnectionState)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.listeners, id)
			o.mu.Unlock()
		})
	}
}

func (o *Oracle) set(next models.ConnectionState, source string) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	prev := o.state
	if prev == next {
		o.mu.Unlock()
		return
	}
	o.state = next
	listeners := make([]func(prev, next models.ConnectionState), 0, len(o.listeners))
	for _, fn := range o.listeners {
		listeners = append(listeners, fn)
	}
	o.mu.Unlock()

	o.logger.Info("Connection state changed",
		"from", prev.String(),
		"to", next.String(),
		"source", source)
	o.metrics.SetConnectionState(next)

	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("Connection listener panicked", "panic", r)
				}
			}()
			fn(prev, next)
		}()
	}
}
