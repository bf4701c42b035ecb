// Package retry реализует повтор асинхронных операций с экспоненциальной задержкой.
//
// Пакет не содержит политики: какие ошибки повторять, решает вызывающий код.
// Операция может прервать повторы, вернув ошибку, обернутую в Permanent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Options параметры повторов
type Options struct {
	// OnRetry вызывается перед каждым повтором с номером повтора (1..MaxRetries) и последней ошибкой
	OnRetry func(attempt int, err error)

	MaxRetries int           // количество повторов; всего попыток MaxRetries+1
	BaseDelay  time.Duration // задержка перед первым повтором
	MaxDelay   time.Duration // верхняя граница задержки, 0 - без ограничения
	Jitter     float64       // доля случайного разброса задержки (0.25 = ±25%), 0 - без разброса
}

// Foreground параметры для интерактивных операций (оформление заказа)
func Foreground() Options {
	return Options{MaxRetries: 2, BaseDelay: time.Second}
}

// Background параметры для фоновой выгрузки очереди.
// Сама очередь повторяет отправку на каждом проходе, поэтому повторов мало.
func Background() Options {
	return Options{MaxRetries: 1, BaseDelay: 500 * time.Millisecond}
}

// sleep ожидает d или отмены контекста. Подменяется в тестах.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Delay возвращает задержку перед повтором с номером attempt (начиная с 1):
// BaseDelay * 2^(attempt-1), ограниченную MaxDelay, с разбросом Jitter.
func Delay(attempt int, opts Options) time.Duration {
	if attempt < 1 || opts.BaseDelay <= 0 {
		return 0
	}

	delay := opts.BaseDelay
	for i := 1; i < attempt; i++ {
		if opts.MaxDelay > 0 && delay >= opts.MaxDelay {
			break
		}
		if delay > math.MaxInt64/2 {
			delay = math.MaxInt64
			break
		}
		delay *= 2
	}
	if opts.MaxDelay > 0 && delay > opts.MaxDelay {
		delay = opts.MaxDelay
	}

	if opts.Jitter > 0 {
		spread := float64(delay) * opts.Jitter
		delay += time.Duration((rand.Float64()*2 - 1) * spread)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// MaxWait возвращает наибольшее суммарное время ожидания без учета разброса
func MaxWait(opts Options) time.Duration {
	noJitter := opts
	noJitter.Jitter = 0

	var total time.Duration
	for i := 1; i <= opts.MaxRetries; i++ {
		total += Delay(i, noJitter)
	}
	return total
}

// Do выполняет op до MaxRetries+1 раз.
// При исчерпании попыток возвращает последнюю ошибку операции.
// При отмене ctx во время ожидания возвращает ошибку, содержащую и ctx.Err(), и последнюю ошибку.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) (T, error) {
	var zero T
	maxRetries := max(opts.MaxRetries, 0)

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}

		if attempt > maxRetries {
			return zero, err
		}

		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}

		if serr := sleep(ctx, Delay(attempt, opts)); serr != nil {
			return zero, fmt.Errorf("retry aborted after %d attempts: %w: %w", attempt, serr, err)
		}
	}
}

// Run то же, что Do, для операций без результата
func Run(ctx context.Context, op func(context.Context) error, opts Options) error {
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts)
	return err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как не подлежащую повтору.
// Do вернет исходную ошибку без обертки.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent сообщает, помечена ли ошибка через Permanent
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}
