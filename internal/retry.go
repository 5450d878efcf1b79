package internal

import (
	"context"
	"errors"
	"net"
	"time"
)

const (
	// DefaultMaxRetries is the retry budget used when none is configured.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the first backoff delay; it doubles on each retry.
	DefaultBaseDelay = time.Second

	maxBackoffShift = 30
)

// RetryEvent describes a failed attempt that is about to be retried.
type RetryEvent struct {
	Attempt    int // 1-based number of the retry about to run
	MaxRetries int
	Delay      time.Duration
	Err        error
}

// RetryObserver is notified before each backoff wait. It is informational
// only and cannot change whether the retry happens.
type RetryObserver interface {
	OnRetry(event RetryEvent)
}

// RetryObserverFunc adapts a function to RetryObserver.
type RetryObserverFunc func(event RetryEvent)

// OnRetry calls f(event).
func (f RetryObserverFunc) OnRetry(event RetryEvent) {
	f(event)
}

// ChannelObserver queues retry events on a bounded channel. Events are
// dropped when the buffer is full so a slow consumer never stalls a retry.
type ChannelObserver struct {
	events chan RetryEvent
}

// NewChannelObserver creates an observer with room for size pending events.
func NewChannelObserver(size int) *ChannelObserver {
	if size <= 0 {
		size = 1
	}
	return &ChannelObserver{events: make(chan RetryEvent, size)}
}

// OnRetry enqueues the event unless the buffer is full.
func (o *ChannelObserver) OnRetry(event RetryEvent) {
	select {
	case o.events <- event:
	default:
		LogDebug("retry event dropped (attempt %d/%d)", event.Attempt, event.MaxRetries)
	}
}

// Events returns the receive side of the queue.
func (o *ChannelObserver) Events() <-chan RetryEvent {
	return o.events
}

// RetryConfig controls Retry. The zero value performs a single attempt.
type RetryConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	IsRetryable func(err error) bool
	Observer    RetryObserver
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig returns 3 retries starting at one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  DefaultMaxRetries,
		BaseDelay:   DefaultBaseDelay,
		IsRetryable: DefaultIsRetryable,
	}
}

// Retry runs op until it succeeds, the retry budget is spent, or a failure
// is not retryable. Attempts are strictly sequential and total at most
// MaxRetries+1. The error returned is the last attempt's error, unchanged;
// if ctx ends during a backoff wait the context error is returned instead.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	isRetryable := cfg.IsRetryable
	if isRetryable == nil {
		isRetryable = DefaultIsRetryable
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if attempt >= maxRetries || !isRetryable(err) {
			return zero, err
		}

		delay := Backoff(cfg.BaseDelay, attempt)
		notifyRetry(cfg.Observer, RetryEvent{
			Attempt:    attempt + 1,
			MaxRetries: maxRetries,
			Delay:      delay,
			Err:        err,
		})
		LogDebug("attempt %d failed, retrying in %s: %v", attempt+1, delay, err)

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// Backoff returns base * 2^attempt.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return base << uint(attempt)
}

// DefaultIsRetryable retries transport failures and 5xx responses. Client
// errors (4xx), validation failures and cancellation are final.
func DefaultIsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case KindTransport:
			return true
		case KindServerDetail, KindServerStatus:
			return apiErr.Status >= 500
		default:
			return false
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func notifyRetry(observer RetryObserver, event RetryEvent) {
	if observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			LogDebug("retry observer panicked: %v", r)
		}
	}()
	observer.OnRetry(event)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
