package translate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mgpai22/anuvad/internal/logging"
)

// ErrRetriesExhausted marks a rate-limited call that kept failing after the
// last allowed retry. The last underlying error is wrapped alongside it.
var ErrRetriesExhausted = errors.New("retries exhausted")

// IsRateLimited reports whether err looks like a rate-limit response. It is
// the only place errors are classified.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "429")
}

// Retrier re-runs a call on rate-limit errors with exponential backoff:
// retry a sleeps backoff * 2^(a-1), without jitter or cap.
type Retrier struct {
	maxRetries int
	backoff    time.Duration
	classify   func(error) bool
	sleeper    func(time.Duration)
	logger     *logging.Logger
}

type RetryOption func(*Retrier)

// WithClassifier replaces IsRateLimited as the retryable check.
func WithClassifier(classify func(error) bool) RetryOption {
	return func(r *Retrier) {
		if classify != nil {
			r.classify = classify
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) RetryOption {
	return func(r *Retrier) {
		r.sleeper = sleeper
	}
}

func WithRetryLogger(logger *logging.Logger) RetryOption {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRetrier(maxRetries int, backoff time.Duration, opts ...RetryOption) *Retrier {
	r := &Retrier{
		maxRetries: max(maxRetries, 0),
		backoff:    backoff,
		classify:   IsRateLimited,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent.
func (r *Retrier) Do(ctx context.Context, fn func(context.Context) error) error {
	attempt := 0
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !r.classify(err) {
			return err
		}

		attempt++
		if attempt > r.maxRetries {
			return fmt.Errorf("%w after %d retries: %w", ErrRetriesExhausted, r.maxRetries, err)
		}

		delay := r.delay(attempt)
		r.logger.Warnw("rate limited, backing off",
			"attempt", attempt,
			"max_retries", r.maxRetries,
			"delay", delay,
			"error", err,
		)
		if err := SleepContext(ctx, delay, r.sleeper); err != nil {
			return err
		}
	}
}

// backoff doubled per attempt, saturating at the largest Duration
func (r *Retrier) delay(attempt int) time.Duration {
	if r.backoff <= 0 {
		return 0
	}
	shift := uint(max(attempt-1, 0))
	if shift >= 63 || r.backoff > time.Duration(math.MaxInt64>>shift) {
		return time.Duration(math.MaxInt64)
	}
	return r.backoff << shift
}

// SleepContext waits for d or until ctx is done. A non-nil sleeper replaces
// the timer.
func SleepContext(ctx context.Context, d time.Duration, sleeper func(time.Duration)) error {
	if d <= 0 {
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if sleeper != nil {
		sleeper(d)
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
