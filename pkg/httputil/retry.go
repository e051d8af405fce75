package httputil

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 2

	// DefaultBaseDelay is the delay before the first retry, before jitter.
	DefaultBaseDelay = time.Second

	// MaxJitter bounds the random delay added to every backoff.
	MaxJitter = 100 * time.Millisecond
)

// Policy configures [Do].
//
// The zero Policy performs a single attempt. Jitter and Sleep default to a
// uniform [0, MaxJitter) draw and a context-aware timer wait; tests replace
// them to control timing.
type Policy struct {
	MaxRetries int           // Retries after the first attempt; total attempts = MaxRetries+1
	BaseDelay  time.Duration // Delay before retry 0; doubles per attempt

	Jitter  func() time.Duration
	Sleep   func(ctx context.Context, d time.Duration) error
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns a Policy with DefaultMaxRetries and DefaultBaseDelay.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Retry executes op with exponential backoff, retrying every failure up to
// maxRetries times. It returns the first success or the last error.
func Retry[T any](ctx context.Context, op func(context.Context) (T, error), maxRetries int, baseDelay time.Duration) (T, error) {
	return Do(ctx, Policy{MaxRetries: maxRetries, BaseDelay: baseDelay}, op)
}

// Do executes op under p.
//
// After a failed attempt i (0-based) it waits Backoff(p.BaseDelay, i, jitter)
// and tries again, unless i == p.MaxRetries, in which case the error is
// returned immediately and unchanged. Every error kind is retried.
// If ctx is cancelled while waiting, the context error is returned.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	jitter := p.Jitter
	if jitter == nil {
		jitter = randomJitter
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	maxRetries := max(p.MaxRetries, 0)

	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if attempt == maxRetries {
			return v, err
		}

		delay := Backoff(p.BaseDelay, attempt, jitter())
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}
	}
}

// Backoff returns base * 2^attempt + jitter, saturating at the largest
// representable duration.
func Backoff(base time.Duration, attempt int, jitter time.Duration) time.Duration {
	const maxDelay = time.Duration(math.MaxInt64)
	if base <= 0 {
		return base + jitter
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 63 || base > maxDelay>>attempt {
		return maxDelay
	}
	d := base << attempt
	if jitter > maxDelay-d {
		return maxDelay
	}
	return d + jitter
}

func randomJitter() time.Duration {
	return time.Duration(rand.Int64N(int64(MaxJitter)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
