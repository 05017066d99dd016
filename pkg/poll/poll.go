// Package poll provides the bounded wait used at every suspension point of the
// extraction pipeline.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted indicates the check never reported ready within the attempt cap.
var ErrExhausted = errors.New("poll attempts exhausted")

// Settings bounds a poll. The check runs at most MaxAttempts times with Interval
// between consecutive attempts.
type Settings struct {
	Interval    time.Duration
	MaxAttempts int
}

// Within derives settings that cover roughly the given total wait.
func Within(total, interval time.Duration) Settings {
	if interval <= 0 {
		return Settings{Interval: 0, MaxAttempts: 1}
	}
	attempts := int(total / interval)
	if attempts < 1 {
		attempts = 1
	}
	return Settings{Interval: interval, MaxAttempts: attempts}
}

// Budget returns the maximum time spent sleeping between attempts.
func (s Settings) Budget() time.Duration {
	if s.MaxAttempts <= 1 {
		return 0
	}
	return time.Duration(s.MaxAttempts-1) * s.Interval
}

// Check reports a value once it is ready.
type Check[T any] func(ctx context.Context) (T, bool)

// Until calls check immediately and then after every interval until it reports
// ready, the attempts run out, or ctx is done.
func Until[T any](ctx context.Context, settings Settings, check Check[T]) (T, error) {
	var zero T

	attempts := settings.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		if value, ok := check(ctx); ok {
			return value, nil
		}

		if attempt == attempts {
			break
		}

		if err := Sleep(ctx, settings.Interval); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts", ErrExhausted, attempts)
}

// Sleep pauses for d unless ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
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
