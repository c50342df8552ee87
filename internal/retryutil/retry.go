package retryutil

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
)

// Do runs fn up to attempts times, sleeping delay between failures.
// It returns the last error when every attempt fails, and nil as soon as
// one attempt succeeds. A canceled ctx stops the loop early.
func Do(ctx context.Context, logger *slog.Logger, name string, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if delay <= 0 {
		delay = defaultDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if logger != nil {
			logger.Warn(name+"_attempt_failed", "attempt", attempt, "attempts", attempts, "error", lastErr.Error())
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
