package database

import (
	"context"
	"time"

	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
)

// retry runs fn until it succeeds, doubling the delay between attempts.
// A nil config runs fn once.
func retry(ctx context.Context, cfg *RetryConfig, fn func(context.Context) error) error {
	if cfg == nil || cfg.MaxRetries <= 0 {
		return fn(ctx)
	}

	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt > cfg.MaxRetries {
			return err
		}
		debug.Debug("connect failed, retrying", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
