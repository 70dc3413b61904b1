package retry

import (
	"context"
	"fmt"
	"time"
)

// Config bounds the retry loop. With Linear set, the wait before attempt N is
// N * Delay; otherwise the Delay is fixed.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Linear      bool
}

// Do runs fn up to MaxAttempts times, sleeping between failures. The last
// error is wrapped and returned once attempts are exhausted.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err

			if attempt == cfg.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, err)
			}

			delay := cfg.Delay
			if cfg.Linear {
				delay = time.Duration(attempt) * cfg.Delay
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
		return nil
	}

	return lastErr
}
