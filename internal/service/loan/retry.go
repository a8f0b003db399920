package loan

import (
	"context"
	"time"

	"github.com/oshokin/odm-grabber/internal/config"
	"github.com/oshokin/odm-grabber/internal/logger"
	"github.com/oshokin/odm-grabber/internal/utils"
)

// RetryPolicy runs an operation up to MaxAttempts times with random pauses in between.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, at least 1.
	MaxAttempts int64
	// MinPause and MaxPause bound the random pause between attempts.
	MinPause time.Duration
	MaxPause time.Duration
	// IsRetryable reports whether another attempt may follow the error. Nil retries everything.
	IsRetryable func(err error) bool
}

// newRetryPolicy creates a policy from the configured budget.
func newRetryPolicy(cfg *config.Config, isRetryable func(err error) bool) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: cfg.RetryAttemptsCount,
		MinPause:    cfg.ParsedMinRetryPause,
		MaxPause:    cfg.ParsedMaxRetryPause,
		IsRetryable: isRetryable,
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error, the attempts run out or ctx is done.
// It returns the last error of fn, or the context error if ctx ended first.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context, attempt int64) error) error {
	maxAttempts := max(p.MaxAttempts, 1)

	var lastErr error

	for attempt := int64(1); attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if p.IsRetryable != nil && !p.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt == maxAttempts {
			break
		}

		logger.Warnf(ctx, "%s failed (attempt %d/%d): %v", op, attempt, maxAttempts, lastErr)

		if err := utils.RandomPause(ctx, p.MinPause, p.MaxPause); err != nil {
			return err
		}
	}

	return lastErr
}
