package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showroom/internal/domain"
	"showroom/internal/metrics"
	"showroom/internal/repos"
)

const (
	DefaultWriteRetries = 5
	DefaultRetryBackoff = 5 * time.Millisecond
)

func retryable(err error) bool {
	return errors.Is(err, domain.ErrConflict) || repos.IsRetryable(err)
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// attempts run out. Each fn call must be a whole transaction so a retry starts
// from fresh state. Exhaustion surfaces as domain.ErrConflict.
func withRetry(ctx context.Context, op string, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			metrics.WriteRetries.WithLabelValues(op).Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i) * backoff):
			}
		}
		if err = fn(ctx); err == nil || !retryable(err) {
			return err
		}
	}
	metrics.WriteConflicts.WithLabelValues(op).Inc()
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("%s: %d attempts: %w", op, attempts, err)
	}
	return fmt.Errorf("%s: %d attempts: %w: %v", op, attempts, domain.ErrConflict, err)
}
