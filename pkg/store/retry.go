package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// withRetry retries fn on TransientIO-classified failures using the
// sequence 0.2s, 0.4s, 0.8s, 1.6s, 3.2s (5 attempts total, capped at
// 3.2s). Any other error is returned immediately.
func withRetry(ctx context.Context, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.Multiplier = 2
	policy.MaxInterval = 3200 * time.Millisecond
	policy.MaxElapsedTime = 0 // bounded by attempt count below, not wall clock

	const maxAttempts = 5
	attempt := 0

	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		if attempt >= maxAttempts {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// isTransient classifies a database error as retryable: connection
// errors, serialization/deadlock failures, and the store's own
// ErrTransientIO marker.
func isTransient(err error) bool {
	if errors.Is(err, ErrTransientIO) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return true
		}
	}

	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
