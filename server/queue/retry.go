package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// ErrRetriesExhausted marks a handler failure that consumed the full attempt
// budget. Callers match it with errors.Is.
var ErrRetriesExhausted = errors.New("max retries reached")

// Policy executes a fallible operation up to a fixed attempt budget with
// linearly increasing backoff: attempt i failing waits i×Backoff before
// attempt i+1. All errors are treated as retryable; classification into
// transient vs. permanent is deliberately not done here.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultPolicy matches the processing contract: three attempts, one second
// backoff unit.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Backoff: time.Second}
}

// Do runs op, retrying per the policy. It returns nil on the first
// successful attempt, ctx.Err() if the context is cancelled while backing
// off, and an error matching ErrRetriesExhausted once the last attempt
// fails.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = op(ctx); lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		wait := time.Duration(attempt) * backoff
		slog.Warn("processing failed, backing off",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff", wait,
			"error", lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, maxAttempts, lastErr)
}
