// Package retry is the single retry-with-exponential-backoff loop shared by
// the components that talk to the network.
package retry

import (
	"context"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	// Values below 1 are treated as 1.
	Attempts int
	// InitialDelay is the wait before the second attempt; each further
	// wait doubles it.
	InitialDelay time.Duration
	// Sleep overrides the wait between attempts. Tests use it to observe
	// backoff without real delays. Nil means a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Delay returns the wait that follows attempt k (1-based):
// InitialDelay * 2^(k-1).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.InitialDelay << (attempt - 1)
}

// Do runs fn up to p.Attempts times, sleeping between attempts, and returns
// nil on the first success. After the final attempt the last error is
// returned as-is so callers keep its classification.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.Delay(attempt-1)); err != nil {
				return err
			}
		}
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
