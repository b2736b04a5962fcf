package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrTransient marks infrastructure failures worth retrying: network drops,
// timeouts, 5xx responses. Anything not wrapped with it fails immediately.
var ErrTransient = errors.New("transient failure")

// Transient wraps err as retryable
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient reports whether err is marked retryable
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Policy is a bounded-attempt exponential backoff loop. Sleep is injectable
// so tests run without real delays.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(time.Duration)
}

// New returns a Policy using real sleeps
func New(maxAttempts int, baseDelay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, Sleep: time.Sleep}
}

// Do runs op, retrying transient failures with doubling delays up to
// MaxAttempts. Non-transient errors and context cancellation end the loop
// immediately. The last error is returned once attempts are exhausted.
func (p Policy) Do(ctx context.Context, label string, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == attempts {
			return err
		}
		delay := p.BaseDelay << (attempt - 1)
		log.Printf("[retry] %s attempt %d/%d failed: %v — retrying in %s", label, attempt, attempts, err, delay)
		sleep(delay)
	}
	return err
}
