package models

import (
	"context"
	"time"
)

// maxTransientRetries bounds how many times a single model call is retried
// after a transient failure (rate limiting, a dropped connection) before
// the error is surfaced to the run controller. Anton runs unattended for
// hours at a time; a provider hiccup shouldn't burn a task's retry budget
// the same way an actual bad implementation attempt does.
const (
	maxTransientRetries = 3
	retryBaseDelay      = 500 * time.Millisecond
)

// backoff returns the delay before retry attempt n (0-indexed), doubling
// each time.
func backoff(n int) time.Duration {
	return retryBaseDelay << n
}

// sleepWithContext waits for d, returning early with ctx's error if the
// context is canceled first — a run being aborted shouldn't sit through a
// full backoff window before the model call finally gives up.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
