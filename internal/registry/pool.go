package registry

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// AcquireError reports a failure to obtain a database slot from the pool.
// It is deliberately opaque: the web layer converts it into a plain 500
// response without inspecting the cause.
type AcquireError struct {
	err error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("acquire database slot: %v", e.err)
}

func (e *AcquireError) Unwrap() error { return e.err }

// Pool gates concurrent access to the shared database connection. SQLite
// handles a single writer; the pool keeps request handlers from piling up
// on it and turns saturation into a fast, explicit failure.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewPool creates a pool admitting up to size concurrent holders. Acquire
// gives up after timeout.
func NewPool(size int64, timeout time.Duration) *Pool {
	return &Pool{
		sem:     semaphore.NewWeighted(size),
		timeout: timeout,
	}
}

// Acquire claims a slot and returns a release function. It returns an
// *AcquireError when the pool is saturated past the timeout or the context
// is canceled first.
func (p *Pool) Acquire(ctx context.Context) (release func(), err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, &AcquireError{err: err}
	}
	return func() { p.sem.Release(1) }, nil
}
