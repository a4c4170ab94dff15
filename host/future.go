package host

import (
	"context"
	"errors"
	"sync"
)

// ErrPending is returned by Future.Result before the future completes.
var ErrPending = errors.New("future: result pending")

// Future is a result completed later, possibly on another goroutine. A
// contract method returning *Future is invoked asynchronously.
type Future struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

// NewFuture returns a pending future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Complete settles the future. Only the first call has an effect; it reports
// whether this call settled the future.
func (f *Future) Complete(value any, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value, f.err = value, err
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed once the future completes.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result returns the outcome without blocking.
func (f *Future) Result() (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
		return nil, ErrPending
	}
}

// Await blocks until the future completes or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
