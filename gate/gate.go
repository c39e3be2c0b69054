// Package gate provides counting admission control for concurrent
// operations.
package gate

import (
	"context"
	"errors"
)

// ErrInvalidLimit is returned by New for limits below one.
var ErrInvalidLimit = errors.New("gate: limit must be positive")

// Gate bounds the number of concurrently in-flight operations. Waiters are
// queued by the runtime in roughly FIFO order; completion order of admitted
// operations is unspecified.
type Gate struct {
	slots chan struct{}
}

// New creates a gate admitting at most limit concurrent holders.
func New(limit int) (*Gate, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return &Gate{slots: make(chan struct{}, limit)}, nil
}

// Acquire blocks until a slot is free or ctx is done. On success the caller
// must call Release, normally via defer, regardless of how the guarded
// operation ends.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking and reports whether it got one.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire. Releasing an
// unheld slot panics.
func (g *Gate) Release() {
	select {
	case <-g.slots:
	default:
		panic("gate: release without acquire")
	}
}

// InFlight returns the number of currently held slots.
func (g *Gate) InFlight() int { return len(g.slots) }

// Limit returns the configured admission limit.
func (g *Gate) Limit() int { return cap(g.slots) }
