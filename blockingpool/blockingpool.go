// Package blockingpool provides a fixed-capacity object pool with blocking
// back-pressure on both ends. The detector uses it to recycle decoded frame
// buffers between the reader goroutine and the analysis loop so that at most
// a handful of frames are in flight at once.
package blockingpool

import "context"

// BlockingPool is a channel-backed pool of reusable objects. Get blocks
// until an object is available, Put blocks until there is room, so the
// number of outstanding objects never exceeds the pool capacity.
type BlockingPool[T any] struct {
	pool chan T
}

// NewBlockingPool creates a pool that holds at most capacity objects.
func NewBlockingPool[T any](capacity int) BlockingPool[T] {
	return BlockingPool[T]{pool: make(chan T, capacity)}
}

// Get acquires an object, blocking until one is available or ctx is done.
// The caller owns the object until it is returned with Put.
func (p *BlockingPool[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case obj := <-p.pool:
		return obj, nil
	}
}

// Put returns an object to the pool, blocking until there is space.
func (p *BlockingPool[T]) Put(obj T) { p.pool <- obj }
