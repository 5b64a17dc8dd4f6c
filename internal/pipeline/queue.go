package pipeline

import (
	"context"
	"sync"

	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// PairQueue is a bounded FIFO of prime pairs. Push blocks while the queue is
// full and Pop blocks while it is empty; both give up when the context ends.
type PairQueue struct {
	ch   chan oniongen.PrimePair
	once sync.Once
}

// NewPairQueue creates a queue holding up to size pairs.
func NewPairQueue(size int) *PairQueue {
	if size < 1 {
		size = 1
	}
	return &PairQueue{ch: make(chan oniongen.PrimePair, size)}
}

// Push enqueues pair. It returns ctx.Err() if the context ends first. Push
// must not be called after Close.
func (q *PairQueue) Push(ctx context.Context, pair oniongen.PrimePair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- pair:
		return nil
	}
}

// Pop dequeues the next pair. It returns false once the context has ended,
// or when the queue is closed and empty.
func (q *PairQueue) Pop(ctx context.Context) (oniongen.PrimePair, bool) {
	if ctx.Err() != nil {
		return oniongen.PrimePair{}, false
	}
	select {
	case <-ctx.Done():
		return oniongen.PrimePair{}, false
	case pair, ok := <-q.ch:
		return pair, ok
	}
}

// Close marks the end of input. Pairs already queued can still be popped.
func (q *PairQueue) Close() {
	q.once.Do(func() { close(q.ch) })
}

// Len returns the number of queued pairs.
func (q *PairQueue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *PairQueue) Cap() int { return cap(q.ch) }
