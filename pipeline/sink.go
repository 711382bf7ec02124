package pipeline

import (
	"context"
	"errors"
	"sync"
)

// ErrSendClosed is returned by Chan.Send after CloseSend.
var ErrSendClosed = errors.New("pipeline: send on closed channel source")

// Sink accepts values pushed into a stream.
type Sink[V any] interface {
	// Send pushes v. It may block until the value is accepted or ctx is done.
	Send(ctx context.Context, v V) error
	// Flush waits until previously sent values are accepted.
	Flush(ctx context.Context) error
	// CloseSend signals that no more values will be sent.
	CloseSend() error
}

// DuplexSource is a source that can also be written to.
type DuplexSource[T, V any] interface {
	Iterator[T]
	Sink[V]
}

// Duplex groups the read side of a DuplexSource and forwards the write side
// to it unchanged.
type Duplex[T, K, V any] struct {
	*GroupIter[T, K]
	sink Sink[V]
}

// NewDuplex returns a grouping iterator over src whose Send, Flush and
// CloseSend go straight to src.
func NewDuplex[T any, K comparable, V any](ctx context.Context, src DuplexSource[T, V], fn KeyFunc[T, K], opts ...GroupOption) *Duplex[T, K, V] {
	return &Duplex[T, K, V]{
		GroupIter: NewGroupIter(ctx, src, fn, opts...),
		sink:      src,
	}
}

// Send forwards to the wrapped source.
func (d *Duplex[T, K, V]) Send(ctx context.Context, v V) error { return d.sink.Send(ctx, v) }

// Flush forwards to the wrapped source.
func (d *Duplex[T, K, V]) Flush(ctx context.Context) error { return d.sink.Flush(ctx) }

// CloseSend forwards to the wrapped source.
func (d *Duplex[T, K, V]) CloseSend() error { return d.sink.CloseSend() }

// Chan is a buffered, channel-backed DuplexSource. Values sent to it are
// read back in order; after CloseSend the reader drains what is buffered and
// then reports exhaustion.
type Chan[T any] struct {
	ch     chan T
	mu     sync.RWMutex
	closed bool
}

// NewChan returns a Chan buffering up to size values.
func NewChan[T any](size int) *Chan[T] {
	if size < 0 {
		size = 0
	}
	return &Chan[T]{ch: make(chan T, size)}
}

// Send implements Sink.
func (c *Chan[T]) Send(ctx context.Context, v T) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrSendClosed
	}
	select {
	case c.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush is a no-op: a value is accepted once Send returns.
func (c *Chan[T]) Flush(_ context.Context) error { return nil }

// CloseSend implements Sink. It is safe to call more than once.
func (c *Chan[T]) CloseSend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	return nil
}

// Next implements Iterator.
func (c *Chan[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case v, open := <-c.ch:
		if !open {
			var zero T
			return zero, false, nil
		}
		return v, true, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// SizeHint implements SizeHinter. Once sending is closed the buffered count
// is exact; before that only a lower bound is known.
func (c *Chan[T]) SizeHint() (int, int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.ch)
	return n, n, c.closed
}

// Close implements Iterator by closing the write side.
func (c *Chan[T]) Close() error { return c.CloseSend() }
