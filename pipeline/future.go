package pipeline

import (
	"context"
	"sync"
)

// Future is a value that becomes available asynchronously.
type Future[T any] interface {
	// Await blocks until the value is available or ctx is done.
	// A context error does not consume the future; Await may be called again.
	Await(ctx context.Context) (T, error)
}

// KeyFunc derives the grouping key of an item. Call must not block: it
// starts the computation and returns a Future for its result. ctx bounds
// the lifetime of the computation, not the caller's wait.
type KeyFunc[T, K any] interface {
	Call(ctx context.Context, item T) Future[K]
}

// KeyFuncOf adapts an ordinary function to the KeyFunc interface.
type KeyFuncOf[T, K any] func(ctx context.Context, item T) Future[K]

// Call calls f(ctx, item).
func (f KeyFuncOf[T, K]) Call(ctx context.Context, item T) Future[K] {
	return f(ctx, item)
}

// Async returns a KeyFunc that runs fn in its own goroutine for each item.
func Async[T, K any](fn func(context.Context, T) (K, error)) KeyFunc[T, K] {
	return KeyFuncOf[T, K](func(ctx context.Context, item T) Future[K] {
		return Go(ctx, func(ctx context.Context) (K, error) {
			return fn(ctx, item)
		})
	})
}

// Sync returns a KeyFunc whose futures are already resolved.
func Sync[T, K any](fn func(T) K) KeyFunc[T, K] {
	return KeyFuncOf[T, K](func(_ context.Context, item T) Future[K] {
		return Ready(fn(item))
	})
}

// Ready returns a resolved future holding v.
func Ready[T any](v T) Future[T] {
	return readyFuture[T]{val: v}
}

// Failed returns a resolved future holding err.
func Failed[T any](err error) Future[T] {
	return readyFuture[T]{err: err}
}

type readyFuture[T any] struct {
	val T
	err error
}

func (f readyFuture[T]) Await(_ context.Context) (T, error) {
	return f.val, f.err
}

// Promise is a Future completed exactly once, either by a goroutine started
// with Go or explicitly through Resolve or Reject.
type Promise[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewPromise returns an unresolved promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Go runs fn in a new goroutine and returns a promise for its result.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Promise[T] {
	p := NewPromise[T]()
	go func() {
		v, err := fn(ctx)
		p.complete(v, err)
	}()
	return p
}

// Resolve completes the promise with v. Only the first completion counts.
func (p *Promise[T]) Resolve(v T) { p.complete(v, nil) }

// Reject completes the promise with err. Only the first completion counts.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.complete(zero, err)
}

// Done is closed once the promise is completed.
func (p *Promise[T]) Done() <-chan struct{} { return p.done }

// Await implements Future.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	default:
	}
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (p *Promise[T]) complete(v T, err error) {
	p.once.Do(func() {
		p.val, p.err = v, err
		close(p.done)
	})
}
