package pipeline

import "context"

// Fuse wraps it so that once it reports exhaustion, every later Next call
// also reports exhaustion without touching the wrapped iterator.
//
// Errors, including context errors from a suspended pull, do not fuse.
// Fusing an already fused iterator returns it unchanged.
func Fuse[T any](it Iterator[T]) Iterator[T] {
	if f, ok := it.(*fusedIter[T]); ok {
		return f
	}
	return &fusedIter[T]{source: it}
}

type fusedIter[T any] struct {
	source Iterator[T]
	done   bool
}

func (it *fusedIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.done {
		var zero T
		return zero, false, nil
	}
	val, ok, err := it.source.Next(ctx)
	if err == nil && !ok {
		it.done = true
	}
	return val, ok, err
}

func (it *fusedIter[T]) SizeHint() (int, int, bool) {
	if it.done {
		return 0, 0, true
	}
	return SizeHintOf(it.source)
}

func (it *fusedIter[T]) Close() error { return it.source.Close() }
