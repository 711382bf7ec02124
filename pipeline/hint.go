package pipeline

import (
	"context"
	"errors"
	"math"
)

// SizeHinter is implemented by iterators that can estimate how many values
// remain. lower is a guaranteed minimum; upper is only meaningful when
// bounded is true.
type SizeHinter interface {
	SizeHint() (lower int, upper int, bounded bool)
}

// SizeHintOf returns the size estimate of it, or (0, 0, false) when it does not
// implement SizeHinter.
func SizeHintOf(it any) (lower int, upper int, bounded bool) {
	if h, ok := it.(SizeHinter); ok {
		return h.SizeHint()
	}
	return 0, 0, false
}

// IsSuspended reports whether err is the result of the caller's context
// ending while an iterator was waiting. A suspended iterator keeps its state
// and can be pulled again with a fresh context.
func IsSuspended(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func checkedAdd(a, b int) (int, bool) {
	if a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}
