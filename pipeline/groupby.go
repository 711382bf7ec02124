package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/streamgroup/logger"
)

// Group is a maximal run of consecutive items whose keys compare equal.
type Group[K, T any] struct {
	Key   K
	Items []T
}

// GroupObserver receives engine events. Implementations must be cheap;
// they run inline on the consumer's goroutine.
type GroupObserver interface {
	// KeyResolved is called when a pending key computation completes.
	KeyResolved(ctx context.Context, name string, wait time.Duration)
	// GroupEmitted is called for every group handed to the consumer.
	GroupEmitted(ctx context.Context, name string, size int)
	// Failed is called once when the source or a key computation fails.
	Failed(ctx context.Context, name string, err error)
}

// GroupOption configures a grouping iterator.
type GroupOption func(*groupConfig)

type groupConfig struct {
	name     string
	log      *logger.Logger
	observer GroupObserver
}

// WithName sets the name used in logs and metrics.
func WithName(name string) GroupOption {
	return func(c *groupConfig) { c.name = name }
}

// WithLogger sets the logger. Emitted groups are logged at debug level.
func WithLogger(l *logger.Logger) GroupOption {
	return func(c *groupConfig) { c.log = l }
}

// WithObserver registers an observer for engine events.
func WithObserver(o GroupObserver) GroupOption {
	return func(c *groupConfig) { c.observer = o }
}

// GroupBy groups runs of consecutive values whose keys are equal.
//
// Keys are computed one at a time by fn; a new item is not pulled until the
// previous item's key has resolved. Only adjacent keys are compared, so two
// runs with the same key separated by another key yield two groups.
func GroupBy[T any, K comparable](p *Pipeline[T], fn KeyFunc[T, K], opts ...GroupOption) *Pipeline[Group[K, T]] {
	return GroupByFunc(p, fn, equalComparable[K], opts...)
}

// GroupByFunc is GroupBy for keys compared with equal.
func GroupByFunc[T, K any](p *Pipeline[T], fn KeyFunc[T, K], equal func(a, b K) bool, opts ...GroupOption) *Pipeline[Group[K, T]] {
	return &Pipeline[Group[K, T]]{
		create: func(ctx context.Context) Iterator[Group[K, T]] {
			return NewGroupIterFunc(ctx, p.create(ctx), fn, equal, opts...)
		},
	}
}

func equalComparable[K comparable](a, b K) bool { return a == b }

type groupState int

const (
	stateIdle groupState = iota
	stateAwaitingKey
	stateFailed
	stateClosed
)

func (s groupState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAwaitingKey:
		return "awaiting_key"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// pendingKey is only meaningful in stateAwaitingKey.
type pendingKey[T, K any] struct {
	future Future[K]
	item   T
	since  time.Time
}

// GroupIter is the grouping state machine behind GroupBy. It is owned by a
// single consumer and is not safe for concurrent use.
//
// When the context passed to Next ends while the iterator is waiting on the
// source or on a key, Next returns the context error and keeps its state.
// The next call resumes the same wait; the key computation is not restarted.
type GroupIter[T, K any] struct {
	inner  Iterator[T]
	source Iterator[T]
	fn     KeyFunc[T, K]
	equal  func(a, b K) bool
	cfg    groupConfig

	keyCtx    context.Context
	cancelKey context.CancelFunc

	state   groupState
	pending pendingKey[T, K]
	open    *Group[K, T]
	err     error
}

// NewGroupIter returns a grouping iterator over src. ctx bounds the lifetime
// of the key computations started by fn; Close cancels it as well.
func NewGroupIter[T any, K comparable](ctx context.Context, src Iterator[T], fn KeyFunc[T, K], opts ...GroupOption) *GroupIter[T, K] {
	return NewGroupIterFunc(ctx, src, fn, equalComparable[K], opts...)
}

// NewGroupIterFunc is NewGroupIter for keys compared with equal.
func NewGroupIterFunc[T, K any](ctx context.Context, src Iterator[T], fn KeyFunc[T, K], equal func(a, b K) bool, opts ...GroupOption) *GroupIter[T, K] {
	cfg := groupConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = "groupby-" + uuid.NewString()[:8]
	}
	if cfg.log == nil {
		cfg.log = logger.Get("pipeline")
	}
	cfg.log = cfg.log.WithFields(logger.Fields(logger.FieldOperation, cfg.name))
	if cfg.observer == nil {
		cfg.observer = nopObserver{}
	}

	keyCtx, cancel := context.WithCancel(ctx)
	return &GroupIter[T, K]{
		inner:     src,
		source:    Fuse(src),
		fn:        fn,
		equal:     equal,
		cfg:       cfg,
		keyCtx:    keyCtx,
		cancelKey: cancel,
	}
}

// Name returns the name used in logs and metrics.
func (it *GroupIter[T, K]) Name() string { return it.cfg.name }

// Source returns the iterator passed to NewGroupIter, without the fusing
// wrapper. Pulling from it directly bypasses the grouping state.
func (it *GroupIter[T, K]) Source() Iterator[T] { return it.inner }

// suspended reports whether err only reflects ctx ending. Any other error
// observed while ctx happens to be done is still a failure.
func suspended(ctx context.Context, err error) bool {
	return IsSuspended(err) && ctx.Err() != nil
}

// Next returns the next completed group.
func (it *GroupIter[T, K]) Next(ctx context.Context) (Group[K, T], bool, error) {
	var zero Group[K, T]
	for {
		switch it.state {
		case stateClosed:
			return zero, false, nil

		case stateFailed:
			return zero, false, it.err

		case stateAwaitingKey:
			key, err := it.pending.future.Await(ctx)
			if err != nil {
				if suspended(ctx, err) {
					return zero, false, err
				}
				return zero, false, it.fail(ctx, err)
			}
			it.cfg.observer.KeyResolved(ctx, it.cfg.name, time.Since(it.pending.since))
			item := it.pending.item
			it.pending = pendingKey[T, K]{}
			it.state = stateIdle
			if done, ok := it.assign(key, item); ok {
				return it.emit(ctx, done), true, nil
			}

		case stateIdle:
			item, ok, err := it.source.Next(ctx)
			if err != nil {
				if suspended(ctx, err) {
					return zero, false, err
				}
				return zero, false, it.fail(ctx, err)
			}
			if !ok {
				if it.open == nil {
					return zero, false, nil
				}
				last := *it.open
				it.open = nil
				return it.emit(ctx, last), true, nil
			}
			it.pending = pendingKey[T, K]{
				future: it.fn.Call(it.keyCtx, item),
				item:   item,
				since:  time.Now(),
			}
			it.state = stateAwaitingKey
		}
	}
}

// assign places item into the open group, or swaps in a new group and
// returns the finished one.
func (it *GroupIter[T, K]) assign(key K, item T) (Group[K, T], bool) {
	if it.open == nil {
		it.open = &Group[K, T]{Key: key, Items: []T{item}}
		return Group[K, T]{}, false
	}
	if it.equal(it.open.Key, key) {
		it.open.Items = append(it.open.Items, item)
		return Group[K, T]{}, false
	}
	done := *it.open
	it.open = &Group[K, T]{Key: key, Items: []T{item}}
	return done, true
}

func (it *GroupIter[T, K]) emit(ctx context.Context, g Group[K, T]) Group[K, T] {
	it.cfg.observer.GroupEmitted(ctx, it.cfg.name, len(g.Items))
	it.cfg.log.Debug("group emitted", logger.Fields("items", len(g.Items)))
	return g
}

// fail discards buffered items and makes err the answer to every later Next.
func (it *GroupIter[T, K]) fail(ctx context.Context, err error) error {
	dropped := 0
	if it.open != nil {
		dropped = len(it.open.Items)
	}
	if it.state == stateAwaitingKey {
		dropped++
	}
	it.open = nil
	it.pending = pendingKey[T, K]{}
	it.state = stateFailed
	it.err = err
	it.cancelKey()

	it.cfg.observer.Failed(ctx, it.cfg.name, err)
	it.cfg.log.WithError(err).Warn("grouping failed", logger.Fields("dropped_items", dropped))
	return err
}

// SizeHint estimates the number of groups still to come.
//
// An open group or a pulled item still waiting on its key guarantees at
// least one more group. Every remaining source item could start a group of
// its own, so the upper bound is the source's upper bound plus those two.
func (it *GroupIter[T, K]) SizeHint() (int, int, bool) {
	if it.state == stateClosed || it.state == stateFailed {
		return 0, 0, true
	}
	extra := 0
	if it.open != nil {
		extra++
	}
	if it.state == stateAwaitingKey {
		extra++
	}

	srcLower, srcUpper, bounded := SizeHintOf(it.source)
	lower := 0
	if extra > 0 || srcLower > 0 {
		lower = 1
	}
	if !bounded {
		return lower, 0, false
	}
	upper, ok := checkedAdd(srcUpper, extra)
	if !ok {
		return lower, 0, false
	}
	return lower, upper, true
}

// Close abandons any pending key computation, discards the open group and
// closes the source. Later Next calls report exhaustion.
func (it *GroupIter[T, K]) Close() error {
	if it.state == stateClosed {
		return nil
	}
	it.cfg.log.Debug("grouping closed", logger.Fields("state", it.state.String()))
	it.cancelKey()
	it.open = nil
	it.pending = pendingKey[T, K]{}
	it.state = stateClosed
	return it.source.Close()
}

type nopObserver struct{}

func (nopObserver) KeyResolved(context.Context, string, time.Duration) {}
func (nopObserver) GroupEmitted(context.Context, string, int)          {}
func (nopObserver) Failed(context.Context, string, error)              {}
