// Package pipeline provides pull-based iterators and the GroupBy operator,
// which groups runs of consecutive values whose asynchronously computed keys
// are equal.
//
// Pipelines are lazy: no work happens until values are pulled via Collect,
// Drain, or ForEach. Each stage pulls from the previous stage on demand.
//
// # Grouping
//
// GroupBy pulls one value, starts its key computation through a KeyFunc,
// waits for the key, and either appends the value to the open group or
// emits the open group and starts a new one. At most one key computation is
// in flight. When the source is exhausted the open group is emitted last.
//
//	src := pipeline.FromSlice([]int{1, 1, 2, 2, 2, 3})
//	groups := pipeline.GroupBy(src, pipeline.Sync(func(n int) int { return n }))
//	out, _ := pipeline.Collect(ctx, groups)
//	// out: {1 [1 1]} {2 [2 2 2]} {3 [3]}
//
// Keys that need I/O use Async, which runs each computation in its own
// goroutine:
//
//	keyed := pipeline.GroupBy(src, pipeline.Async(func(ctx context.Context, ev Event) (string, error) {
//	    return lookupTenant(ctx, ev.UserID)
//	}))
//
// # Suspension
//
// A GroupIter whose Next is called with a context that ends mid-wait returns
// the context error and keeps its state: the pending key computation is not
// dropped or restarted. IsSuspended tells such errors apart from failures.
// Failures from the source or a key computation are returned unchanged,
// discard the open group, and are returned again by every later Next.
//
// # Sources
//
// GroupBy relies on its source reporting exhaustion consistently; it wraps
// the source with Fuse to guarantee that. Sources that also accept pushed
// values (DuplexSource, e.g. Chan) can be grouped with NewDuplex, which
// forwards Send, Flush and CloseSend unchanged.
package pipeline
