// Package resilience provides admission control for work that must not run
// unbounded in parallel.
//
// A Bulkhead caps the number of concurrent holders of a slot. Callers either
// run a function inside a slot with Execute, or take a slot with Acquire and
// return it with the release function, which suits middleware that wraps the
// rest of a handler chain:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "grouping", MaxConcurrent: 8})
//	release, err := bh.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer release()
package resilience
