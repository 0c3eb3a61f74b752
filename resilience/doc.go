// Package resilience provides concurrency guards for outbound calls.
//
// Bulkhead caps how many calls run at once. With MaxConcurrent 1 and no
// wait it is a single-flight guard: a second caller is rejected with
// ErrBulkheadFull instead of queueing, which is how session refreshes are
// kept to at most one in flight.
//
//	guard := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "refresh", MaxConcurrent: 1})
//	err := guard.Execute(ctx, func() error { return refresh(ctx) })
//	if errors.Is(err, resilience.ErrBulkheadFull) {
//	    // another refresh is running
//	}
package resilience
