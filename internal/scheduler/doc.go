// Package scheduler is the concurrency core. It dispatches tasks through a
// counting semaphore sized by the run's parallel limit, supervises each
// execution under its deadline, applies the failure policy, and streams
// terminal results to a single aggregating goroutine.
//
// Dispatch comes in two disciplines. Free dispatch offers every task to the
// pool at once; sequential mode is the degenerate case of a parallel limit
// of one, which preserves input order because permits are acquired in the
// offer loop. Level-gated dispatch offers one level at a time and waits for
// every task of the level to terminate before offering the next.
package scheduler
