// Package eventloop provides the cooperative, single-threaded scheduler that
// drives a module's asynchronous work: timers, repeating timers, microtasks
// and promises.
//
// All tasks run on the goroutine that calls Run or RunPending. Other
// goroutines (loaders fetching bytes, finalizers) hand work to the loop with
// Post. Microtasks drain after every macrotask.
//
//	loop := eventloop.New()
//	loop.SetTimeout(10*time.Millisecond, func(ctx context.Context) error {
//		return nil
//	})
//	err := loop.Run(ctx) // returns when idle
//
// Timer cancellation is idempotent: cancelling a fired, cancelled or unknown
// timer is a no-op.
package eventloop
