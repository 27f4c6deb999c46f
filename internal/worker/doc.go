// Package worker provides a goroutine pool for long-running tasks.
//
// Each pool goroutine takes one Task at a time from a bounded queue and runs
// it until it returns. A swarm of N workers is run on a pool of N goroutines
// so every worker loop gets its own goroutine.
//
// # Basic Usage
//
//	pool := worker.NewPool(100)
//	pool.Start(ctx)
//	defer pool.Stop()
//
//	for i := 0; i < 100; i++ {
//	    pool.SubmitWait(func(ctx context.Context) error {
//	        return w.Run(ctx, start)
//	    })
//	}
//	pool.Wait()
//
// # Errors
//
// Task errors and panics never affect sibling tasks. They are counted
// (Completed, Failed) and Err joins them.
//
// # Shutdown
//
// Stop cancels the pool context and waits for running tasks to return.
// Tasks still queued are discarded.
package worker
