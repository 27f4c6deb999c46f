// Package scheduler runs one worker's set_pixel emission loop.
//
// A Worker owns a fixed grid cell, one transport channel and a cycle
// counter. Run proceeds in two phases:
//
// Init: map the worker onto the grid, open the channel, then wait
// StartWindow/Total*Index minus the time already elapsed since the shared
// start instant. The wait is skipped when that value is not positive, which
// spreads the first emissions of all workers evenly over the window.
//
// Cycling: colorize on the current cycle count, increment it, send the
// command, then wait CycleInterval. This repeats until the context is
// cancelled, MaxCycles is reached or a send fails.
//
// # Basic Usage
//
//	start := time.Now() // captured once, before any worker starts
//	w := scheduler.New(scheduler.Identity{Index: 3, Total: 100}, scheduler.DefaultConfig(), dialer, addr)
//	w.SetMetrics(m)
//	w.SetEventBus(bus)
//	err := w.Run(ctx, start)
//
// # Errors
//
// A failed connect returns before the first cycle. A failed send ends the
// loop; there is no retry. Cancellation is not an error: Run returns nil.
package scheduler
