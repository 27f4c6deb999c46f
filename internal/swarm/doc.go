// Package swarm runs a population of pixel workers against one canvas
// service and reports on the run.
//
// The Engine captures a single start instant, launches one scheduler.Worker
// per grid cell on a worker pool, and waits until the context is cancelled,
// the configured Duration elapses or every worker has stopped.
//
// # Presets
//
//   - reference: 100 workers, 9s start window, 9s cycle (the default)
//   - quick: 16 workers, 1s window and cycle, 10s run
//   - dense: 400 workers, 3s cycle
//   - sparse: 9 workers, reference timing
//
// # Usage
//
//	cfg := swarm.QuickScenario()
//	cfg.Address = "ws://localhost:3001/ws"
//	engine := swarm.New(cfg)
//	result, err := engine.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report())
package swarm
