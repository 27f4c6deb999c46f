// Package metrics provides emission metrics collection and reporting.
//
// Metrics counts set_pixel commands sent and failed, send latency,
// throughput (commands per second), connection outcomes and the number of
// workers currently in their send loop.
//
// # Basic Usage
//
//	m := metrics.New()
//
//	start := time.Now()
//	err := ch.Send(ctx, frame)
//	if err != nil {
//	    m.RecordFailure(time.Since(start))
//	} else {
//	    m.RecordSent(time.Since(start))
//	}
//
//	snap := m.Snapshot()
//	fmt.Printf("Sent: %d, CPS: %.2f, P99: %v\n", snap.SentCommands, snap.CPS, snap.P99Latency)
//
// # Thread Safety
//
// Counters are atomic; latency samples are guarded by a RWMutex.
package metrics
