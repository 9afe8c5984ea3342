// Package offload moves blocking or CPU-intensive work off a
// latency-sensitive request path. A caller classifies a unit of work by
// Kind, submits it together with a timeout and a fallback, and always gets
// a usable value back within a bounded time: the work's own result, or the
// fallback when the work fails or the timeout elapses first.
//
// Components
//   - Registry: owns the three execution lanes — a fixed-size pool for
//     CPU-bound work (bounded queue, rejects when full), an elastic pool
//     for I/O-bound work (idle workers reclaimed after a timeout), and a
//     single sequential lane for background/batch work (strict FIFO).
//   - Dispatcher: the offloading primitive. Submit runs the work on the
//     lane selected for its Kind and races it against the timeout.
//   - Aggregator: a concurrent counter store with a periodic flush that
//     runs on the background lane, resets counters, and raises alerts for
//     counters above a threshold.
//   - Classifier: the Kind to lane routing policy, kept in one place.
//
// Defaults
// Unless overridden, a newly created Dispatcher uses:
//   - CPUPoolSize: runtime.NumCPU()
//   - CPUQueueCapacity: 1000
//   - IOIdleTimeout: 60s
//   - BackgroundQueueCapacity: 1024
//   - FlushInterval: 5s, FlushInitialDelay: 2s
//   - AlertThreshold: 3
//
// Timeouts are a race, not an interrupt. When the timer wins, Submit
// returns the fallback immediately and the work keeps running detached;
// it only receives a cancelled context and may choose to stop
// cooperatively. A late result is always discarded, never delivered.
package offload
