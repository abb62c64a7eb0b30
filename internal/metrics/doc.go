// Package metrics provides real-time metrics collection and end-of-run
// aggregation for load testing.
//
// # Collector
//
// The [Collector] aggregates running statistics while the test executes, for
// the progress line and the live dashboard:
//
//	collector := metrics.NewCollector()
//	collector.Start() // Mark test start for accurate RPS calculation
//
//	// Record a completed sample
//	collector.Record(s)
//
//	// Get aggregated statistics
//	stats := collector.Stats(elapsed)
//
// It uses an HDR histogram internally, so live percentiles are approximate
// within the histogram's precision.
//
// # Report
//
// [BuildReport] computes the authoritative final report from the sealed
// sample stream. Its percentiles are exact (linear interpolation over the
// full sorted latency set), which is why the final report is derived from the
// stream rather than from the Collector. Because the report is a pure
// function of the samples and the wall-clock duration, recomputing it from an
// exported stream reproduces the live run's numbers.
//
// # Thread Safety
//
// The Collector guards its state with a mutex and is safe to call from
// multiple workers. BuildReport operates on an immutable snapshot and needs
// no synchronization.
package metrics
