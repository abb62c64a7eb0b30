// Package runner provides the load-generation engine for httpblast.
//
// The runner bounds concurrency with a permit channel, paces dispatch through
// an arrival controller, and walks each run through a fixed lifecycle:
//
//	Idle -> Running -> Draining -> Terminated
//
// # Basic Usage
//
// Create a runner with options and a requester implementation:
//
//	opts := runner.Options{
//		Concurrency:   10,
//		TotalRequests: 1000,
//		RatePerSecond: 100,
//		Requester:     myRequester,
//	}
//	r := runner.New(opts)
//	result := r.Run(ctx)
//
// # Requester Interface
//
// The [Requester] interface defines what a runner executes:
//
//	type Requester interface {
//		Do(ctx context.Context) error
//	}
//
// # Termination
//
// Exactly one of TotalRequests or Duration bounds a run. Count mode stops
// dispatching once the configured number of requests has been handed to
// workers; duration mode stops dispatching when the deadline elapses. In both
// cases the runner then drains: no new requests start, and in-flight requests
// get up to DrainTimeout to reach a terminal outcome before their context is
// cancelled. External cancellation (interrupt) short-circuits dispatch the
// same way, so a partial run still yields a usable sample stream.
//
// # Rate Limiting & Arrival Models
//
// Pacing is a token bucket ([golang.org/x/time/rate]) with capacity and refill
// rate equal to the configured RPS; a zero rate disables pacing entirely.
// [ArrivalModelPoisson] replaces the uniform spacing with exponential
// inter-arrival sampling for more realistic traffic.
package runner
