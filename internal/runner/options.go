package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Requester abstracts executing a single request operation.
// Implementations should return an error for failed requests.
type Requester interface {
	Do(ctx context.Context) error
}

// ArrivalModel selects how request start times are spaced.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// DefaultDrainTimeout bounds how long Run waits for in-flight requests after
// dispatch has stopped before cancelling them.
const DefaultDrainTimeout = 30 * time.Second

// Options configure the Runner.
type Options struct {
	Concurrency    int           // number of worker goroutines
	TotalRequests  int           // total requests to dispatch (0 means unlimited until duration/cancel)
	Duration       time.Duration // dispatch window (0 means no duration cap)
	RatePerSecond  int           // requests per second pacing (0 means unlimited)
	ArrivalModel   ArrivalModel  // uniform (default) or poisson
	DrainTimeout   time.Duration // max wait for in-flight requests after dispatch stops
	Requester      Requester     // request executor (required)
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	PoissonSampler func() float64              // optional injection for tests
	RandomSeed     int64
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalRequests < 0 {
		o.TotalRequests = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps caps accumulated tokens at one second's worth,
			// so an idle period cannot produce a burst beyond the configured rate.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
