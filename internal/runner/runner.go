package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State is the run lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Result captures execution summary.
type Result struct {
	Dispatched  int64
	Errors      int64
	Duration    time.Duration
	Interrupted bool
}

// Runner coordinates concurrent execution with rate limiting. A Runner is
// single-use: Run may be called once.
type Runner struct {
	opt     Options
	arrival arrivalController
	state   atomic.Int32
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, arrival: newArrivalController(opt)}
}

// State reports the current lifecycle phase.
func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
}

// Run executes the load until the termination policy fires (dispatch count or
// duration), then drains in-flight requests. Cancelling ctx stops dispatch
// immediately; whatever samples have completed remain usable. A drain that
// exceeds DrainTimeout is cut short by cancelling the in-flight requests.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var dispatched int64
	var errs int64

	r.setState(StateRunning)

	// runCtx governs in-flight requests. It outlives the dispatch deadline so
	// draining requests can finish, and is cancelled on interrupt or when the
	// drain bound is exceeded.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	dispatchCtx := runCtx
	if r.opt.Duration > 0 {
		deadlineCtx, cancelDeadline := context.WithTimeout(runCtx, r.opt.Duration)
		dispatchCtx = deadlineCtx
		defer cancelDeadline()
	}

	permits := make(chan struct{}, r.opt.Concurrency)
	schedDone := make(chan struct{})

	// Scheduler: serializes rate limiting to avoid burst overshoot across
	// workers. A permit is only counted once a worker is guaranteed to get it.
	go func() {
		defer close(schedDone)
		defer close(permits)
		for {
			if dispatchCtx.Err() != nil {
				return
			}
			current := atomic.LoadInt64(&dispatched)
			if r.opt.TotalRequests > 0 && current >= int64(r.opt.TotalRequests) {
				return
			}
			if r.arrival != nil {
				if err := r.arrival.Wait(dispatchCtx); err != nil {
					return
				}
			}
			select {
			case permits <- struct{}{}:
				atomic.AddInt64(&dispatched, 1)
			case <-dispatchCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Concurrency)
	for i := 0; i < r.opt.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for range permits {
				if r.opt.Requester != nil {
					if err := r.opt.Requester.Do(runCtx); err != nil {
						atomic.AddInt64(&errs, 1)
					}
				}
				if runCtx.Err() != nil {
					return
				}
			}
		}()
	}

	<-schedDone
	r.setState(StateDraining)

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	drain := time.NewTimer(r.opt.DrainTimeout)
	defer drain.Stop()
	select {
	case <-workersDone:
	case <-drain.C:
		// A hung request must not block run completion.
		cancelRun()
		<-workersDone
	}

	r.setState(StateTerminated)

	return Result{
		Dispatched:  atomic.LoadInt64(&dispatched),
		Errors:      atomic.LoadInt64(&errs),
		Duration:    time.Since(start),
		Interrupted: ctx.Err() != nil,
	}
}
