package executor

import (
	"context"
	"math/rand"
	"time"

	"github.com/httpblast/httpblast/internal/sample"
)

// RetryPolicy configures per-request retry behavior. Retries are an attempt
// loop inside a single logical request: only the final attempt's sample is
// ever recorded, so the sample stream stays one entry per request.
type RetryPolicy struct {
	MaxAttempts int                                        // total attempts including initial try
	BaseDelay   time.Duration                              // first backoff step
	MaxDelay    time.Duration                              // backoff ceiling
	ShouldRetry func(s sample.Sample) bool                 // predicate; if nil, DefaultShouldRetry applies
	DelayFunc   func(attempt int) time.Duration            // dynamic backoff; attempt is 1-based
}

// DefaultRetryPolicy retries transient transport failures and retryable HTTP
// statuses with exponential backoff and jitter.
func DefaultRetryPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: retries + 1,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// DefaultShouldRetry treats connect failures, timeouts, unclassified
// transport errors, 429 and 5xx responses as retryable. DNS failures are not:
// a name that does not resolve will not resolve on the next attempt either.
func DefaultShouldRetry(s sample.Sample) bool {
	switch s.Failure {
	case sample.KindConnect, sample.KindTimeout, sample.KindOther:
		return true
	}
	if s.StatusCode == 429 || s.StatusCode >= 500 {
		return true
	}
	return false
}

func (p RetryPolicy) shouldRetry(s sample.Sample) bool {
	if p.ShouldRetry != nil {
		return p.ShouldRetry(s)
	}
	return DefaultShouldRetry(s)
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.DelayFunc != nil {
		return p.DelayFunc(attempt)
	}
	base := p.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	ceiling := p.MaxDelay
	if ceiling <= 0 {
		ceiling = 5 * time.Second
	}
	backoff := base << uint(attempt-1)
	if backoff > ceiling || backoff <= 0 {
		backoff = ceiling
	}
	// Full jitter keeps retry storms from synchronizing.
	return time.Duration(rand.Int63n(int64(backoff)) + 1)
}

// ExecuteWithRetry runs attempts under the policy until one is acceptable or
// the attempt budget is spent, returning the final attempt's sample.
func (e *Executor) ExecuteWithRetry(ctx context.Context, seq int64, policy RetryPolicy) sample.Sample {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last sample.Sample
	for attempt := 1; attempt <= attempts; attempt++ {
		last = e.Execute(ctx, seq)
		if attempt == attempts || !policy.shouldRetry(last) {
			return last
		}
		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			return last
		}
	}
	return last
}
