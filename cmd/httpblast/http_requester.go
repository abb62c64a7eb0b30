package main

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/httpblast/httpblast/internal/executor"
	"github.com/httpblast/httpblast/internal/metrics"
	"github.com/httpblast/httpblast/internal/sample"
	"github.com/httpblast/httpblast/internal/tracing"
)

// httpRequester implements runner.Requester. One Do call is one logical
// request producing exactly one sample, regardless of retry attempts.
type httpRequester struct {
	exec      *executor.Executor
	stream    *sample.Stream
	collector *metrics.Collector
	retry     *executor.RetryPolicy
	tracer    trace.Tracer
	method    string
	target    string
	seq       atomic.Int64
}

func (r *httpRequester) Do(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	seq := r.seq.Add(1)

	var span trace.Span
	if r.tracer != nil {
		ctx, span = tracing.StartRequestSpan(ctx, r.tracer, r.method, r.target)
	}

	var s sample.Sample
	if r.retry != nil {
		s = r.exec.ExecuteWithRetry(ctx, seq, *r.retry)
	} else {
		s = r.exec.Execute(ctx, seq)
	}

	if span != nil {
		attrs := []attribute.KeyValue{
			attribute.Int64("http.response.body.size", s.Bytes),
		}
		if s.StatusCode > 0 {
			attrs = append(attrs, attribute.Int("http.response.status_code", s.StatusCode))
		}
		tracing.EndSpan(span, s.Err(), attrs...)
	}

	// A sample completing after the stream is sealed belongs to a forcibly
	// drained request; it is dropped so the finalized results never change.
	if err := r.stream.Append(s); err != nil {
		return s.Err()
	}
	r.collector.Record(s)
	return s.Err()
}
