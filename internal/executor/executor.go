package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/httpblast/httpblast/internal/config"
	"github.com/httpblast/httpblast/internal/sample"
)

// Executor issues single HTTP requests and records one sample per attempt.
// It is safe for concurrent use by multiple workers.
type Executor struct {
	builder        *RequestBuilder
	client         *http.Client
	failHTTPErrors bool
	inject         func(context.Context, http.Header)
}

// SetHeaderInjector installs a hook that adds per-request headers, such as
// trace context, to each outgoing request before it is sent.
func (e *Executor) SetHeaderInjector(fn func(context.Context, http.Header)) {
	e.inject = fn
}

func New(cfg *config.Config) (*Executor, error) {
	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		return nil, err
	}
	return &Executor{
		builder:        builder,
		client:         NewClient(cfg.Timeout, cfg.KeepAlive),
		failHTTPErrors: cfg.FailHTTPErrors,
	}, nil
}

// NewWithClient builds an Executor around an existing client, used by tests
// and by callers that need custom transports.
func NewWithClient(builder *RequestBuilder, client *http.Client, failHTTPErrors bool) *Executor {
	return &Executor{builder: builder, client: client, failHTTPErrors: failHTTPErrors}
}

// Execute performs one request attempt and returns its sample. The sample is
// always complete: failures carry a failure kind and their time to terminal
// outcome, successes carry status code, byte count and phase timestamps.
func (e *Executor) Execute(ctx context.Context, seq int64) sample.Sample {
	s := sample.Sample{Seq: seq, Start: time.Now()}

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			s.DNSStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			s.DNSDone = time.Now()
		},
		ConnectStart: func(network, addr string) {
			// Happy Eyeballs can dial more than once; keep the first.
			if s.ConnectStart.IsZero() {
				s.ConnectStart = time.Now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil && s.ConnectDone.IsZero() {
				s.ConnectDone = time.Now()
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			s.Reused = info.Reused
		},
		GotFirstResponseByte: func() {
			s.FirstByte = time.Now()
		},
	}

	req, err := e.builder.Build(httptrace.WithClientTrace(ctx, trace))
	if err != nil {
		return e.fail(s, sample.KindOther, err)
	}
	if e.inject != nil {
		e.inject(ctx, req.Header)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return e.fail(s, Classify(err), err)
	}

	n, readErr := io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	s.Bytes = n
	s.StatusCode = resp.StatusCode

	if readErr != nil {
		return e.fail(s, Classify(readErr), readErr)
	}

	s.Done = time.Now()
	if e.failHTTPErrors && resp.StatusCode >= 400 {
		s.Failure = sample.KindHTTPError
	}
	return s
}

func (e *Executor) fail(s sample.Sample, kind sample.FailureKind, err error) sample.Sample {
	s.Done = time.Now()
	s.Failure = kind
	s.ErrorType = ErrorTypeName(err)
	return s
}
