package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/httpblast/httpblast/internal/config"
	"github.com/httpblast/httpblast/internal/executor"
	"github.com/httpblast/httpblast/internal/metrics"
	"github.com/httpblast/httpblast/internal/sample"
)

func newTestRequester(t *testing.T, cfg *config.Config) *httpRequester {
	t.Helper()
	exec, err := executor.New(cfg)
	if err != nil {
		t.Fatalf("executor.New() error = %v", err)
	}
	return &httpRequester{
		exec:      exec,
		stream:    sample.NewStream(0),
		collector: metrics.NewCollector(),
		method:    cfg.Method,
		target:    cfg.TargetURL,
	}
}

func TestRequesterRecordsOneSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	r := newTestRequester(t, &config.Config{TargetURL: srv.URL, Timeout: 5 * time.Second})
	if err := r.Do(context.Background()); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if got := r.stream.Len(); got != 1 {
		t.Fatalf("stream length = %d, want 1", got)
	}
	s := r.stream.Snapshot()[0]
	if s.Seq != 1 {
		t.Errorf("seq = %d, want 1", s.Seq)
	}
	if s.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", s.StatusCode)
	}

	stats := r.collector.Stats(time.Second)
	if stats.Total != 1 || stats.Successes != 1 {
		t.Errorf("collector stats = %+v, want 1 success", stats)
	}
}

func TestRequesterPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := newTestRequester(t, &config.Config{
		TargetURL:      srv.URL,
		Timeout:        5 * time.Second,
		FailHTTPErrors: true,
	})
	err := r.Do(context.Background())
	if err == nil {
		t.Fatal("Do() should fail for HTTP 502 with fail-http-errors")
	}

	s := r.stream.Snapshot()[0]
	if s.Failure != sample.KindHTTPError {
		t.Errorf("failure kind = %q, want %q", s.Failure, sample.KindHTTPError)
	}
}

func TestRequesterDropsSampleAfterSeal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	r := newTestRequester(t, &config.Config{TargetURL: srv.URL, Timeout: 5 * time.Second})
	r.stream.Seal()

	if err := r.Do(context.Background()); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := r.stream.Len(); got != 0 {
		t.Errorf("sealed stream length = %d, want 0", got)
	}
	if stats := r.collector.Stats(time.Second); stats.Total != 0 {
		t.Errorf("dropped sample must not reach the collector, got total %d", stats.Total)
	}
}

func TestRequesterSequencesAreUnique(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	r := newTestRequester(t, &config.Config{TargetURL: srv.URL, Timeout: 5 * time.Second})

	const n = 24
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = r.Do(context.Background())
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, s := range r.stream.Snapshot() {
		if seen[s.Seq] {
			t.Fatalf("duplicate seq %d", s.Seq)
		}
		seen[s.Seq] = true
	}
	if len(seen) != n {
		t.Errorf("got %d unique seqs, want %d", len(seen), n)
	}
}

func TestRequesterRetriesUntilSuccess(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	r := newTestRequester(t, &config.Config{
		TargetURL:      srv.URL,
		Timeout:        5 * time.Second,
		FailHTTPErrors: true,
	})
	policy := executor.DefaultRetryPolicy(2)
	policy.DelayFunc = func(int) time.Duration { return time.Millisecond }
	r.retry = &policy

	if err := r.Do(context.Background()); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}

	// Only the final attempt is recorded.
	if got := r.stream.Len(); got != 1 {
		t.Fatalf("stream length = %d, want 1", got)
	}
	if s := r.stream.Snapshot()[0]; s.StatusCode != http.StatusOK {
		t.Errorf("recorded status = %d, want 200", s.StatusCode)
	}
}
