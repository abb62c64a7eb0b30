package executor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/httpblast/httpblast/internal/config"
	"github.com/httpblast/httpblast/internal/sample"
)

func testConfig(target string) *config.Config {
	return &config.Config{
		TargetURL:   target,
		Method:      "GET",
		Timeout:     5 * time.Second,
		Concurrency: 1,
		Requests:    1,
	}
}

func TestExecuteRecordsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello world"))
	}))
	defer server.Close()

	exec, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	s := exec.Execute(context.Background(), 7)
	if s.Failed() {
		t.Fatalf("unexpected failure: %+v", s)
	}
	if s.Seq != 7 {
		t.Fatalf("seq not carried: %d", s.Seq)
	}
	if s.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", s.StatusCode)
	}
	if s.Bytes != int64(len("hello world")) {
		t.Fatalf("unexpected byte count: %d", s.Bytes)
	}
	if s.Latency() <= 0 {
		t.Fatalf("latency must be positive, got %s", s.Latency())
	}
	if s.ConnectStart.IsZero() || s.ConnectDone.IsZero() {
		t.Fatal("expected connect phase timestamps for a fresh connection")
	}
	if s.FirstByte.IsZero() {
		t.Fatal("expected first byte timestamp")
	}
	if s.TTFB() <= 0 || s.TTFB() > s.Latency() {
		t.Fatalf("ttfb out of range: ttfb=%s latency=%s", s.TTFB(), s.Latency())
	}
}

func TestExecuteHTTPErrorIsMeasurementByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	exec, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	s := exec.Execute(context.Background(), 1)
	if s.Failed() {
		t.Fatalf("500 should be a measurement, got failure %q", s.Failure)
	}
	if s.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", s.StatusCode)
	}
}

func TestExecuteFailHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.FailHTTPErrors = true
	exec, err := New(cfg)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	s := exec.Execute(context.Background(), 1)
	if !s.Failed() || s.Failure != sample.KindHTTPError {
		t.Fatalf("expected http_error failure, got %+v", s)
	}
	if s.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status must be preserved on http failures: %d", s.StatusCode)
	}
}

func TestExecuteConnectionRefused(t *testing.T) {
	// Reserve a port, then close the listener so nothing accepts.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	target := "http://" + ln.Addr().String() + "/"
	_ = ln.Close()

	exec, err := New(testConfig(target))
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	s := exec.Execute(context.Background(), 1)
	if !s.Failed() {
		t.Fatal("expected failure for refused connection")
	}
	if s.Failure != sample.KindConnect {
		t.Fatalf("expected connect failure, got %q", s.Failure)
	}
	if s.ErrorType == "" {
		t.Fatal("expected error type to be recorded")
	}
	if s.Latency() <= 0 {
		t.Fatalf("failed samples still carry latency, got %s", s.Latency())
	}
	if s.StatusCode != 0 {
		t.Fatalf("no status for transport failures, got %d", s.StatusCode)
	}
}

func TestExecuteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 30 * time.Millisecond
	exec, err := New(cfg)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	s := exec.Execute(context.Background(), 1)
	if s.Failure != sample.KindTimeout {
		t.Fatalf("expected timeout failure, got %q (%s)", s.Failure, s.ErrorType)
	}
}

func TestExecuteSendsConfiguredHeadersInOrder(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Values("X-Tag")
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Headers = []config.Header{
		{Key: "X-Tag", Value: "first"},
		{Key: "X-Tag", Value: "second"},
	}
	exec, err := New(cfg)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	if s := exec.Execute(context.Background(), 1); s.Failed() {
		t.Fatalf("request failed: %+v", s)
	}
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("duplicate headers not preserved in order: %v", got)
	}
}

func TestExecuteFreshConnectionPerRequestByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	exec, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	first := exec.Execute(context.Background(), 1)
	second := exec.Execute(context.Background(), 2)
	if first.Reused || second.Reused {
		t.Fatal("keepalive disabled by default, connections must not be reused")
	}
	if second.ConnectStart.IsZero() {
		t.Fatal("second request should dial a fresh connection")
	}
}

func TestExecuteKeepAliveReusesConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.KeepAlive = true
	exec, err := New(cfg)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	_ = exec.Execute(context.Background(), 1)
	second := exec.Execute(context.Background(), 2)
	if !second.Reused {
		t.Fatal("expected pooled connection reuse with keepalive enabled")
	}
}

func TestExecuteWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	policy := DefaultRetryPolicy(3)
	policy.DelayFunc = func(int) time.Duration { return time.Millisecond }
	s := exec.ExecuteWithRetry(context.Background(), 1, policy)
	if s.StatusCode != http.StatusOK {
		t.Fatalf("expected eventual success, got %d", s.StatusCode)
	}
	if atomic.LoadInt64(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestExecuteWithRetryDoesNotRetryClientErrors(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer server.Close()

	exec, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	policy := DefaultRetryPolicy(5)
	policy.DelayFunc = func(int) time.Duration { return time.Millisecond }
	s := exec.ExecuteWithRetry(context.Background(), 1, policy)
	if s.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", s.StatusCode)
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", hits)
	}
}

func TestExecuteWithRetryStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	exec, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	policy := DefaultRetryPolicy(10)
	policy.DelayFunc = func(int) time.Duration { return time.Hour }
	start := time.Now()
	_ = exec.ExecuteWithRetry(ctx, 1, policy)
	if time.Since(start) > time.Second {
		t.Fatal("cancelled retry loop must return promptly")
	}
}
