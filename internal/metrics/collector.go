package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/httpblast/httpblast/internal/sample"
)

// Collector records per-request metrics in a thread-safe manner. It exists
// for live consumers (progress line, dashboard) that need running stats while
// the test executes; the authoritative end-of-run numbers come from
// BuildReport over the sealed sample stream.
type Collector struct {
	mu             sync.Mutex
	hist           *hdrhistogram.Histogram
	successes      int64
	failures       int64
	minLatency     time.Duration
	maxLatency     time.Duration
	sumLatency     time.Duration
	bytes          int64
	failuresByKind map[sample.FailureKind]int64
	statusCodes    map[int]int64
	errorsByType   map[string]int64
	dnsSum         time.Duration
	dnsCount       int64
	connectSum     time.Duration
	connectCount   int64
	ttfbSum        time.Duration
	ttfbCount      int64
	start          time.Time
}

// Stats represents aggregated metrics at a point in time.
type Stats struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	MeanLatency    time.Duration `json:"-"`
	P50Latency     time.Duration `json:"-"`
	P90Latency     time.Duration `json:"-"`
	P95Latency     time.Duration `json:"-"`
	P99Latency     time.Duration `json:"-"`
	Duration       time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	ThroughputMbps float64       `json:"throughput_mbps"`
	Bytes          int64         `json:"bytes"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`

	// Running phase averages over the samples where the phase ran.
	AvgDNSMs     float64 `json:"avg_dns_ms"`
	AvgConnectMs float64 `json:"avg_connect_ms"`
	AvgTTFBMs    float64 `json:"avg_ttfb_ms"`

	FailuresByKind map[string]int64 `json:"failures_by_kind,omitempty"`
	StatusCodes    map[int]int64    `json:"status_codes,omitempty"`
	Errors         map[string]int   `json:"errors,omitempty"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:           h,
		failuresByKind: make(map[sample.FailureKind]int64),
		statusCodes:    make(map[int]int64),
		errorsByType:   make(map[string]int64),
		start:          time.Now(),
	}
}

// Start marks the beginning of the measured window for RPS calculation.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Elapsed returns the time since the measured window began.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// Record folds one completed sample into the running aggregates.
func (c *Collector) Record(s sample.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	latency := s.Latency()
	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	c.bytes += s.Bytes
	if s.StatusCode > 0 {
		c.statusCodes[s.StatusCode]++
	}

	if dns := s.DNSTime(); dns > 0 {
		c.dnsSum += dns
		c.dnsCount++
	}
	if conn := s.ConnectTime(); conn > 0 {
		c.connectSum += conn
		c.connectCount++
	}
	if ttfb := s.TTFB(); ttfb > 0 {
		c.ttfbSum += ttfb
		c.ttfbCount++
	}

	if s.Failed() {
		c.failures++
		c.failuresByKind[s.Failure]++
		if s.ErrorType != "" {
			c.errorsByType[s.ErrorType]++
		}
	} else {
		c.successes++
	}
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	stats := Stats{
		Total:      total,
		Successes:  c.successes,
		Failures:   c.failures,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
		Bytes:      c.bytes,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = float64(stats.MinLatency) / float64(time.Millisecond)
	stats.MaxLatencyMs = float64(stats.MaxLatency) / float64(time.Millisecond)
	stats.MeanLatencyMs = float64(stats.MeanLatency) / float64(time.Millisecond)
	stats.P50LatencyMs = float64(stats.P50Latency) / float64(time.Millisecond)
	stats.P90LatencyMs = float64(stats.P90Latency) / float64(time.Millisecond)
	stats.P95LatencyMs = float64(stats.P95Latency) / float64(time.Millisecond)
	stats.P99LatencyMs = float64(stats.P99Latency) / float64(time.Millisecond)

	if c.dnsCount > 0 {
		stats.AvgDNSMs = float64(c.dnsSum) / float64(c.dnsCount) / float64(time.Millisecond)
	}
	if c.connectCount > 0 {
		stats.AvgConnectMs = float64(c.connectSum) / float64(c.connectCount) / float64(time.Millisecond)
	}
	if c.ttfbCount > 0 {
		stats.AvgTTFBMs = float64(c.ttfbSum) / float64(c.ttfbCount) / float64(time.Millisecond)
	}

	stats.Duration = elapsed
	stats.DurationMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 && total > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
		stats.ThroughputMbps = float64(c.bytes) * 8 / elapsed.Seconds() / 1e6
	}

	if len(c.failuresByKind) > 0 {
		stats.FailuresByKind = make(map[string]int64, len(c.failuresByKind))
		for k, v := range c.failuresByKind {
			stats.FailuresByKind[string(k)] = v
		}
	}
	if len(c.statusCodes) > 0 {
		stats.StatusCodes = make(map[int]int64, len(c.statusCodes))
		for k, v := range c.statusCodes {
			stats.StatusCodes[k] = v
		}
	}
	if len(c.errorsByType) > 0 {
		stats.Errors = make(map[string]int, len(c.errorsByType))
		for k, v := range c.errorsByType {
			stats.Errors[FriendlyErrorName(k)] += int(v)
		}
	}

	return stats
}
