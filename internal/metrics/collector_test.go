package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/httpblast/httpblast/internal/sample"
)

func makeSample(seq int64, latency time.Duration, status int, kind sample.FailureKind) sample.Sample {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := sample.Sample{
		Seq:        seq,
		Start:      start,
		Done:       start.Add(latency),
		StatusCode: status,
		Failure:    kind,
	}
	if kind != "" {
		s.ErrorType = "net.OpError"
		s.StatusCode = 0
	}
	return s
}

func TestCollectorCountsOutcomes(t *testing.T) {
	c := NewCollector()
	c.Record(makeSample(1, 10*time.Millisecond, 200, ""))
	c.Record(makeSample(2, 20*time.Millisecond, 500, ""))
	c.Record(makeSample(3, 30*time.Millisecond, 0, sample.KindConnect))

	stats := c.Stats(time.Second)
	if stats.Total != 3 {
		t.Fatalf("expected 3 total, got %d", stats.Total)
	}
	if stats.Successes != 2 {
		t.Fatalf("a 500 without fail-http-errors is a success, got %d successes", stats.Successes)
	}
	if stats.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", stats.Failures)
	}
	if stats.FailuresByKind["connect"] != 1 {
		t.Fatalf("failure kind not tracked: %v", stats.FailuresByKind)
	}
	if stats.StatusCodes[200] != 1 || stats.StatusCodes[500] != 1 {
		t.Fatalf("status codes not tracked: %v", stats.StatusCodes)
	}
}

func TestCollectorLatencyStats(t *testing.T) {
	c := NewCollector()
	for i, lat := range []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond} {
		c.Record(makeSample(int64(i), lat, 200, ""))
	}

	stats := c.Stats(time.Second)
	if stats.MinLatency != 10*time.Millisecond {
		t.Fatalf("unexpected min: %s", stats.MinLatency)
	}
	if stats.MaxLatency != 30*time.Millisecond {
		t.Fatalf("unexpected max: %s", stats.MaxLatency)
	}
	if stats.MeanLatency != 20*time.Millisecond {
		t.Fatalf("unexpected mean: %s", stats.MeanLatency)
	}
	if stats.P50Latency <= 0 || stats.P99Latency < stats.P50Latency {
		t.Fatalf("percentiles inconsistent: p50=%s p99=%s", stats.P50Latency, stats.P99Latency)
	}
}

func TestCollectorRPSAndThroughput(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 10; i++ {
		s := makeSample(int64(i), 5*time.Millisecond, 200, "")
		s.Bytes = 125_000
		c.Record(s)
	}

	stats := c.Stats(time.Second)
	if stats.RequestsPerSec != 10 {
		t.Fatalf("expected 10 rps, got %f", stats.RequestsPerSec)
	}
	// 10 * 125 kB = 1.25 MB = 10 Mbit over one second.
	if stats.ThroughputMbps < 9.99 || stats.ThroughputMbps > 10.01 {
		t.Fatalf("expected ~10 Mbps, got %f", stats.ThroughputMbps)
	}
}

func TestCollectorFriendlyErrorBreakdown(t *testing.T) {
	c := NewCollector()
	s := makeSample(1, time.Millisecond, 0, sample.KindDNS)
	s.ErrorType = "net.DNSError"
	c.Record(s)

	stats := c.Stats(time.Second)
	if stats.Errors["DNS lookup error"] != 1 {
		t.Fatalf("expected friendly error label, got %v", stats.Errors)
	}
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Record(makeSample(int64(g*100+i), time.Millisecond, 200, ""))
			}
		}(g)
	}
	wg.Wait()

	if stats := c.Stats(time.Second); stats.Total != 800 {
		t.Fatalf("expected 800 recorded, got %d", stats.Total)
	}
}
