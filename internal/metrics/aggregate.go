package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/httpblast/httpblast/internal/sample"
)

// histogramBuckets is the maximum number of latency histogram rows in a
// report. Fewer are produced when the sample count or spread is small.
const histogramBuckets = 10

// LatencyStats holds the latency distribution of a finished run. Percentiles
// are exact: computed by linear interpolation over the full sorted latency
// set, not from the collector's compressed histogram.
type LatencyStats struct {
	Min    time.Duration `json:"-"`
	Max    time.Duration `json:"-"`
	Mean   time.Duration `json:"-"`
	StdDev time.Duration `json:"-"`
	P50    time.Duration `json:"-"`
	P90    time.Duration `json:"-"`
	P95    time.Duration `json:"-"`
	P99    time.Duration `json:"-"`

	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	MeanMs   float64 `json:"mean_ms"`
	StdDevMs float64 `json:"stddev_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P90Ms    float64 `json:"p90_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// HistogramBucket is one row of the latency distribution.
type HistogramBucket struct {
	FromMs float64 `json:"from_ms"`
	ToMs   float64 `json:"to_ms"`
	Count  int64   `json:"count"`
}

// PhaseStats holds average per-phase timings across the samples where the
// phase actually ran.
type PhaseStats struct {
	AvgDNS     time.Duration `json:"-"`
	AvgConnect time.Duration `json:"-"`
	AvgTTFB    time.Duration `json:"-"`

	AvgDNSMs     float64 `json:"avg_dns_ms"`
	AvgConnectMs float64 `json:"avg_connect_ms"`
	AvgTTFBMs    float64 `json:"avg_ttfb_ms"`

	DNSCount     int64 `json:"dns_count"`
	ConnectCount int64 `json:"connect_count"`
	TTFBCount    int64 `json:"ttfb_count"`
}

// Report is the final aggregation of a run. It is a pure function of the
// sample stream and the wall-clock duration, so a report recomputed from an
// exported stream matches the one printed at the end of the live run.
type Report struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	Wall           time.Duration `json:"-"`
	WallMs         float64       `json:"wall_ms"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	ThroughputMbps float64       `json:"throughput_mbps"`
	Bytes          int64         `json:"bytes"`

	Latency   LatencyStats      `json:"latency"`
	Histogram []HistogramBucket `json:"histogram,omitempty"`
	Phases    PhaseStats        `json:"phases"`

	StatusCodes    []StatusBucket   `json:"status_codes,omitempty"`
	FailuresByKind map[string]int64 `json:"failures_by_kind,omitempty"`
	ErrorDetails   map[string]int64 `json:"error_details,omitempty"`
}

// BuildReport aggregates a sealed sample stream into the final report.
func BuildReport(samples []sample.Sample, wall time.Duration) Report {
	report := Report{
		Wall:   wall,
		WallMs: float64(wall) / float64(time.Millisecond),
		Total:  int64(len(samples)),
	}

	latencies := make([]time.Duration, 0, len(samples))
	statusCodes := make(map[int]int64)
	var dnsSum, connectSum, ttfbSum time.Duration

	for _, s := range samples {
		latencies = append(latencies, s.Latency())
		report.Bytes += s.Bytes
		if s.StatusCode > 0 {
			statusCodes[s.StatusCode]++
		}
		if dns := s.DNSTime(); dns > 0 {
			dnsSum += dns
			report.Phases.DNSCount++
		}
		if conn := s.ConnectTime(); conn > 0 {
			connectSum += conn
			report.Phases.ConnectCount++
		}
		if ttfb := s.TTFB(); ttfb > 0 {
			ttfbSum += ttfb
			report.Phases.TTFBCount++
		}
		if s.Failed() {
			report.Failures++
			if report.FailuresByKind == nil {
				report.FailuresByKind = make(map[string]int64)
			}
			report.FailuresByKind[string(s.Failure)]++
			if s.ErrorType != "" {
				if report.ErrorDetails == nil {
					report.ErrorDetails = make(map[string]int64)
				}
				report.ErrorDetails[FriendlyErrorName(s.ErrorType)]++
			}
		} else {
			report.Successes++
		}
	}

	report.StatusCodes = FlattenStatusCodes(statusCodes)
	report.Latency = buildLatencyStats(latencies)
	report.Histogram = buildHistogram(latencies)

	if report.Phases.DNSCount > 0 {
		report.Phases.AvgDNS = dnsSum / time.Duration(report.Phases.DNSCount)
	}
	if report.Phases.ConnectCount > 0 {
		report.Phases.AvgConnect = connectSum / time.Duration(report.Phases.ConnectCount)
	}
	if report.Phases.TTFBCount > 0 {
		report.Phases.AvgTTFB = ttfbSum / time.Duration(report.Phases.TTFBCount)
	}
	report.Phases.AvgDNSMs = float64(report.Phases.AvgDNS) / float64(time.Millisecond)
	report.Phases.AvgConnectMs = float64(report.Phases.AvgConnect) / float64(time.Millisecond)
	report.Phases.AvgTTFBMs = float64(report.Phases.AvgTTFB) / float64(time.Millisecond)

	if wall > 0 && report.Total > 0 {
		report.RequestsPerSec = float64(report.Total) / wall.Seconds()
		report.ThroughputMbps = float64(report.Bytes) * 8 / wall.Seconds() / 1e6
	}

	return report
}

func buildLatencyStats(latencies []time.Duration) LatencyStats {
	var stats LatencyStats
	if len(latencies) == 0 {
		return stats
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]

	var sum float64
	for _, l := range sorted {
		sum += float64(l)
	}
	mean := sum / float64(len(sorted))
	stats.Mean = time.Duration(mean)

	var variance float64
	for _, l := range sorted {
		d := float64(l) - mean
		variance += d * d
	}
	variance /= float64(len(sorted))
	stats.StdDev = time.Duration(math.Sqrt(variance))

	stats.P50 = Percentile(sorted, 50)
	stats.P90 = Percentile(sorted, 90)
	stats.P95 = Percentile(sorted, 95)
	stats.P99 = Percentile(sorted, 99)

	stats.MinMs = float64(stats.Min) / float64(time.Millisecond)
	stats.MaxMs = float64(stats.Max) / float64(time.Millisecond)
	stats.MeanMs = float64(stats.Mean) / float64(time.Millisecond)
	stats.StdDevMs = float64(stats.StdDev) / float64(time.Millisecond)
	stats.P50Ms = float64(stats.P50) / float64(time.Millisecond)
	stats.P90Ms = float64(stats.P90) / float64(time.Millisecond)
	stats.P95Ms = float64(stats.P95) / float64(time.Millisecond)
	stats.P99Ms = float64(stats.P99) / float64(time.Millisecond)

	return stats
}

// Percentile computes the p-th percentile of an ascending-sorted latency set
// using linear interpolation between the two nearest ranks. For a single
// sample every percentile is that sample.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + time.Duration(frac*float64(sorted[hi]-sorted[lo]))
}

// buildHistogram splits the latency range into equal-width buckets. A
// degenerate spread (all samples equal) collapses to a single bucket.
func buildHistogram(latencies []time.Duration) []HistogramBucket {
	if len(latencies) == 0 {
		return nil
	}

	min, max := latencies[0], latencies[0]
	for _, l := range latencies {
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}

	if min == max {
		return []HistogramBucket{{
			FromMs: float64(min) / float64(time.Millisecond),
			ToMs:   float64(max) / float64(time.Millisecond),
			Count:  int64(len(latencies)),
		}}
	}

	bins := histogramBuckets
	if len(latencies) < bins {
		bins = len(latencies)
	}
	width := float64(max-min) / float64(bins)

	buckets := make([]HistogramBucket, bins)
	for i := range buckets {
		buckets[i].FromMs = (float64(min) + float64(i)*width) / float64(time.Millisecond)
		buckets[i].ToMs = (float64(min) + float64(i+1)*width) / float64(time.Millisecond)
	}
	for _, l := range latencies {
		idx := int(float64(l-min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		buckets[idx].Count++
	}
	return buckets
}
