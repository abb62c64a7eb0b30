package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/httpblast/httpblast/internal/metrics"
	"github.com/httpblast/httpblast/internal/sample"
)

// histogramBarWidth is the width of the widest histogram bar in characters.
const histogramBarWidth = 40

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	sectionColor = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	barColor     = color.New(color.FgBlue)
)

// PrintReport writes the human-readable end-of-run report.
func PrintReport(w io.Writer, meta sample.RunMeta, report metrics.Report) {
	fmt.Fprintln(w)
	headerColor.Fprintln(w, "--- Load Test Results ---")
	if meta.Target != "" {
		fmt.Fprintf(w, "Target:            %s\n", meta.Target)
	}
	fmt.Fprintf(w, "Total Requests:    %d\n", report.Total)
	fmt.Fprintf(w, "Successful:        %s\n", okColor.Sprintf("%d", report.Successes))
	if report.Failures > 0 {
		fmt.Fprintf(w, "Failed:            %s\n", failColor.Sprintf("%d", report.Failures))
	} else {
		fmt.Fprintf(w, "Failed:            %d\n", report.Failures)
	}
	fmt.Fprintf(w, "Wall Time:         %s\n", report.Wall)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", report.RequestsPerSec)
	fmt.Fprintf(w, "Throughput:        %.2f Mbps (%d bytes)\n", report.ThroughputMbps, report.Bytes)

	if report.Total > 0 {
		fmt.Fprintln(w)
		sectionColor.Fprintln(w, "Latency (ms):")
		lat := report.Latency
		fmt.Fprintf(w, "  Min:             %.2f\n", lat.MinMs)
		fmt.Fprintf(w, "  Mean:            %.2f\n", lat.MeanMs)
		fmt.Fprintf(w, "  Max:             %.2f\n", lat.MaxMs)
		fmt.Fprintf(w, "  StdDev:          %.2f\n", lat.StdDevMs)
		fmt.Fprintf(w, "  P50:             %.2f\n", lat.P50Ms)
		fmt.Fprintf(w, "  P90:             %.2f\n", lat.P90Ms)
		fmt.Fprintf(w, "  P95:             %.2f\n", lat.P95Ms)
		fmt.Fprintf(w, "  P99:             %.2f\n", lat.P99Ms)
	}

	if len(report.Histogram) > 0 {
		fmt.Fprintln(w)
		sectionColor.Fprintln(w, "Latency Distribution:")
		writeHistogram(w, report.Histogram)
	}

	if len(report.StatusCodes) > 0 {
		fmt.Fprintln(w)
		sectionColor.Fprintln(w, "Status Codes:")
		for _, row := range report.StatusCodes {
			line := fmt.Sprintf("  %d: %d", row.Code, row.Count)
			if row.Code >= 400 {
				line = failColor.Sprint(line)
			}
			fmt.Fprintln(w, line)
		}
	}

	if len(report.FailuresByKind) > 0 {
		fmt.Fprintln(w)
		sectionColor.Fprintln(w, "Failures:")
		for _, kind := range []string{"dns", "connect", "timeout", "http_error", "other"} {
			if count, ok := report.FailuresByKind[kind]; ok {
				failColor.Fprintf(w, "  %-12s %d\n", kind+":", count)
			}
		}
		for name, count := range report.ErrorDetails {
			fmt.Fprintf(w, "    %s: %d\n", name, count)
		}
	}

	if report.Phases.DNSCount > 0 || report.Phases.ConnectCount > 0 || report.Phases.TTFBCount > 0 {
		fmt.Fprintln(w)
		sectionColor.Fprintln(w, "Phase Timings (avg):")
		if report.Phases.DNSCount > 0 {
			fmt.Fprintf(w, "  DNS Lookup:      %.2f ms (n=%d)\n", report.Phases.AvgDNSMs, report.Phases.DNSCount)
		}
		if report.Phases.ConnectCount > 0 {
			fmt.Fprintf(w, "  TCP Connect:     %.2f ms (n=%d)\n", report.Phases.AvgConnectMs, report.Phases.ConnectCount)
		}
		if report.Phases.TTFBCount > 0 {
			fmt.Fprintf(w, "  First Byte:      %.2f ms (n=%d)\n", report.Phases.AvgTTFBMs, report.Phases.TTFBCount)
		}
	}
}

func writeHistogram(w io.Writer, buckets []metrics.HistogramBucket) {
	var peak int64
	for _, b := range buckets {
		if b.Count > peak {
			peak = b.Count
		}
	}
	if peak == 0 {
		return
	}
	for _, b := range buckets {
		width := int(float64(b.Count) / float64(peak) * histogramBarWidth)
		if b.Count > 0 && width == 0 {
			width = 1
		}
		bar := barColor.Sprint(strings.Repeat("█", width))
		fmt.Fprintf(w, "  %8.1f - %8.1f ms  %s %d\n", b.FromMs, b.ToMs, bar, b.Count)
	}
}

// jsonReport is the machine-readable envelope: run identity plus the full
// aggregation.
type jsonReport struct {
	RunID  string         `json:"run_id,omitempty"`
	Target string         `json:"target,omitempty"`
	Report metrics.Report `json:"report"`
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, meta sample.RunMeta, report metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{RunID: meta.RunID, Target: meta.Target, Report: report})
}
