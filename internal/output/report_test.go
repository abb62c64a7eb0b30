package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/httpblast/httpblast/internal/metrics"
	"github.com/httpblast/httpblast/internal/sample"
)

func testReport() (sample.RunMeta, metrics.Report) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := []sample.Sample{
		{Seq: 0, Start: start, Done: start.Add(10 * time.Millisecond), StatusCode: 200, Bytes: 1000},
		{Seq: 1, Start: start, Done: start.Add(20 * time.Millisecond), StatusCode: 200, Bytes: 1000},
		{Seq: 2, Start: start, Done: start.Add(40 * time.Millisecond), StatusCode: 503, Bytes: 50},
		{Seq: 3, Start: start, Done: start.Add(30 * time.Millisecond), Failure: sample.KindConnect, ErrorType: "net.OpError"},
	}
	meta := sample.RunMeta{RunID: "01TESTRUN", Target: "http://localhost:8080/api", Started: start, Wall: time.Second}
	return meta, metrics.BuildReport(samples, time.Second)
}

func TestPrintReportSections(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	meta, report := testReport()
	var buf bytes.Buffer
	PrintReport(&buf, meta, report)
	out := buf.String()

	for _, want := range []string{
		"--- Load Test Results ---",
		"Target:            http://localhost:8080/api",
		"Total Requests:    4",
		"Successful:        3",
		"Failed:            1",
		"Requests/sec:      4.00",
		"Latency (ms):",
		"Latency Distribution:",
		"Status Codes:",
		"200: 2",
		"503: 1",
		"Failures:",
		"connect:",
		"Network operation error: 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportHistogramBars(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	meta, report := testReport()
	var buf bytes.Buffer
	PrintReport(&buf, meta, report)
	if !strings.Contains(buf.String(), "█") {
		t.Fatalf("expected histogram bars in report:\n%s", buf.String())
	}
}

func TestPrintJSONReport(t *testing.T) {
	meta, report := testReport()
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, meta, report); err != nil {
		t.Fatalf("print json: %v", err)
	}

	var decoded struct {
		RunID  string `json:"run_id"`
		Target string `json:"target"`
		Report struct {
			Total   int64 `json:"total"`
			Latency struct {
				P99Ms float64 `json:"p99_ms"`
			} `json:"latency"`
		} `json:"report"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if decoded.RunID != "01TESTRUN" || decoded.Target != "http://localhost:8080/api" {
		t.Fatalf("meta not embedded: %+v", decoded)
	}
	if decoded.Report.Total != 4 {
		t.Fatalf("unexpected total: %d", decoded.Report.Total)
	}
	if decoded.Report.Latency.P99Ms <= 0 {
		t.Fatalf("expected positive p99, got %f", decoded.Report.Latency.P99Ms)
	}
}
