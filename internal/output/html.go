package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/httpblast/httpblast/internal/metrics"
	"github.com/httpblast/httpblast/internal/sample"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt string
	Meta        sample.RunMeta
	Report      metrics.Report
	BarScale    float64
}

// GenerateHTMLReport renders a standalone HTML report for a finished run.
func GenerateHTMLReport(w io.Writer, meta sample.RunMeta, report metrics.Report) error {
	var peak int64
	for _, b := range report.Histogram {
		if b.Count > peak {
			peak = b.Count
		}
	}
	scale := 1.0
	if peak > 0 {
		scale = 100.0 / float64(peak)
	}

	data := HTMLReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Meta:        meta,
		Report:      report,
		BarScale:    scale,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
		"barWidth": func(count int64) string {
			return fmt.Sprintf("%.1f", float64(count)*scale)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Load Test Report</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2430; }
  h1 { font-size: 1.5rem; }
  h2 { font-size: 1.1rem; margin-top: 2rem; border-bottom: 1px solid #d9dee7; padding-bottom: 0.3rem; }
  .meta { color: #5c6470; font-size: 0.9rem; }
  .cards { display: flex; flex-wrap: wrap; gap: 1rem; margin-top: 1rem; }
  .card { border: 1px solid #d9dee7; border-radius: 8px; padding: 0.8rem 1.2rem; min-width: 140px; }
  .card .label { color: #5c6470; font-size: 0.8rem; text-transform: uppercase; }
  .card .value { font-size: 1.4rem; font-weight: 600; }
  .ok { color: #1a7f37; }
  .fail { color: #cf222e; }
  table { border-collapse: collapse; width: 100%; margin-top: 0.8rem; }
  th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #eceff4; font-size: 0.9rem; }
  th { color: #5c6470; font-weight: 600; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .bar { background: #4a7dff; height: 0.9rem; border-radius: 2px; display: inline-block; }
</style>
</head>
<body>
<h1>Load Test Report</h1>
<p class="meta">
  Target: <strong>{{.Meta.Target}}</strong><br>
  Run ID: {{.Meta.RunID}}<br>
  Generated: {{.GeneratedAt}}
</p>

<div class="cards">
  <div class="card"><div class="label">Total</div><div class="value">{{.Report.Total}}</div></div>
  <div class="card"><div class="label">Successful</div><div class="value ok">{{.Report.Successes}}</div></div>
  <div class="card"><div class="label">Failed</div><div class="value{{if gt .Report.Failures 0}} fail{{end}}">{{.Report.Failures}}</div></div>
  <div class="card"><div class="label">Requests/sec</div><div class="value">{{formatFloat .Report.RequestsPerSec}}</div></div>
  <div class="card"><div class="label">Throughput</div><div class="value">{{formatFloat .Report.ThroughputMbps}} Mbps</div></div>
</div>

<h2>Latency (ms)</h2>
<table>
  <tr><th>Min</th><th>Mean</th><th>Max</th><th>StdDev</th><th>P50</th><th>P90</th><th>P95</th><th>P99</th></tr>
  <tr>
    <td class="num">{{formatFloat .Report.Latency.MinMs}}</td>
    <td class="num">{{formatFloat .Report.Latency.MeanMs}}</td>
    <td class="num">{{formatFloat .Report.Latency.MaxMs}}</td>
    <td class="num">{{formatFloat .Report.Latency.StdDevMs}}</td>
    <td class="num">{{formatFloat .Report.Latency.P50Ms}}</td>
    <td class="num">{{formatFloat .Report.Latency.P90Ms}}</td>
    <td class="num">{{formatFloat .Report.Latency.P95Ms}}</td>
    <td class="num">{{formatFloat .Report.Latency.P99Ms}}</td>
  </tr>
</table>

{{if .Report.Histogram}}
<h2>Latency Distribution</h2>
<table>
  <tr><th>Range (ms)</th><th>Count</th><th></th></tr>
  {{range .Report.Histogram}}
  <tr>
    <td class="num">{{formatFloat .FromMs}} &ndash; {{formatFloat .ToMs}}</td>
    <td class="num">{{.Count}}</td>
    <td><span class="bar" style="width: {{barWidth .Count}}%"></span></td>
  </tr>
  {{end}}
</table>
{{end}}

{{if .Report.StatusCodes}}
<h2>Status Codes</h2>
<table>
  <tr><th>Code</th><th>Count</th><th>Share</th></tr>
  {{range .Report.StatusCodes}}
  <tr>
    <td{{if ge .Code 400}} class="fail"{{end}}>{{.Code}}</td>
    <td class="num">{{.Count}}</td>
    <td class="num">{{formatPercent .Count $.Report.Total}}%</td>
  </tr>
  {{end}}
</table>
{{end}}

{{if .Report.FailuresByKind}}
<h2>Failures</h2>
<table>
  <tr><th>Kind</th><th>Count</th></tr>
  {{range $kind, $count := .Report.FailuresByKind}}
  <tr><td class="fail">{{$kind}}</td><td class="num">{{$count}}</td></tr>
  {{end}}
</table>
{{end}}

{{if .Report.ErrorDetails}}
<h2>Error Details</h2>
<table>
  <tr><th>Error</th><th>Count</th></tr>
  {{range $name, $count := .Report.ErrorDetails}}
  <tr><td>{{$name}}</td><td class="num">{{$count}}</td></tr>
  {{end}}
</table>
{{end}}

<h2>Phase Timings (avg)</h2>
<table>
  <tr><th>Phase</th><th>Avg (ms)</th><th>Samples</th></tr>
  <tr><td>DNS Lookup</td><td class="num">{{formatFloat .Report.Phases.AvgDNSMs}}</td><td class="num">{{.Report.Phases.DNSCount}}</td></tr>
  <tr><td>TCP Connect</td><td class="num">{{formatFloat .Report.Phases.AvgConnectMs}}</td><td class="num">{{.Report.Phases.ConnectCount}}</td></tr>
  <tr><td>First Byte</td><td class="num">{{formatFloat .Report.Phases.AvgTTFBMs}}</td><td class="num">{{.Report.Phases.TTFBCount}}</td></tr>
</table>
</body>
</html>
`
