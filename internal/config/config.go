package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Header is one request header entry. Headers form an ordered list so that
// insertion order is preserved and duplicate keys are allowed.
type Header struct {
	Key   string `mapstructure:"key"`
	Value string `mapstructure:"value"`
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

// TracingConfig enables OTLP span export for each request.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Propagate   bool    `mapstructure:"propagate"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

// Config holds the full run configuration. It is immutable once a run starts.
type Config struct {
	TargetURL      string        `mapstructure:"target"`
	Method         string        `mapstructure:"method"`
	Headers        []Header      `mapstructure:"-"`
	Body           string        `mapstructure:"body"`
	BodyFile       string        `mapstructure:"body_file"`
	Requests       int           `mapstructure:"requests"` // fixed-count termination
	Duration       time.Duration `mapstructure:"duration"` // fixed-duration termination
	Concurrency    int           `mapstructure:"concurrency"`
	Rate           int           `mapstructure:"rate"`
	Timeout        time.Duration `mapstructure:"timeout"`
	DrainTimeout   time.Duration `mapstructure:"drain_timeout"`
	Retries        int           `mapstructure:"retries"`
	KeepAlive      bool          `mapstructure:"keepalive"`
	FailHTTPErrors bool          `mapstructure:"fail_http_errors"`
	OutputPath     string        `mapstructure:"output"`
	HTMLOutput     string        `mapstructure:"html_output"`
	JSONOutput     bool          `mapstructure:"json_output"`
	Dashboard      bool          `mapstructure:"dashboard"`
	LogErrors      bool          `mapstructure:"log_errors"`
	ConfigFile     string        `mapstructure:"-"`
	Arrival        ArrivalConfig `mapstructure:"arrival"`
	Tracing        TracingConfig `mapstructure:"tracing"`
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string
	var warnings []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "target URL is required (use --help for usage information)")
	} else {
		parsed, err := url.Parse(target)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			issues = append(issues, fmt.Sprintf("target %q must be a valid http:// or https:// URL", target))
		}
	}

	switch {
	case c.Requests > 0 && c.Duration > 0:
		issues = append(issues, "requests (-n) and duration (-t) are mutually exclusive")
	case c.Requests <= 0 && c.Duration <= 0:
		issues = append(issues, "exactly one of requests (-n) or duration (-t) is required")
	}
	if c.Requests < 0 {
		issues = append(issues, "requests must be >= 1")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be > 0")
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.DrainTimeout < 0 {
		issues = append(issues, "drain-timeout must be >= 0")
	}
	if c.Retries < 0 {
		issues = append(issues, "retries must be >= 0")
	}
	if strings.TrimSpace(c.Body) != "" && strings.TrimSpace(c.BodyFile) != "" {
		issues = append(issues, "body and body file are mutually exclusive")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}

	for i, h := range c.Headers {
		key := strings.TrimSpace(h.Key)
		if key == "" {
			issues = append(issues, fmt.Sprintf("headers[%d]: key cannot be empty", i))
			continue
		}
		if strings.ContainsAny(key, "\r\n") || strings.ContainsAny(h.Value, "\r\n") {
			issues = append(issues, fmt.Sprintf("headers[%d]: %q contains invalid characters", i, key))
		}
	}

	issues = append(issues, validateArrivalConfig(c.Arrival)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	// Load safety warnings, mirroring the two-tier error model: these do not
	// stop the run.
	if c.Rate > 1000 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High rate limit configured (%d RPS). Ensure you have authorization to test the target system.", c.Rate))
	}
	if c.Concurrency > 500 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High concurrency configured (%d workers). Ensure you have authorization to test the target system.", c.Concurrency))
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateArrivalConfig(arr ArrivalConfig) []string {
	model := arr.Model
	if model == "" {
		model = ArrivalModelUniform
	}
	switch model {
	case ArrivalModelUniform, ArrivalModelPoisson:
		return nil
	default:
		return []string{fmt.Sprintf("arrival model %q is not supported", model)}
	}
}

func validateTracingConfig(tr TracingConfig) []string {
	var issues []string
	if !tr.Enabled() {
		return nil
	}
	protocol := strings.ToLower(strings.TrimSpace(tr.Protocol))
	if protocol != "" && protocol != "grpc" && protocol != "http" {
		issues = append(issues, fmt.Sprintf("tracing: protocol must be \"grpc\" or \"http\", got %q", tr.Protocol))
	}
	if tr.SampleRate < 0 || tr.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", tr.SampleRate))
	}
	return issues
}
