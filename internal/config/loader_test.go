package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFlagsOnly(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load([]string{
		"-n", "200",
		"-c", "25",
		"-r", "50",
		"-m", "post",
		"-H", "Authorization: Bearer tok",
		"-H", "X-Env: staging",
		"http://localhost:9090/api",
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.TargetURL != "http://localhost:9090/api" {
		t.Fatalf("unexpected target: %q", cfg.TargetURL)
	}
	if cfg.Requests != 200 || cfg.Concurrency != 25 || cfg.Rate != 50 {
		t.Fatalf("unexpected load settings: %+v", cfg)
	}
	if cfg.Method != "POST" {
		t.Fatalf("method not normalized: %q", cfg.Method)
	}
	if len(cfg.Headers) != 3 {
		t.Fatalf("expected 2 custom headers plus default user agent, got %v", cfg.Headers)
	}
	if cfg.Headers[0].Key != "Authorization" || cfg.Headers[1].Key != "X-Env" {
		t.Fatalf("header order not preserved: %v", cfg.Headers)
	}
}

func TestLoadAddsDefaultUserAgent(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load([]string{"-n", "1", "http://localhost/"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !hasHeader(cfg.Headers, "User-Agent") {
		t.Fatal("expected default User-Agent header")
	}

	cfg, err = loader.Load([]string{"-n", "1", "-H", "user-agent: custom/2.0", "http://localhost/"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	count := 0
	for _, h := range cfg.Headers {
		if h.Key == "user-agent" || h.Key == "User-Agent" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("custom user agent should suppress the default, got %v", cfg.Headers)
	}
}

func TestLoadTimeFlagIsSeconds(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load([]string{"-t", "30", "http://localhost/"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Duration != 30*time.Second {
		t.Fatalf("expected 30s duration, got %s", cfg.Duration)
	}
}

func TestLoadDataLiteralJSON(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load([]string{"-n", "1", "-d", `{"user":"alice"}`, "http://localhost/"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Body != `{"user":"alice"}` || cfg.BodyFile != "" {
		t.Fatalf("expected inline body, got body=%q file=%q", cfg.Body, cfg.BodyFile)
	}
}

func TestLoadDataFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(path, []byte(`{"k":"v"}`), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load([]string{"-n", "1", "-d", path, "http://localhost/"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BodyFile != path || cfg.Body != "" {
		t.Fatalf("expected body file, got body=%q file=%q", cfg.Body, cfg.BodyFile)
	}
}

func TestLoadDataRejectsGarbage(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.Load([]string{"-n", "1", "-d", "not json and not a file", "http://localhost/"}); err == nil {
		t.Fatal("expected error for data that is neither a file nor JSON")
	}
}

func TestLoadConfigFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	content := `target: http://localhost:8080/api
method: post
requests: 500
concurrency: 50
rate: 100
timeout: 5s
headers:
  Authorization: Bearer file-token
arrival:
  model: poisson
tracing:
  endpoint: collector:4317
  sample_rate: 0.25
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "-c", "5"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.TargetURL != "http://localhost:8080/api" {
		t.Fatalf("unexpected target: %q", cfg.TargetURL)
	}
	if cfg.Requests != 500 || cfg.Rate != 100 {
		t.Fatalf("file settings not applied: %+v", cfg)
	}
	if cfg.Concurrency != 5 {
		t.Fatalf("flag should override file concurrency, got %d", cfg.Concurrency)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Timeout)
	}
	if cfg.Arrival.Model != ArrivalModelPoisson {
		t.Fatalf("unexpected arrival model: %q", cfg.Arrival.Model)
	}
	if cfg.Tracing.Endpoint != "collector:4317" || cfg.Tracing.SampleRate != 0.25 {
		t.Fatalf("unexpected tracing config: %+v", cfg.Tracing)
	}
	if !hasHeader(cfg.Headers, "Authorization") {
		t.Fatalf("file headers missing: %v", cfg.Headers)
	}
}

func TestLoadPositionalOverridesFileTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	if err := os.WriteFile(path, []byte(`{"target":"http://file-host/"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "-n", "1", "http://cli-host/"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.TargetURL != "http://cli-host/" {
		t.Fatalf("positional url should win, got %q", cfg.TargetURL)
	}
}

func TestLoadHelpRequested(t *testing.T) {
	loader := NewLoader()
	if _, err := loader.Load([]string{"--help"}); !errors.Is(err, ErrHelpRequested) {
		t.Fatalf("expected ErrHelpRequested, got %v", err)
	}
}
