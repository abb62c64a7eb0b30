package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/httpblast/httpblast/internal/config"
	"github.com/httpblast/httpblast/internal/dashboard"
	"github.com/httpblast/httpblast/internal/executor"
	"github.com/httpblast/httpblast/internal/metrics"
	"github.com/httpblast/httpblast/internal/output"
	"github.com/httpblast/httpblast/internal/runner"
	"github.com/httpblast/httpblast/internal/sample"
	"github.com/httpblast/httpblast/internal/tracing"
)

const progressInterval = time.Second

type stderrFailureLogger struct {
	mu sync.Mutex
}

func (l *stderrFailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[httpblast] request failed: %v\n", err)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var cfg *config.Config
	var err error
	if len(args) == 0 {
		cfg, err = runWizard(os.Stdin, os.Stdout)
	} else {
		cfg, err = config.NewLoader().Load(args)
	}
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = tp.Shutdown(shutdownCtx)
	}()

	exec, err := executor.New(cfg)
	if err != nil {
		return err
	}
	if tp.ShouldPropagate() {
		exec.SetHeaderInjector(tracing.InjectHTTPHeaders)
	}

	collector := metrics.NewCollector()
	stream := sample.NewStream(cfg.Requests)

	requester := &httpRequester{
		exec:      exec,
		stream:    stream,
		collector: collector,
		method:    cfg.Method,
		target:    cfg.TargetURL,
	}
	if cfg.Retries > 0 {
		policy := executor.DefaultRetryPolicy(cfg.Retries)
		requester.retry = &policy
	}
	if cfg.Tracing.Enabled() {
		requester.tracer = tp.Tracer()
	}

	var wrapped runner.Requester = requester
	if cfg.LogErrors {
		wrapped = runner.WithLogging(wrapped, &stderrFailureLogger{})
	}

	r := runner.New(runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalRequests: cfg.Requests,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  toRunnerArrivalModel(cfg.Arrival.Model),
		DrainTimeout:  cfg.DrainTimeout,
		Requester:     wrapped,
	})

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboardConfig(cfg), cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
	}

	started := time.Now()
	collector.Start()
	result := r.Run(ctx)

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}
	if dash != nil {
		dash.Stop()
	}

	samples := stream.Seal()
	report := metrics.BuildReport(samples, result.Duration)
	meta := sample.RunMeta{
		RunID:   ulid.Make().String(),
		Target:  cfg.TargetURL,
		Started: started,
		Wall:    result.Duration,
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, meta, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, meta, report)
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg.HTMLOutput, meta, report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "HTML report written to %s\n", cfg.HTMLOutput)
	}

	if cfg.OutputPath != "" {
		if err := sample.WriteFile(cfg.OutputPath, meta, samples); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Raw results written to %s\n", cfg.OutputPath)
	}

	if result.Interrupted {
		return fmt.Errorf("run interrupted after %d requests", result.Dispatched)
	}
	if result.Errors > 0 {
		return fmt.Errorf("%d requests failed", result.Errors)
	}
	return nil
}

func writeHTMLReport(path string, meta sample.RunMeta, report metrics.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML report: %w", err)
	}
	if err := output.GenerateHTMLReport(f, meta, report); err != nil {
		_ = f.Close()
		return fmt.Errorf("write HTML report: %w", err)
	}
	return f.Close()
}

func dashboardConfig(cfg *config.Config) dashboard.TestConfig {
	return dashboard.TestConfig{
		TargetURL:   cfg.TargetURL,
		Method:      cfg.Method,
		Concurrency: cfg.Concurrency,
		Duration:    cfg.Duration,
		Requests:    cfg.Requests,
		Rate:        cfg.Rate,
		Timeout:     cfg.Timeout,
		Retries:     cfg.Retries,
		ConfigFile:  cfg.ConfigFile,
	}
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch strings.ToLower(string(model)) {
	case string(config.ArrivalModelPoisson):
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}
