package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"

	"github.com/httpblast/httpblast/internal/config"
)

// errWizardCancelled is returned when the user declines the external-target
// safety confirmation or closes stdin mid-wizard.
var errWizardCancelled = errors.New("test cancelled")

var wizardMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

var (
	promptColor = color.New(color.FgCyan)
	boldColor   = color.New(color.Bold)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
	okayColor   = color.New(color.FgGreen)
)

// wizard collects run parameters interactively when the binary is started
// without arguments.
type wizard struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func runWizard(in io.Reader, out io.Writer) (*config.Config, error) {
	w := &wizard{scanner: bufio.NewScanner(in), out: out}
	return w.run()
}

func (w *wizard) run() (*config.Config, error) {
	promptColor.Fprintln(w.out, "\nEntering interactive mode...")

	target, err := w.promptURL()
	if err != nil {
		return nil, err
	}

	if !isPrivateTarget(target) {
		warnColor.Fprintf(w.out, "Warning: testing against external URL: %s\n", target)
		answer, err := w.readLine("This doesn't appear to be a local server. Continue? (y/N): ")
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			return nil, errWizardCancelled
		}
	}

	method, err := w.promptMethod()
	if err != nil {
		return nil, err
	}
	requests, err := w.promptInt("Total number of requests", 100, 1, 0)
	if err != nil {
		return nil, err
	}
	concurrency, err := w.promptInt("Max concurrent workers", 10, 1, 1000)
	if err != nil {
		return nil, err
	}
	rate, err := w.promptInt("Target requests per second", 10, 1, 0)
	if err != nil {
		return nil, err
	}
	headers, err := w.promptHeaders()
	if err != nil {
		return nil, err
	}

	var body string
	if method == "POST" || method == "PUT" || method == "PATCH" {
		body, err = w.promptBody(method)
		if err != nil {
			return nil, err
		}
	}

	if !hasUserAgent(headers) {
		headers = append(headers, config.Header{Key: "User-Agent", Value: config.DefaultUserAgent})
	}

	return &config.Config{
		TargetURL:    target,
		Method:       method,
		Headers:      headers,
		Body:         body,
		Requests:     requests,
		Concurrency:  concurrency,
		Rate:         rate,
		Timeout:      30 * time.Second,
		DrainTimeout: 30 * time.Second,
		Arrival:      config.ArrivalConfig{Model: config.ArrivalModelUniform},
		Tracing:      config.TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}, nil
}

func (w *wizard) promptURL() (string, error) {
	for {
		line, err := w.readLine(fmt.Sprintf("Enter full target URL %s: ", boldColor.Sprint("(e.g. http://localhost:8080/api)")))
		if err != nil {
			return "", err
		}
		target := strings.TrimSpace(line)
		parsed, parseErr := url.Parse(target)
		if parseErr == nil && parsed.Host != "" && (parsed.Scheme == "http" || parsed.Scheme == "https") {
			return target, nil
		}
		errColor.Fprintln(w.out, "Invalid URL. Please include http:// or https://")
	}
}

func (w *wizard) promptMethod() (string, error) {
	for {
		line, err := w.readLine(fmt.Sprintf("Enter HTTP method %s: ", boldColor.Sprint("[default: GET]")))
		if err != nil {
			return "", err
		}
		method := strings.ToUpper(strings.TrimSpace(line))
		if method == "" {
			return "GET", nil
		}
		if wizardMethods[method] {
			return method, nil
		}
		errColor.Fprintln(w.out, "Invalid method. Choose from: GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS")
	}
}

// promptInt reads an integer in [min, max]; max of 0 means unbounded.
func (w *wizard) promptInt(label string, def, min, max int) (int, error) {
	for {
		line, err := w.readLine(fmt.Sprintf("%s %s: ", label, boldColor.Sprintf("[default: %d]", def)))
		if err != nil {
			return 0, err
		}
		text := strings.TrimSpace(line)
		if text == "" {
			return def, nil
		}
		value, convErr := strconv.Atoi(text)
		if convErr != nil {
			errColor.Fprintln(w.out, "Please enter a valid number")
			continue
		}
		if value < min || (max > 0 && value > max) {
			if max > 0 {
				errColor.Fprintf(w.out, "Value must be between %d and %d\n", min, max)
			} else {
				errColor.Fprintf(w.out, "Value must be at least %d\n", min)
			}
			continue
		}
		return value, nil
	}
}

func (w *wizard) promptHeaders() ([]config.Header, error) {
	promptColor.Fprintln(w.out, "\nAdd custom headers below (format: Key: Value)")
	warnColor.Fprintln(w.out, "Press Enter on an empty line to finish:")

	var headers []config.Header
	for {
		line, err := w.readLine("  > ")
		if err != nil {
			return nil, err
		}
		entry := strings.TrimSpace(line)
		if entry == "" {
			return headers, nil
		}
		header, parseErr := config.ParseHeader(entry)
		if parseErr != nil {
			warnColor.Fprintln(w.out, "Invalid format. Use 'Key: Value'")
			continue
		}
		headers = append(headers, header)
		okayColor.Fprintf(w.out, "    Added: %s: %s\n", header.Key, header.Value)
	}
}

func (w *wizard) promptBody(method string) (string, error) {
	promptColor.Fprintf(w.out, "\nEnter JSON payload for %s request:\n", method)
	line, err := w.readLine("JSON payload (or press Enter to skip): ")
	if err != nil {
		return "", err
	}
	body := strings.TrimSpace(line)
	if body == "" {
		return "", nil
	}
	if !gjson.Valid(body) {
		warnColor.Fprintln(w.out, "Invalid JSON. Continuing without payload.")
		return "", nil
	}
	okayColor.Fprintln(w.out, "    Valid JSON payload added")
	return body, nil
}

func (w *wizard) readLine(prompt string) (string, error) {
	fmt.Fprint(w.out, prompt)
	if !w.scanner.Scan() {
		if err := w.scanner.Err(); err != nil {
			return "", err
		}
		return "", errWizardCancelled
	}
	return w.scanner.Text(), nil
}

func hasUserAgent(headers []config.Header) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Key, "User-Agent") {
			return true
		}
	}
	return false
}

// isPrivateTarget reports whether the URL points at a loopback or RFC 1918
// address, the cases where load testing needs no extra confirmation.
func isPrivateTarget(target string) bool {
	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
