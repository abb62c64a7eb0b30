package sample

import (
	"fmt"
	"time"
)

// FailureKind classifies why a request never produced a valid measurement.
type FailureKind string

const (
	KindDNS       FailureKind = "dns"
	KindConnect   FailureKind = "connect"
	KindTimeout   FailureKind = "timeout"
	KindHTTPError FailureKind = "http_error"
	KindOther     FailureKind = "other"
)

// Sample is the record of one completed request attempt. Phase timestamps that
// never occurred (e.g. connect after a DNS failure) are left zero. A sample is
// immutable once appended to a Stream.
type Sample struct {
	Seq          int64       `json:"seq"`
	Start        time.Time   `json:"start"`
	DNSStart     time.Time   `json:"dns_start,omitzero"`
	DNSDone      time.Time   `json:"dns_done,omitzero"`
	ConnectStart time.Time   `json:"connect_start,omitzero"`
	ConnectDone  time.Time   `json:"connect_done,omitzero"`
	FirstByte    time.Time   `json:"first_byte,omitzero"`
	Done         time.Time   `json:"done"`
	StatusCode   int         `json:"status_code,omitempty"`
	Bytes        int64       `json:"bytes"`
	Reused       bool        `json:"reused_conn,omitempty"`
	Failure      FailureKind `json:"failure,omitempty"`
	ErrorType    string      `json:"error_type,omitempty"`
}

// Failed reports whether the request ended in a transport-level failure.
// A non-2xx/3xx response is not a failure unless the executor was configured
// to treat HTTP error statuses as failures.
func (s Sample) Failed() bool {
	return s.Failure != ""
}

// Latency is the time to terminal outcome (issue to completion). It is defined
// for every sample, including failures.
func (s Sample) Latency() time.Duration {
	return s.Done.Sub(s.Start)
}

// DNSTime returns the DNS resolution phase duration, or zero if the phase
// never ran.
func (s Sample) DNSTime() time.Duration {
	if s.DNSStart.IsZero() || s.DNSDone.IsZero() {
		return 0
	}
	return s.DNSDone.Sub(s.DNSStart)
}

// ConnectTime returns the TCP connect phase duration, or zero if the phase
// never ran or the connection was reused.
func (s Sample) ConnectTime() time.Duration {
	if s.ConnectStart.IsZero() || s.ConnectDone.IsZero() {
		return 0
	}
	return s.ConnectDone.Sub(s.ConnectStart)
}

// TTFB returns the interval between issue and the first response byte, or
// zero if no byte was ever received.
func (s Sample) TTFB() time.Duration {
	if s.FirstByte.IsZero() {
		return 0
	}
	return s.FirstByte.Sub(s.Start)
}

// Err converts a failed sample into an error for callers that propagate
// failures, or nil for successful samples.
func (s Sample) Err() error {
	if !s.Failed() {
		return nil
	}
	return &FailureError{Kind: s.Failure, StatusCode: s.StatusCode}
}

// FailureError is the error form of a failed sample.
type FailureError struct {
	Kind       FailureKind
	StatusCode int
}

func (e *FailureError) Error() string {
	if e.Kind == KindHTTPError && e.StatusCode > 0 {
		return fmt.Sprintf("request failed: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed: %s", e.Kind)
}
