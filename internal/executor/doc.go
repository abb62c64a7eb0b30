// Package executor issues individual HTTP requests and measures them.
//
// Each attempt produces exactly one sample carrying the request's phase
// timestamps (DNS, TCP connect, first byte) captured via net/http/httptrace,
// the terminal outcome, status code and body byte count. Transport failures
// are classified into coarse failure kinds so the aggregation layer can
// report failure composition without parsing error strings.
//
// The executor is deliberately unopinionated about HTTP status codes: a 500
// is a valid measurement of the target under load, not an executor failure,
// unless the run is configured to treat HTTP errors as failures.
package executor
