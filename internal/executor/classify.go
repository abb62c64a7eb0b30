package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/httpblast/httpblast/internal/sample"
)

// Classify maps a transport error to a failure kind. Cancellation counts as a
// timeout: from the measurement's point of view the request ran out of time.
func Classify(err error) sample.FailureKind {
	if err == nil {
		return ""
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return sample.KindDNS
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return sample.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return sample.KindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return sample.KindConnect
	}

	return sample.KindOther
}

// ErrorTypeName returns the concrete Go type of the innermost error, with the
// client's *url.Error wrapper peeled off. The raw type name is stored on the
// sample; presentation layers map it to a friendly label at report time.
func ErrorTypeName(err error) string {
	if err == nil {
		return ""
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
