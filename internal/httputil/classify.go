package httputil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"strings"
)

// FailureKind classifies transport-level failures so error types in
// the release and digest packages can surface targeted suggestions.
type FailureKind int

const (
	// KindGeneric is the fallback when nothing more specific matches.
	KindGeneric FailureKind = iota
	// KindTimeout covers deadline exceeded and timed-out dials/reads.
	KindTimeout
	// KindDNS covers name resolution failures.
	KindDNS
	// KindConnection covers refused/reset connections.
	KindConnection
	// KindTLS covers certificate and handshake failures.
	KindTLS
)

// ClassifyNetworkError examines an error chain and returns the most
// specific FailureKind. Unwraps url.Error, net.OpError, net.DNSError
// and TLS certificate errors.
func ClassifyNetworkError(err error) FailureKind {
	if err == nil {
		return KindGeneric
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindGeneric
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return KindTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return KindTimeout
		}
		var innerDNS *net.DNSError
		if errors.As(opErr.Err, &innerDNS) {
			return KindDNS
		}
		return KindConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return KindTimeout
		}
		// Handshake failures often surface only as message text.
		msg := urlErr.Err.Error()
		if strings.Contains(msg, "certificate") ||
			strings.Contains(msg, "tls") ||
			strings.Contains(msg, "x509") {
			return KindTLS
		}
		return ClassifyNetworkError(urlErr.Err)
	}

	return KindGeneric
}

// Suggestion returns an actionable hint for the failure kind, or ""
// when there is nothing useful to say.
func (k FailureKind) Suggestion() string {
	switch k {
	case KindTimeout:
		return "Check your internet connection and try again"
	case KindDNS:
		return "Check your DNS settings and internet connection"
	case KindConnection:
		return "The service may be down or blocked. Check if you can access it in a browser"
	case KindTLS:
		return "There may be a certificate issue. Check your system time is correct"
	default:
		return ""
	}
}
