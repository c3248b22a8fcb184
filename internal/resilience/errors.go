package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError wraps a failure that is safe to retry: network timeouts,
// not-yet-rendered content, throttling responses.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP
// status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// FatalError wraps a failure that must not be retried, such as a malformed
// source URL or an unreachable landing page with no retry-eligible cause.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError marks an error as non-retryable.
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

// IsFatal reports whether the chain contains a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// IsTransient is the default retry classifier. It returns true if the chain
// contains a TransientError, or if the error matches common transient
// network patterns. An explicit FatalError always wins.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsFatal(err) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String heuristics for errors wrapped by HTTP clients and the browser
	// transport, which rarely preserve typed causes.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"context deadline exceeded",
		"net::err_timed_out",
		"net::err_connection_reset",
		"waiting for selector",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true for status codes that indicate a
// retryable server-side condition.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
