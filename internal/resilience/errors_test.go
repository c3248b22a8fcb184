package resilience

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsTransient_ExplicitTransient(t *testing.T) {
	err := NewTransientError(errors.New("503 from source"), 503)
	if !IsTransient(err) {
		t.Error("explicit TransientError should be transient")
	}

	wrapped := fmt.Errorf("navigate: %w", err)
	if !IsTransient(wrapped) {
		t.Error("wrapped TransientError should be transient")
	}
}

func TestIsTransient_FatalWins(t *testing.T) {
	err := NewFatalError(NewTransientError(errors.New("odd chain"), 503))
	if IsTransient(err) {
		t.Error("FatalError anywhere in the chain must suppress retry")
	}
	if !IsFatal(err) {
		t.Error("IsFatal should detect FatalError")
	}
}

func TestIsTransient_SyscallErrors(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED} {
		if !IsTransient(fmt.Errorf("dial: %w", errno)) {
			t.Errorf("%v should be transient", errno)
		}
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	transient := []string{
		"Get \"https://x\": context deadline exceeded",
		"page load error net::ERR_TIMED_OUT",
		"timed out waiting for selector .bus-item",
		"read tcp: connection reset by peer",
	}
	for _, msg := range transient {
		if !IsTransient(errors.New(msg)) {
			t.Errorf("%q should be transient", msg)
		}
	}

	notTransient := []string{
		"unsupported protocol scheme \"ftp\"",
		"parse \"ht!tp://\": invalid URI",
	}
	for _, msg := range notTransient {
		if IsTransient(errors.New(msg)) {
			t.Errorf("%q should not be transient", msg)
		}
	}
}

func TestIsTransient_Nil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("status %d should be transient", code)
		}
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("status %d should not be transient", code)
		}
	}
}
