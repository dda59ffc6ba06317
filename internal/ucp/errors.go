package ucp

import (
	"errors"
	"fmt"
	"net"
)

// Error describes a failed UCP call. StatusCode is zero when the failure
// happened before an HTTP status was received (dial errors, timeouts).
type Error struct {
	Op         string // "discover", "search", "create_checkout", "complete_checkout"
	MerchantID string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ucp: %s %s: HTTP %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ucp: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure is worth retrying. Server errors
// (5xx), timeouts, and transport failures are temporary; 4xx rejections are
// permanent.
func (e *Error) Temporary() bool {
	if e.StatusCode >= 500 {
		return true
	}
	if e.StatusCode >= 400 {
		return false
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	// No status code and not a recognized timeout: a transport-level failure
	// (connection refused, reset). Treat as temporary.
	return e.StatusCode == 0
}

// IsTemporary reports whether err wraps a temporary UCP error. Unknown error
// types are treated as permanent.
func IsTemporary(err error) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Temporary()
	}
	return false
}
