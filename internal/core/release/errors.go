package release

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ResolutionError means no release, asset or local artifact matched.
// It is never retried.
type ResolutionError struct {
	Assistant string
	Script    string
	Reason    string
	// Candidates lists what was found instead (asset names or sibling files)
	// so the user can see why nothing matched.
	Candidates []string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolving template for %s/%s: %s", e.Assistant, e.Script, e.Reason)
	if len(e.Candidates) > 0 {
		msg += " (available: " + strings.Join(e.Candidates, ", ") + ")"
	}
	return msg
}

// RateLimit holds the rate limit headers of a response.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// TransferError means a request failed: a non-success status, a broken
// stream or a timeout.
type TransferError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Status     string
	RateLimit  *RateLimit
	Err        error
}

func (e *TransferError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("GET %s failed", e.URL)
	}
}

func (e *TransferError) Unwrap() error { return e.Err }

// WriteError means a download could not be stored on local disk.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// RateLimited reports whether the failure was caused by an exhausted quota.
func (e *TransferError) RateLimited() bool {
	if e.StatusCode != http.StatusForbidden && e.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return e.RateLimit != nil && e.RateLimit.Remaining == 0
}

// parseRateLimit reads the X-RateLimit-* headers. Returns nil when absent.
func parseRateLimit(h http.Header) *RateLimit {
	if h == nil || h.Get("X-RateLimit-Remaining") == "" {
		return nil
	}
	rl := &RateLimit{}
	rl.Limit, _ = strconv.Atoi(h.Get("X-RateLimit-Limit"))
	rl.Remaining, _ = strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		rl.Reset = time.Unix(reset, 0).UTC()
	}
	return rl
}
