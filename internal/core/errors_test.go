package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/barysiuk/specrow/internal/core/release"
)

func TestClassifyAcquireError(t *testing.T) {
	reset := time.Unix(1700000000, 0).UTC()
	tests := []struct {
		name     string
		err      error
		wantKind AcquireErrorKind
	}{
		{
			name:     "resolution",
			err:      &release.ResolutionError{Assistant: "claude", Script: "sh", Reason: "no asset"},
			wantKind: AcquireErrResolution,
		},
		{
			name:     "wrapped resolution",
			err:      fmt.Errorf("resolving: %w", &release.ResolutionError{Reason: "x"}),
			wantKind: AcquireErrResolution,
		},
		{
			name:     "unauthorized",
			err:      &release.TransferError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"},
			wantKind: AcquireErrAuth,
		},
		{
			name: "forbidden with quota left",
			err: &release.TransferError{
				StatusCode: http.StatusForbidden,
				RateLimit:  &release.RateLimit{Limit: 60, Remaining: 10},
			},
			wantKind: AcquireErrAuth,
		},
		{
			name: "rate limited",
			err: &release.TransferError{
				StatusCode: http.StatusForbidden,
				RateLimit:  &release.RateLimit{Limit: 60, Remaining: 0, Reset: reset},
			},
			wantKind: AcquireErrRateLimit,
		},
		{
			name:     "not found",
			err:      fmt.Errorf("fetching release index: %w", &release.TransferError{StatusCode: http.StatusNotFound}),
			wantKind: AcquireErrNotFound,
		},
		{
			name:     "server error",
			err:      &release.TransferError{StatusCode: http.StatusBadGateway},
			wantKind: AcquireErrTransfer,
		},
		{
			name: "connection refused",
			err: &release.TransferError{
				Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			},
			wantKind: AcquireErrNetwork,
		},
		{
			name:     "dns",
			err:      &net.DNSError{Err: "no such host", Name: "api.example.com"},
			wantKind: AcquireErrNetwork,
		},
		{
			name:     "deadline",
			err:      &release.TransferError{Err: context.DeadlineExceeded},
			wantKind: AcquireErrTimeout,
		},
		{
			name:     "materialize",
			err:      &materializeError{err: errors.New("zip: not a valid zip file")},
			wantKind: AcquireErrMaterialize,
		},
		{
			name:     "disk write",
			err:      &release.WriteError{Path: "/p/.specrow-download-x.zip", Err: errors.New("no space left on device")},
			wantKind: AcquireErrWrite,
		},
		{
			name:     "unknown",
			err:      errors.New("boom"),
			wantKind: AcquireErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := ClassifyAcquireError("claude", tt.err)
			if ae.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", ae.Kind, tt.wantKind)
			}
			if ae.Assistant != "claude" {
				t.Errorf("Assistant = %q, want claude", ae.Assistant)
			}
			if len(ae.Hints) == 0 {
				t.Error("expected at least one hint")
			}
			if !errors.Is(ae, tt.err) {
				t.Error("AcquireError does not unwrap to the original error")
			}
		})
	}
}

func TestClassifyAcquireError_RateLimitHintMentionsReset(t *testing.T) {
	reset := time.Unix(1700000000, 0)
	ae := ClassifyAcquireError("gemini", &release.TransferError{
		StatusCode: http.StatusTooManyRequests,
		RateLimit:  &release.RateLimit{Remaining: 0, Reset: reset},
	})
	want := reset.Local().Format(time.RFC1123)
	found := false
	for _, h := range ae.Hints {
		if strings.Contains(h, want) {
			found = true
		}
	}
	if !found {
		t.Errorf("hints %v do not mention reset time %q", ae.Hints, want)
	}
}

func TestClassifyAcquireError_Idempotent(t *testing.T) {
	first := ClassifyAcquireError("claude", errors.New("boom"))
	if got := ClassifyAcquireError("other", fmt.Errorf("wrapped: %w", first)); got != first {
		t.Error("expected an existing AcquireError to be returned unchanged")
	}
	if ClassifyAcquireError("claude", nil) != nil {
		t.Error("expected nil for a nil error")
	}
}

func TestAcquireErrorKind_String(t *testing.T) {
	tests := []struct {
		kind AcquireErrorKind
		want string
	}{
		{AcquireErrUnknown, "Unknown Error"},
		{AcquireErrResolution, "No Matching Template"},
		{AcquireErrAuth, "Authentication Required"},
		{AcquireErrRateLimit, "Rate Limited"},
		{AcquireErrNotFound, "Not Found"},
		{AcquireErrNetwork, "Network Error"},
		{AcquireErrTimeout, "Timeout"},
		{AcquireErrTransfer, "Download Failed"},
		{AcquireErrMaterialize, "Extraction Failed"},
		{AcquireErrWrite, "Write Failed"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestAcquireFailedError_ListsEveryAssistant(t *testing.T) {
	err := &AcquireFailedError{Outcomes: []AgentOutcome{
		{Assistant: "claude", Err: errors.New("no asset")},
		{Assistant: "gemini", Err: errors.New("timeout")},
	}}
	msg := err.Error()
	for _, want := range []string{"claude: no asset", "gemini: timeout"} {
		if !strings.Contains(msg, want) {
			t.Errorf("%q does not contain %q", msg, want)
		}
	}
	if !IsAcquireFailed(fmt.Errorf("init: %w", err)) {
		t.Error("IsAcquireFailed() = false for a wrapped AcquireFailedError")
	}
}
