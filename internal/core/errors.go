package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/barysiuk/specrow/internal/core/release"
)

// AcquireErrorKind classifies why acquiring templates for an assistant failed.
type AcquireErrorKind int

const (
	// AcquireErrUnknown is an unclassified failure.
	AcquireErrUnknown AcquireErrorKind = iota
	// AcquireErrResolution means no release, asset or local artifact matched.
	AcquireErrResolution
	// AcquireErrAuth means the release index rejected the credentials.
	AcquireErrAuth
	// AcquireErrRateLimit means the API quota is exhausted.
	AcquireErrRateLimit
	// AcquireErrNotFound means the repository or asset does not exist.
	AcquireErrNotFound
	// AcquireErrNetwork means the host could not be reached.
	AcquireErrNetwork
	// AcquireErrTimeout means the request exceeded its deadline.
	AcquireErrTimeout
	// AcquireErrTransfer is any other failed download.
	AcquireErrTransfer
	// AcquireErrMaterialize means extraction or copying failed.
	AcquireErrMaterialize
	// AcquireErrWrite means a download could not be saved to disk.
	AcquireErrWrite
)

// String returns a human-readable label for the error kind.
func (k AcquireErrorKind) String() string {
	switch k {
	case AcquireErrResolution:
		return "No Matching Template"
	case AcquireErrAuth:
		return "Authentication Required"
	case AcquireErrRateLimit:
		return "Rate Limited"
	case AcquireErrNotFound:
		return "Not Found"
	case AcquireErrNetwork:
		return "Network Error"
	case AcquireErrTimeout:
		return "Timeout"
	case AcquireErrTransfer:
		return "Download Failed"
	case AcquireErrMaterialize:
		return "Extraction Failed"
	case AcquireErrWrite:
		return "Write Failed"
	default:
		return "Unknown Error"
	}
}

// AcquireError is a classified per-assistant failure with actionable hints.
type AcquireError struct {
	Kind      AcquireErrorKind
	Assistant string
	Err       error
	Hints     []string
}

// Error implements the error interface.
func (e *AcquireError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Assistant, e.Kind, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }

// AcquireFailedError is returned when no assistant succeeded.
type AcquireFailedError struct {
	Outcomes []AgentOutcome
}

// Error lists every assistant with its failure.
func (e *AcquireFailedError) Error() string {
	parts := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		parts = append(parts, fmt.Sprintf("%s: %s", o.Assistant, o.ErrorMessage()))
	}
	return "template acquisition failed for every assistant: " + strings.Join(parts, "; ")
}

// materializeError marks a failure that happened after the archive was
// fetched.
type materializeError struct{ err error }

func (e *materializeError) Error() string { return e.err.Error() }
func (e *materializeError) Unwrap() error { return e.err }

// ClassifyAcquireError wraps err into an *AcquireError for assistant. An
// error that already is an *AcquireError is returned unchanged.
func ClassifyAcquireError(assistant string, err error) *AcquireError {
	if err == nil {
		return nil
	}
	var ae *AcquireError
	if errors.As(err, &ae) {
		return ae
	}

	kind, rl := classify(err)
	return &AcquireError{
		Kind:      kind,
		Assistant: assistant,
		Err:       err,
		Hints:     hintsForError(kind, rl),
	}
}

func classify(err error) (AcquireErrorKind, *release.RateLimit) {
	var re *release.ResolutionError
	if errors.As(err, &re) {
		return AcquireErrResolution, nil
	}

	var me *materializeError
	if errors.As(err, &me) {
		return AcquireErrMaterialize, nil
	}

	var we *release.WriteError
	if errors.As(err, &we) {
		return AcquireErrWrite, nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return AcquireErrTimeout, nil
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return AcquireErrTimeout, nil
	}

	var te *release.TransferError
	if errors.As(err, &te) {
		switch {
		case te.RateLimited():
			return AcquireErrRateLimit, te.RateLimit
		case te.StatusCode == http.StatusUnauthorized || te.StatusCode == http.StatusForbidden:
			return AcquireErrAuth, nil
		case te.StatusCode == http.StatusNotFound:
			return AcquireErrNotFound, nil
		case te.StatusCode == 0:
			return AcquireErrNetwork, nil
		default:
			return AcquireErrTransfer, nil
		}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return AcquireErrNetwork, nil
	}
	return AcquireErrUnknown, nil
}

// hintsForError returns actionable suggestions based on the error kind.
func hintsForError(kind AcquireErrorKind, rl *release.RateLimit) []string {
	switch kind {
	case AcquireErrResolution:
		return []string{
			"Check the assistant and script flavor (--ai, --script)",
			"With --local-dir, artifacts must be named <prefix>-<assistant>-<script>-v<version>.zip",
			"Use --template-prefix if your releases use a different asset prefix",
		}

	case AcquireErrAuth:
		return []string{
			"Pass a token with --github-token, or set GH_TOKEN / GITHUB_TOKEN",
			"Tokens can also be stored in .env.specrow or ~/.specrow/.env.specrow",
		}

	case AcquireErrRateLimit:
		hints := []string{
			"The API rate limit is exhausted; authenticated requests get a higher limit",
			"Pass a token with --github-token, or set GH_TOKEN / GITHUB_TOKEN",
		}
		if rl != nil && !rl.Reset.IsZero() {
			hints = append(hints, fmt.Sprintf("The limit resets at %s", rl.Reset.Local().Format(time.RFC1123)))
		}
		return hints

	case AcquireErrNotFound:
		return []string{
			"Verify the repository with --repo or SPECROW_REPO (owner/name)",
			"Private repositories need a token with read access",
		}

	case AcquireErrNetwork:
		return []string{
			"Check your internet connection",
			"If behind a proxy, set HTTPS_PROXY",
			"Use --local-dir to install from downloaded artifacts",
		}

	case AcquireErrTimeout:
		return []string{
			"The request exceeded its deadline; raise it with --timeout",
			"Try again, the server may have been temporarily unavailable",
		}

	case AcquireErrMaterialize:
		return []string{
			"The archive may be corrupt; try again to download a fresh copy",
			"Check free disk space and write permissions on the destination",
		}

	case AcquireErrWrite:
		return []string{
			"Check free disk space in the current directory",
			"The download is saved next to the project; make sure the current directory is writable",
		}

	default:
		return []string{
			"Run again with --debug for details",
		}
	}
}
