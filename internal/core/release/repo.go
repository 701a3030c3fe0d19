package release

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ownerRepoPattern matches "owner/repo" format (2 segments, no protocol).
var ownerRepoPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+$`)

// ParseRepo normalizes a --repo value to "owner/repo".
//
// Supported formats:
//   - "owner/repo"
//   - "https://github.com/owner/repo" (optionally with .git or a trailing path)
//   - "git@github.com:owner/repo.git"
//
// An empty input yields DefaultRepo.
func ParseRepo(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return DefaultRepo, nil
	}

	var owner, repo string
	switch {
	case strings.HasPrefix(input, "git@"):
		parts := strings.SplitN(input, ":", 2)
		if len(parts) != 2 {
			return "", fmt.Errorf("invalid repository %q: expected owner/repo", input)
		}
		owner, repo = splitOwnerRepo(parts[1])

	case strings.HasPrefix(input, "https://") || strings.HasPrefix(input, "http://"):
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid repository URL: %w", err)
		}
		owner, repo = splitOwnerRepo(u.Path)

	default:
		owner, repo = splitOwnerRepo(input)
		if strings.Count(strings.Trim(input, "/"), "/") != 1 {
			owner, repo = "", ""
		}
	}

	full := owner + "/" + repo
	if owner == "" || repo == "" || !ownerRepoPattern.MatchString(full) {
		return "", fmt.Errorf("invalid repository %q: expected owner/repo", input)
	}
	return full, nil
}

// splitOwnerRepo takes the first two segments of a path and drops a .git
// suffix from the second.
func splitOwnerRepo(path string) (string, string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 {
		return "", ""
	}
	return segments[0], strings.TrimSuffix(segments[1], ".git")
}
