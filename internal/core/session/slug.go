package session

import (
	"strings"
	"unicode"
)

// slugMaxLen bounds the slug part of a session id.
const slugMaxLen = 40

// Slugify converts free text into a lowercase hyphen slug.
//   - allowed: [a-z0-9-]
//   - whitespace, underscore and punctuation become hyphens
//   - repeated hyphens collapse, leading/trailing hyphens are trimmed
//   - maxLen is enforced after cleanup, then the result is re-trimmed
//
// An empty result becomes "session".
func Slugify(text string, maxLen int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune('-')
		}
	}

	result := strings.Trim(collapseHyphens(b.String()), "-")
	if maxLen > 0 && len(result) > maxLen {
		result = strings.Trim(result[:maxLen], "-")
	}
	if result == "" {
		return "session"
	}
	return result
}

// collapseHyphens replaces runs of hyphens with a single hyphen.
func collapseHyphens(s string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		if r == '-' {
			if !prevHyphen {
				b.WriteRune(r)
			}
			prevHyphen = true
			continue
		}
		b.WriteRune(r)
		prevHyphen = false
	}
	return b.String()
}
