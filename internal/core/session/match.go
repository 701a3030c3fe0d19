package session

import (
	"strings"
	"unicode"
)

const (
	minTokenLen     = 3
	minMatchedRatio = 0.6
	minMatched      = 2
)

// Tokenize lowercases s, splits it on every non-alphanumeric rune and keeps
// the distinct tokens of at least three characters, in first-seen order.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, f := range fields {
		if len([]rune(f)) < minTokenLen || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// Match reports whether intent describes the same work as candidate. Tokens
// are compared literally: at least two intent tokens, and at least 60% of
// them, must appear among the candidate's tokens.
func Match(intent, candidate string) bool {
	want := Tokenize(intent)
	if len(want) == 0 {
		return false
	}
	have := make(map[string]bool)
	for _, t := range Tokenize(candidate) {
		have[t] = true
	}

	matched := 0
	for _, t := range want {
		if have[t] {
			matched++
		}
	}
	return matched >= minMatched && float64(matched) >= minMatchedRatio*float64(len(want))
}
