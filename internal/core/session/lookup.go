package session

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

// NotFoundError indicates no session matched a query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no session matches %q", e.Query)
}

// AmbiguousError indicates a query matched several sessions by prefix.
type AmbiguousError struct {
	Query      string
	Candidates []string // sorted ids
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous session %q matches: %s", e.Query, strings.Join(e.Candidates, ", "))
}

// FindSession resolves a user-supplied query to a session.
//
// Resolution order:
//  1. exact id
//  2. number, so "3" and "003" both find "003-login"
//  3. unique id prefix
//  4. best fuzzy match against ids and names
//
// Completed sessions are included.
func (s *Store) FindSession(query string) (*Metadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &NotFoundError{Query: query}
	}
	sessions, err := s.List()
	if err != nil {
		return nil, err
	}
	return findIn(query, sessions)
}

func findIn(query string, sessions []Metadata) (*Metadata, error) {
	for i := range sessions {
		if sessions[i].ID == query {
			return &sessions[i], nil
		}
	}

	if n, err := strconv.Atoi(query); err == nil {
		var hits []int
		for i := range sessions {
			if p, ok := numericPrefix(sessions[i].ID); ok && p == n {
				hits = append(hits, i)
			}
		}
		if m, err := pick(query, sessions, hits); m != nil || err != nil {
			return m, err
		}
	}

	var hits []int
	for i := range sessions {
		if strings.HasPrefix(sessions[i].ID, query) {
			hits = append(hits, i)
		}
	}
	if m, err := pick(query, sessions, hits); m != nil || err != nil {
		return m, err
	}

	targets := make([]string, len(sessions))
	for i, m := range sessions {
		targets[i] = m.ID + " " + strings.ToLower(m.Name)
	}
	matches := fuzzy.Find(strings.ToLower(query), targets)
	if len(matches) == 0 {
		return nil, &NotFoundError{Query: query}
	}
	return &sessions[matches[0].Index], nil
}

// pick returns the single hit, an AmbiguousError for several, or nil, nil
// when there are none.
func pick(query string, sessions []Metadata, hits []int) (*Metadata, error) {
	switch len(hits) {
	case 0:
		return nil, nil
	case 1:
		return &sessions[hits[0]], nil
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = sessions[h].ID
	}
	sort.Strings(ids)
	return nil, &AmbiguousError{Query: query, Candidates: ids}
}
