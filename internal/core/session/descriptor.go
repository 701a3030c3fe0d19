package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/barysiuk/specrow/internal/core"
)

// DescriptorFileName is the per-session metadata file.
const DescriptorFileName = "session.yaml"

// Status is the lifecycle state of a session.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusInProgress, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("invalid session status %q; choose one of: draft, in-progress, completed", s)
}

// Active reports whether the session is still being worked on.
func (s Status) Active() bool {
	return s == StatusDraft || s == StatusInProgress
}

// Metadata describes one session, parsed from its descriptor.
type Metadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// descriptor is the on-disk shape. Times stay strings so that a malformed
// value is reported by validate instead of by the YAML decoder.
type descriptor struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Status      string `yaml:"status"`
	Created     string `yaml:"created"`
	LastUpdated string `yaml:"last_updated"`
}

// parseDescriptor decodes and validates a descriptor.
func parseDescriptor(data []byte) (*Metadata, error) {
	var d descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing descriptor: %w", err)
	}

	if strings.TrimSpace(d.ID) == "" {
		return nil, fmt.Errorf("descriptor has no id")
	}
	if strings.TrimSpace(d.Name) == "" {
		return nil, fmt.Errorf("descriptor %s has no name", d.ID)
	}
	status, err := ParseStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", d.ID, err)
	}
	created, err := time.Parse(time.RFC3339, d.Created)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: invalid created: %w", d.ID, err)
	}
	updated, err := time.Parse(time.RFC3339, d.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: invalid last_updated: %w", d.ID, err)
	}

	return &Metadata{
		ID:          d.ID,
		Name:        d.Name,
		Status:      status,
		Created:     created,
		LastUpdated: updated,
	}, nil
}

// marshalDescriptor renders m with one key per line. name is always
// double-quoted so that line-oriented readers can extract it.
func marshalDescriptor(m Metadata) ([]byte, error) {
	plain := func(v string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
	}
	pairs := []struct {
		key   string
		value *yaml.Node
	}{
		{"id", plain(m.ID)},
		{"name", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: oneLine(m.Name)}},
		{"status", plain(string(m.Status))},
		{"created", plain(m.Created.UTC().Format(time.RFC3339))},
		{"last_updated", plain(m.LastUpdated.UTC().Format(time.RFC3339))},
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range pairs {
		doc.Content = append(doc.Content, plain(p.key), p.value)
	}
	return yaml.Marshal(doc)
}

// readDescriptor loads the descriptor of the session directory dir and
// checks that its id matches the directory name.
func readDescriptor(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFileName))
	if err != nil {
		return nil, err
	}
	m, err := parseDescriptor(data)
	if err != nil {
		return nil, err
	}
	if m.ID != filepath.Base(dir) {
		return nil, fmt.Errorf("descriptor id %s does not match directory %s", m.ID, filepath.Base(dir))
	}
	return m, nil
}

func writeDescriptor(dir string, m Metadata) error {
	data, err := marshalDescriptor(m)
	if err != nil {
		return fmt.Errorf("encoding descriptor: %w", err)
	}
	return core.WriteFileAtomic(filepath.Join(dir, DescriptorFileName), data, 0o644)
}

// oneLine collapses all whitespace runs, newlines included, to one space.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
