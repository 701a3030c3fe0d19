package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	templateLockFileName = "templates.lock.json"
	currentLockVersion   = 1
)

// TemplateLock is the parsed .specify/templates.lock.json, keyed by
// assistant id.
type TemplateLock struct {
	LockVersion int                       `json:"lockVersion"`
	Templates   map[string]LockedTemplate `json:"templates"`
}

// Sorted returns the entries ordered by assistant id.
func (l *TemplateLock) Sorted() []LockedTemplate {
	out := make([]LockedTemplate, 0, len(l.Templates))
	for _, t := range l.Templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Assistant < out[j].Assistant })
	return out
}

// TemplateLockPath returns the lock file path for a project.
func TemplateLockPath(projectDir string) string {
	return filepath.Join(projectDir, ConfigDirName, templateLockFileName)
}

// ReadTemplateLock reads the project's template lock.
// Returns nil, nil if the file does not exist.
func ReadTemplateLock(projectDir string) (*TemplateLock, error) {
	data, err := readFileIfExists(TemplateLockPath(projectDir))
	if err != nil {
		return nil, fmt.Errorf("reading template lock: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var lock TemplateLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parsing template lock: %w", err)
	}
	if lock.Templates == nil {
		lock.Templates = map[string]LockedTemplate{}
	}
	return &lock, nil
}

// UpsertTemplateLock records entries in the project's template lock,
// replacing any previous entry for the same assistant. Entries for other
// assistants and unknown keys are left as they are.
func UpsertTemplateLock(projectDir string, entries ...LockedTemplate) error {
	if len(entries) == 0 {
		return nil
	}
	path := TemplateLockPath(projectDir)

	data, err := readFileIfExists(path)
	if err != nil {
		return fmt.Errorf("reading template lock: %w", err)
	}
	if len(data) == 0 || !gjson.ValidBytes(data) {
		data = []byte(`{}`)
	}

	if !gjson.GetBytes(data, "lockVersion").Exists() {
		if data, err = sjson.SetBytes(data, "lockVersion", currentLockVersion); err != nil {
			return fmt.Errorf("writing template lock: %w", err)
		}
	}
	for _, e := range entries {
		data, err = sjson.SetBytes(data, "templates."+escapeJSONKey(e.Assistant), e)
		if err != nil {
			return fmt.Errorf("writing template lock entry %q: %w", e.Assistant, err)
		}
	}

	out := []byte(gjson.GetBytes(data, "@pretty").Raw)
	if err := WriteFileAtomic(path, out, 0o644); err != nil {
		return fmt.Errorf("saving template lock: %w", err)
	}
	return nil
}

// escapeJSONKey escapes a key for use with gjson/sjson path syntax.
func escapeJSONKey(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '#', '|', '@', '\\':
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return string(out)
}

// fileDigest returns the hex SHA-256 and size of the file at path.
func fileDigest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
