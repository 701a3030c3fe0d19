package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tailscale/hujson"
)

const configFileName = "config.json"

// Config record keys.
const (
	KeySelectedAssistants = "selectedAssistants"
	KeyScriptFlavor       = "scriptFlavor"
	KeyTemplateVersion    = "templateVersion"
	KeyCurrentSession     = "currentSession"
)

// Field is a single top-level key to write into the config record.
type Field struct {
	Key   string
	Value any // marshaled with encoding/json; nil writes null

	// IfAbsent only adds the key when it is missing.
	IfAbsent bool
}

// ProjectConfigManager reads and patches .specify/config.json. Writes are
// JSON-patch operations on the parsed document: a present key is replaced
// in place, an absent key is appended, and everything else (key order,
// comments) is kept. Every write goes through WriteFileAtomic.
type ProjectConfigManager struct {
	projectDir string
	mu         sync.RWMutex
}

// NewProjectConfigManager creates a manager for the project at projectDir.
func NewProjectConfigManager(projectDir string) *ProjectConfigManager {
	return &ProjectConfigManager{projectDir: projectDir}
}

// ProjectDir returns the project root.
func (m *ProjectConfigManager) ProjectDir() string {
	return m.projectDir
}

// ConfigDir returns the project's .specify directory.
func (m *ProjectConfigManager) ConfigDir() string {
	return filepath.Join(m.projectDir, ConfigDirName)
}

// ConfigPath returns the full path to the config record.
func (m *ProjectConfigManager) ConfigPath() string {
	return filepath.Join(m.ConfigDir(), configFileName)
}

// Exists reports whether the config record is present.
func (m *ProjectConfigManager) Exists() bool {
	data, err := readFileIfExists(m.ConfigPath())
	return err == nil && data != nil
}

// Load reads the config record. A missing file yields an empty config.
func (m *ProjectConfigManager) Load() (*ProjectConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := readFileIfExists(m.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &ProjectConfig{}, nil
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	var cfg ProjectConfig
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Set patches the given fields into the config record and writes it back
// atomically. A missing record is created with all known keys.
func (m *ProjectConfigManager) Set(fields ...Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.ConfigPath()
	content, err := readFileIfExists(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		content = initialConfig()
	}

	root, err := hujson.Parse(content)
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if _, ok := root.Value.(*hujson.Object); !ok {
		return fmt.Errorf("parsing config: %s is not a JSON object", path)
	}

	for _, f := range fields {
		ptr := "/" + jsonPointerEscape(f.Key)
		op := "add"
		if root.Find(ptr) != nil {
			if f.IfAbsent {
				continue
			}
			op = "replace"
		}

		value, err := json.Marshal(f.Value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", f.Key, err)
		}
		patch := fmt.Sprintf(`[{"op":%q,"path":%q,"value":%s}]`, op, ptr, value)
		if err := root.Patch([]byte(patch)); err != nil {
			return fmt.Errorf("writing %s: %w", f.Key, err)
		}
		layoutMember(root.Value.(*hujson.Object), f.Key)
	}

	out := root.Pack()
	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}

	if err := WriteFileAtomic(path, out, 0o644); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

// RecordAcquisition persists the outcome of a successful acquisition: the
// assistants that succeeded, the script flavor and the resolved version go
// to the config record, and each installed archive to the template lock.
// currentSession is added as null when the record does not have it yet.
func (m *ProjectConfigManager) RecordAcquisition(res *AcquireResult, scriptFlavor string) error {
	assistants := res.Succeeded()
	if assistants == nil {
		assistants = []string{}
	}
	if err := UpsertTemplateLock(m.projectDir, res.Locked...); err != nil {
		return err
	}
	return m.Set(
		Field{Key: KeySelectedAssistants, Value: assistants},
		Field{Key: KeyScriptFlavor, Value: scriptFlavor},
		Field{Key: KeyTemplateVersion, Value: res.Version},
		Field{Key: KeyCurrentSession, Value: nil, IfAbsent: true},
	)
}

// initialConfig is the skeleton of a new record, one key per line.
func initialConfig() []byte {
	data, _ := json.MarshalIndent(ProjectConfig{SelectedAssistants: []string{}}, "", "\t")
	return append(data, '\n')
}

// layoutMember puts a patched top-level member on its own line as
// `"key": value`. Patch appends new members with no whitespace, and scripts
// read the record line by line. Comments around the member are kept; the
// rest of the document is left byte for byte.
func layoutMember(obj *hujson.Object, key string) {
	for i := range obj.Members {
		m := &obj.Members[i]
		if lit, ok := m.Name.Value.(hujson.Literal); !ok || lit.String() != key {
			continue
		}
		if !bytes.Contains(m.Name.BeforeExtra, []byte("\n")) {
			m.Name.BeforeExtra = append(m.Name.BeforeExtra, "\n\t"...)
		}
		if isBlank(m.Name.AfterExtra) {
			m.Name.AfterExtra = nil
		}
		if isBlank(m.Value.BeforeExtra) {
			m.Value.BeforeExtra = hujson.Extra(" ")
		}
		if i == len(obj.Members)-1 && isBlank(m.Value.AfterExtra) {
			m.Value.AfterExtra = nil // no trailing comma
		}
		if !bytes.Contains(obj.AfterExtra, []byte("\n")) {
			obj.AfterExtra = append(obj.AfterExtra, '\n')
		}
		return
	}
}

// isBlank reports whether extra holds only whitespace.
func isBlank(extra hujson.Extra) bool {
	return len(bytes.TrimSpace(extra)) == 0
}

// jsonPointerEscape escapes a key for use in a JSON Pointer (RFC 6901).
func jsonPointerEscape(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
