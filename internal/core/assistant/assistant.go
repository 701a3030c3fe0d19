// Package assistant defines the AI assistants that templates are published
// for, and the script flavors they ship with.
//
// Each assistant knows its template folder inside a project and the CLI
// tool, if any, that must be installed to use it. The catalog is a plain
// Go table, not a definition file.
package assistant

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Assistant is one AI coding tool with published templates.
type Assistant struct {
	ID          string // machine name used in asset names: "claude", "cursor-agent"
	DisplayName string // human name: "Claude Code"

	// Folder is the project-relative directory the templates populate.
	Folder string

	// CLITool is the executable looked up on PATH. Empty for IDE-based
	// assistants that need no CLI.
	CLITool string

	// DetectPaths are extra locations where the CLI may be installed
	// outside PATH (~ is expanded).
	DetectPaths []string

	InstallURL string
}

// RequiresCLI reports whether the assistant needs a CLI tool.
func (a Assistant) RequiresCLI() bool { return a.CLITool != "" }

// IsInstalled reports whether the assistant's CLI is available. Assistants
// without a CLI are always considered installed.
func (a Assistant) IsInstalled() bool {
	if !a.RequiresCLI() {
		return true
	}
	if _, err := exec.LookPath(a.CLITool); err == nil {
		return true
	}
	for _, p := range a.DetectPaths {
		if info, err := os.Stat(expandPath(p)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// IsActiveInFolder reports whether the assistant's template folder exists
// in projectDir.
func (a Assistant) IsActiveInFolder(projectDir string) bool {
	info, err := os.Stat(filepath.Join(projectDir, a.Folder))
	return err == nil && info.IsDir()
}

// --- Registry ---

var catalog = []Assistant{
	{ID: "copilot", DisplayName: "GitHub Copilot", Folder: ".github"},
	{ID: "claude", DisplayName: "Claude Code", Folder: ".claude", CLITool: "claude",
		DetectPaths: []string{"~/.claude/local/claude"}, InstallURL: "https://docs.anthropic.com/en/docs/claude-code/setup"},
	{ID: "gemini", DisplayName: "Gemini CLI", Folder: ".gemini", CLITool: "gemini",
		InstallURL: "https://github.com/google-gemini/gemini-cli"},
	{ID: "cursor-agent", DisplayName: "Cursor", Folder: ".cursor"},
	{ID: "qwen", DisplayName: "Qwen Code", Folder: ".qwen", CLITool: "qwen",
		InstallURL: "https://github.com/QwenLM/qwen-code"},
	{ID: "opencode", DisplayName: "opencode", Folder: ".opencode", CLITool: "opencode",
		InstallURL: "https://opencode.ai"},
	{ID: "codex", DisplayName: "Codex CLI", Folder: ".codex", CLITool: "codex",
		InstallURL: "https://github.com/openai/codex"},
	{ID: "windsurf", DisplayName: "Windsurf", Folder: ".windsurf"},
	{ID: "kilocode", DisplayName: "Kilo Code", Folder: ".kilocode"},
	{ID: "auggie", DisplayName: "Auggie CLI", Folder: ".augment", CLITool: "auggie",
		InstallURL: "https://docs.augmentcode.com/cli/setup-auggie/install-auggie-cli"},
	{ID: "roo", DisplayName: "Roo Code", Folder: ".roo"},
	{ID: "q", DisplayName: "Amazon Q Developer CLI", Folder: ".amazonq", CLITool: "q",
		InstallURL: "https://aws.amazon.com/developer/learning/q-developer-cli/"},
}

// All returns every known assistant in display order.
func All() []Assistant {
	out := make([]Assistant, len(catalog))
	copy(out, catalog)
	return out
}

// IDs returns the machine names of every known assistant.
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, a := range catalog {
		ids[i] = a.ID
	}
	return ids
}

// ByID returns the assistant with the given machine name.
func ByID(id string) (Assistant, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Assistant{}, false
}

// ByIDs resolves machine names to assistants, keeping their order and
// dropping duplicates. Returns an error if any name is unknown.
func ByIDs(ids []string) ([]Assistant, error) {
	result := make([]Assistant, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		a, ok := ByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown assistant %q; available: %s",
				id, strings.Join(IDs(), ", "))
		}
		seen[id] = true
		result = append(result, a)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no assistant selected; available: %s", strings.Join(IDs(), ", "))
	}
	return result, nil
}

// ParseList splits a comma-separated --ai value and resolves it.
func ParseList(s string) ([]Assistant, error) {
	return ByIDs(strings.Split(s, ","))
}

// Names returns the machine names of the given assistants.
func Names(assistants []Assistant) []string {
	names := make([]string, len(assistants))
	for i, a := range assistants {
		names[i] = a.ID
	}
	return names
}

// DetectInFolder returns the assistants whose template folder exists in
// projectDir.
func DetectInFolder(projectDir string) []Assistant {
	var found []Assistant
	for _, a := range catalog {
		if a.IsActiveInFolder(projectDir) {
			found = append(found, a)
		}
	}
	return found
}

// --- Script flavors ---

// Script flavors.
const (
	ScriptSh = "sh"
	ScriptPs = "ps"
)

// ScriptFlavor is a helper script variant shipped in the templates.
type ScriptFlavor struct {
	ID          string
	DisplayName string
}

var scriptFlavors = []ScriptFlavor{
	{ID: ScriptSh, DisplayName: "POSIX Shell (bash/zsh)"},
	{ID: ScriptPs, DisplayName: "PowerShell"},
}

// ScriptFlavors returns the supported script flavors.
func ScriptFlavors() []ScriptFlavor {
	out := make([]ScriptFlavor, len(scriptFlavors))
	copy(out, scriptFlavors)
	return out
}

// DefaultScriptFlavor returns ps on Windows and sh elsewhere.
func DefaultScriptFlavor() string {
	if runtime.GOOS == "windows" {
		return ScriptPs
	}
	return ScriptSh
}

// ValidateScriptFlavor checks a --script value.
func ValidateScriptFlavor(s string) error {
	for _, f := range scriptFlavors {
		if f.ID == s {
			return nil
		}
	}
	return fmt.Errorf("invalid script flavor %q; choose one of: %s, %s", s, ScriptSh, ScriptPs)
}

// expandPath expands a leading ~ to the home directory.
func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
