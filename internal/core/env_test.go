package core

import (
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// parseEnvFile tests
// ---------------------------------------------------------------------------

func TestParseEnvFile_BasicKeyValue(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, EnvFileName)
	content := "SPECROW_REPO=acme/templates\nGH_TOKEN=abc123\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	env := parseEnvFile(envPath)

	if env["SPECROW_REPO"] != "acme/templates" {
		t.Errorf("SPECROW_REPO = %q, want \"acme/templates\"", env["SPECROW_REPO"])
	}
	if env["GH_TOKEN"] != "abc123" {
		t.Errorf("GH_TOKEN = %q, want \"abc123\"", env["GH_TOKEN"])
	}
}

func TestParseEnvFile_QuotedCommentsAndExport(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, EnvFileName)
	content := `# token for private templates
DOUBLE="hello world"

SINGLE='hello world'
export EXPORTED=yes
INVALID_LINE_NO_EQUALS
`
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	env := parseEnvFile(envPath)

	if len(env) != 3 {
		t.Fatalf("len(env) = %d, want 3", len(env))
	}
	if env["DOUBLE"] != "hello world" {
		t.Errorf("DOUBLE = %q, want \"hello world\"", env["DOUBLE"])
	}
	if env["SINGLE"] != "hello world" {
		t.Errorf("SINGLE = %q, want \"hello world\"", env["SINGLE"])
	}
	if env["EXPORTED"] != "yes" {
		t.Errorf("EXPORTED = %q, want \"yes\"", env["EXPORTED"])
	}
}

func TestParseEnvFile_NotExists(t *testing.T) {
	env := parseEnvFile("/nonexistent/path/.env.specrow")
	if env != nil {
		t.Errorf("expected nil, got %v", env)
	}
}

// ---------------------------------------------------------------------------
// EnvResolver tests
// ---------------------------------------------------------------------------

func writeEnv(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, EnvFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEnvResolver_Precedence(t *testing.T) {
	projectDir := t.TempDir()
	globalDir := t.TempDir()
	writeEnv(t, projectDir, "SPECROW_REPO=project/repo\nSPECROW_TEMPLATE_PREFIX=project-prefix\n")
	writeEnv(t, globalDir, "SPECROW_REPO=global/repo\nSPECROW_TEMPLATE_PREFIX=global-prefix\nSPECROW_API_URL=https://ghe.example.com/api/v3\n")
	t.Setenv(EnvRepo, "process/repo")
	t.Setenv(EnvTemplatePrefix, "")
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvTemplateDir, "")

	r := NewEnvResolver(projectDir, globalDir)

	tests := []struct {
		name       string
		wantValue  string
		wantSource EnvSource
	}{
		{EnvRepo, "process/repo", EnvSourceProcess},
		{EnvTemplatePrefix, "project-prefix", EnvSourceProject},
		{EnvAPIURL, "https://ghe.example.com/api/v3", EnvSourceGlobal},
		{EnvTemplateDir, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Lookup(tt.name)
			if got.Value != tt.wantValue || got.Source != tt.wantSource {
				t.Errorf("Lookup(%s) = %q from %q, want %q from %q",
					tt.name, got.Value, got.Source, tt.wantValue, tt.wantSource)
			}
		})
	}

	if got := r.Get(EnvTemplateDir, "fallback"); got != "fallback" {
		t.Errorf("Get() = %q, want fallback", got)
	}
}

func TestEnvResolver_ResolveToken(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		process    map[string]string
		project    string
		global     string
		wantValue  string
		wantSource EnvSource
	}{
		{
			name:       "flag wins",
			flag:       "from-flag",
			process:    map[string]string{"GH_TOKEN": "gh"},
			wantValue:  "from-flag",
			wantSource: EnvSourceFlag,
		},
		{
			name:       "GH_TOKEN before GITHUB_TOKEN",
			process:    map[string]string{"GH_TOKEN": "gh", "GITHUB_TOKEN": "github"},
			wantValue:  "gh",
			wantSource: EnvSourceProcess,
		},
		{
			name:       "process GITHUB_TOKEN before project file",
			process:    map[string]string{"GH_TOKEN": "", "GITHUB_TOKEN": "github"},
			project:    "GH_TOKEN=project\n",
			wantValue:  "github",
			wantSource: EnvSourceProcess,
		},
		{
			name:       "project before global",
			process:    map[string]string{"GH_TOKEN": "", "GITHUB_TOKEN": ""},
			project:    "GITHUB_TOKEN=project\n",
			global:     "GH_TOKEN=global\n",
			wantValue:  "project",
			wantSource: EnvSourceProject,
		},
		{
			name:       "global fallback, whitespace trimmed",
			process:    map[string]string{"GH_TOKEN": "", "GITHUB_TOKEN": ""},
			global:     "GH_TOKEN=\"  global  \"\n",
			wantValue:  "global",
			wantSource: EnvSourceGlobal,
		},
		{
			name:    "none",
			process: map[string]string{"GH_TOKEN": "  ", "GITHUB_TOKEN": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectDir := t.TempDir()
			globalDir := t.TempDir()
			for k, v := range tt.process {
				t.Setenv(k, v)
			}
			if tt.project != "" {
				writeEnv(t, projectDir, tt.project)
			}
			if tt.global != "" {
				writeEnv(t, globalDir, tt.global)
			}

			got := NewEnvResolver(projectDir, globalDir).ResolveToken(tt.flag)
			if got.Value != tt.wantValue || got.Source != tt.wantSource {
				t.Errorf("ResolveToken() = %q from %q, want %q from %q",
					got.Value, got.Source, tt.wantValue, tt.wantSource)
			}
		})
	}
}
