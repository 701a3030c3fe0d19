package core

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvFileName is the dotenv file read from the project and from ~/.specrow.
	EnvFileName = ".env.specrow"

	// GlobalDirName is the per-user state directory under $HOME.
	GlobalDirName = ".specrow"
)

// Settings read from the environment.
const (
	EnvRepo           = "SPECROW_REPO"
	EnvAPIURL         = "SPECROW_API_URL"
	EnvTemplateDir    = "SPECROW_TEMPLATE_DIR"
	EnvTemplatePrefix = "SPECROW_TEMPLATE_PREFIX"
)

// tokenVars are checked in order when no token flag is given.
var tokenVars = []string{"GH_TOKEN", "GITHUB_TOKEN"}

// EnvSource indicates where a value was resolved from.
type EnvSource string

const (
	EnvSourceFlag    EnvSource = "flag"
	EnvSourceProcess EnvSource = "process"
	EnvSourceProject EnvSource = "project"
	EnvSourceGlobal  EnvSource = "global"
)

// ResolvedValue is a setting value and where it was found.
type ResolvedValue struct {
	Name   string
	Value  string
	Source EnvSource // empty when not found
}

// EnvResolver resolves settings with the precedence
// process env > project .env.specrow > global ~/.specrow/.env.specrow.
type EnvResolver struct {
	projectDir string
	globalDir  string
}

// NewEnvResolver creates an EnvResolver for the given project directory.
// globalDir defaults to ~/.specrow/ if empty.
func NewEnvResolver(projectDir, globalDir string) *EnvResolver {
	if globalDir == "" {
		globalDir = DefaultGlobalDir()
	}
	return &EnvResolver{
		projectDir: projectDir,
		globalDir:  globalDir,
	}
}

// DefaultGlobalDir returns ~/.specrow, or "" when $HOME is unknown.
func DefaultGlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, GlobalDirName)
}

// Lookup resolves a single setting.
func (r *EnvResolver) Lookup(name string) ResolvedValue {
	return r.lookup(name, r.load())
}

// Get returns the value of a setting, or fallback when it is unset or empty.
func (r *EnvResolver) Get(name, fallback string) string {
	if v := r.Lookup(name); v.Value != "" {
		return v.Value
	}
	return fallback
}

// ResolveToken returns the API token. The precedence is the flag value,
// then GH_TOKEN and GITHUB_TOKEN from the process environment, then the
// project file, then the global file. Blank values are ignored.
func (r *EnvResolver) ResolveToken(flag string) ResolvedValue {
	if v := strings.TrimSpace(flag); v != "" {
		return ResolvedValue{Name: "--github-token", Value: v, Source: EnvSourceFlag}
	}

	files := r.load()
	sources := []struct {
		source EnvSource
		get    func(string) (string, bool)
	}{
		{EnvSourceProcess, os.LookupEnv},
		{EnvSourceProject, mapLookup(files.project)},
		{EnvSourceGlobal, mapLookup(files.global)},
	}
	for _, src := range sources {
		for _, name := range tokenVars {
			if val, ok := src.get(name); ok && strings.TrimSpace(val) != "" {
				return ResolvedValue{Name: name, Value: strings.TrimSpace(val), Source: src.source}
			}
		}
	}
	return ResolvedValue{}
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

type envFiles struct {
	project map[string]string
	global  map[string]string
}

func (r *EnvResolver) load() envFiles {
	f := envFiles{project: parseEnvFile(filepath.Join(r.projectDir, EnvFileName))}
	if r.globalDir != "" {
		f.global = parseEnvFile(filepath.Join(r.globalDir, EnvFileName))
	}
	return f
}

func (r *EnvResolver) lookup(name string, files envFiles) ResolvedValue {
	if val, ok := os.LookupEnv(name); ok && val != "" {
		return ResolvedValue{Name: name, Value: val, Source: EnvSourceProcess}
	}
	if val, ok := files.project[name]; ok {
		return ResolvedValue{Name: name, Value: val, Source: EnvSourceProject}
	}
	if val, ok := files.global[name]; ok {
		return ResolvedValue{Name: name, Value: val, Source: EnvSourceGlobal}
	}
	return ResolvedValue{Name: name}
}

// parseEnvFile parses a .env file and returns key-value pairs.
// Returns nil if the file does not exist or cannot be read.
// Supports:
//   - KEY=VALUE
//   - KEY="VALUE" and KEY='VALUE' (outer quotes stripped)
//   - # comments and blank lines
//   - export KEY=VALUE
func parseEnvFile(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	env := make(map[string]string)
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])

		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') ||
				(val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}

		if key != "" {
			env[key] = val
		}
	}

	return env
}
