package archive

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/barysiuk/specrow/internal/core/archive/archivetest"
	"github.com/barysiuk/specrow/internal/core/progress"
	"github.com/barysiuk/specrow/internal/core/release"
)

func makeArchive(t *testing.T, files map[string]string, owned bool) *release.FetchedArchive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.zip")
	require.NoError(t, archivetest.WriteZip(path, files))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return &release.FetchedArchive{Path: path, Size: info.Size(), Source: "remote", Owned: owned}
}

// snapshot returns relative path -> content for every file below dir.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	require.NoError(t, filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		data, err := os.ReadFile(p)
		out[filepath.ToSlash(rel)] = string(data)
		return err
	}))
	return out
}

func TestMaterialize_FlattensSingleRoot(t *testing.T) {
	fa := makeArchive(t, map[string]string{
		"spec-kit/.specify/memory/constitution.md": "c",
		"spec-kit/.claude/commands/plan.md":        "p",
	}, true)
	dest := filepath.Join(t.TempDir(), "proj")

	res, err := Materialize(fa, dest, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Copied)
	require.Equal(t, dest, res.Destination)
	require.Equal(t, map[string]string{
		".specify/memory/constitution.md": "c",
		".claude/commands/plan.md":        "p",
	}, snapshot(t, dest))

	_, err = os.Stat(fa.Path)
	require.True(t, os.IsNotExist(err), "owned archive must be deleted")
}

func TestMaterialize_NoFlattenForMultipleRoots(t *testing.T) {
	fa := makeArchive(t, map[string]string{
		".specify/a.md": "a",
		"README.md":     "r",
	}, false)
	dest := filepath.Join(t.TempDir(), "proj")

	_, err := Materialize(fa, dest, Options{})
	require.NoError(t, err)
	require.Equal(t, map[string]string{".specify/a.md": "a", "README.md": "r"}, snapshot(t, dest))

	_, err = os.Stat(fa.Path)
	require.NoError(t, err, "non-owned archive must be kept")
}

func TestMaterialize_MergeIntoExistingDirectory(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, ".specify", "memory"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, ".specify", "memory", "constitution.md"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, ".specify", "mine.txt"), []byte("keep"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "main.go"), []byte("package main"), 0o644))

	fa := makeArchive(t, map[string]string{
		"root/.specify/memory/constitution.md": "new",
		"root/.specify/templates/spec.md":      "s",
	}, true)

	_, err := Materialize(fa, dest, Options{ExistingDir: true})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		".specify/memory/constitution.md": "new",
		".specify/mine.txt":               "keep",
		".specify/templates/spec.md":      "s",
		"main.go":                         "package main",
	}, snapshot(t, dest))
}

func TestMaterialize_Idempotent(t *testing.T) {
	files := map[string]string{
		"root/.specify/a.md":   "a",
		"root/.specify/b/c.md": "c",
		"root/top.md":          "t",
	}
	dest := filepath.Join(t.TempDir(), "proj")

	_, err := Materialize(makeArchive(t, files, true), dest, Options{})
	require.NoError(t, err)
	once := snapshot(t, dest)

	_, err = Materialize(makeArchive(t, files, true), dest, Options{ExistingDir: true})
	require.NoError(t, err)
	require.Equal(t, once, snapshot(t, dest))
}

func TestMaterialize_ReadOnlyFilesRemerge(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("read-only rename semantics differ on windows")
	}
	files := map[string]string{
		"root/.specify/memory/constitution.md": "v1",
		"root/.specify/templates/plan.md":      "p",
	}
	modes := map[string]fs.FileMode{"root/.specify/memory/constitution.md": 0o444}
	archiveFor := func() *release.FetchedArchive {
		path := filepath.Join(t.TempDir(), "template.zip")
		require.NoError(t, archivetest.WriteZipModes(path, files, modes))
		return &release.FetchedArchive{Path: path, Source: "local"}
	}
	dest := t.TempDir()

	_, err := Materialize(archiveFor(), dest, Options{ExistingDir: true})
	require.NoError(t, err)
	once := snapshot(t, dest)

	files["root/.specify/memory/constitution.md"] = "v2"
	_, err = Materialize(archiveFor(), dest, Options{ExistingDir: true})
	require.NoError(t, err)

	once[".specify/memory/constitution.md"] = "v2"
	require.Equal(t, once, snapshot(t, dest))

	info, err := os.Stat(filepath.Join(dest, ".specify", "memory", "constitution.md"))
	require.NoError(t, err)
	require.Equal(t, fs.FileMode(0o444), info.Mode().Perm())
}

func TestMaterialize_FailureRemovesNewDestination(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("this is not a zip"), 0o644))
	fa := &release.FetchedArchive{Path: bad, Size: 17, Owned: true}
	dest := filepath.Join(t.TempDir(), "proj")

	tr := progress.NewTracker("t")
	_, err := Materialize(fa, dest, Options{Tracker: tr, StepPrefix: "claude:"})
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr), "new destination must be removed on failure")
	_, statErr = os.Stat(bad)
	require.True(t, os.IsNotExist(statErr), "owned archive must be removed on failure")

	step, ok := tr.Lookup("claude:extract")
	require.True(t, ok)
	require.Equal(t, progress.StatusError, step.Status)
}

func TestMaterialize_FailureKeepsExistingDirectory(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "user.txt"), []byte("u"), 0o644))

	_, err := Materialize(&release.FetchedArchive{Path: bad, Size: 4}, dest, Options{ExistingDir: true})
	require.Error(t, err)
	require.Equal(t, map[string]string{"user.txt": "u"}, snapshot(t, dest))
}

func TestExtract_RejectsPathTraversal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil.zip")
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	_, err = Extract(path, t.TempDir())
	require.ErrorContains(t, err, "escapes")
}

func TestMaterialize_TrackerSteps(t *testing.T) {
	fa := makeArchive(t, map[string]string{"a/b.md": "b"}, true)
	tr := progress.NewTracker("t")
	_, err := Materialize(fa, filepath.Join(t.TempDir(), "p"), Options{Tracker: tr, StepPrefix: "x:"})
	require.NoError(t, err)

	var keys []string
	for _, s := range tr.Steps() {
		require.Equal(t, progress.StatusDone, s.Status, s.Key)
		keys = append(keys, s.Key)
	}
	sort.Strings(keys)
	require.Equal(t, []string{"x:extract", "x:merge"}, keys)
}

func TestEnsureExecutableScripts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not applied on windows")
	}
	dir := t.TempDir()
	scripts := filepath.Join(dir, ".specify", "scripts", "bash")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "create.sh"), []byte("#!/usr/bin/env bash\necho hi\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "lib.sh"), []byte("# sourced only\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "done.sh"), []byte("#!/bin/sh\n"), 0o755))

	res, err := EnsureExecutableScripts(dir)
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Empty(t, res.Failures)

	info, err := os.Stat(filepath.Join(scripts, "create.sh"))
	require.NoError(t, err)
	require.Equal(t, fs.FileMode(0o755), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(scripts, "lib.sh"))
	require.NoError(t, err)
	require.Equal(t, fs.FileMode(0o644), info.Mode().Perm())
}

func TestEnsureExecutableScripts_NoScriptsDir(t *testing.T) {
	res, err := EnsureExecutableScripts(t.TempDir())
	require.NoError(t, err)
	require.Zero(t, res.Updated)
}
