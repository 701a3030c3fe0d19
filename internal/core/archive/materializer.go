// Package archive extracts a template archive and merges it into a project
// directory.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/barysiuk/specrow/internal/core/progress"
	"github.com/barysiuk/specrow/internal/core/release"
)

// Options configures a materialization.
type Options struct {
	// ExistingDir means dest already exists (typically the current
	// directory) and may hold unrelated user files. It is never created and
	// never removed.
	ExistingDir bool

	// Tracker, if set, receives "<StepPrefix>extract" and "<StepPrefix>merge"
	// step updates.
	Tracker    *progress.Tracker
	StepPrefix string
}

// Result describes a successful merge.
type Result struct {
	Destination string
	Copied      int // number of files written into Destination
}

// Materialize extracts fa into a scratch directory and merges its content
// into dest. The scratch directory is always removed, and so is the archive
// when fa.Owned. When dest is a new directory and anything fails, dest is
// removed before the error is returned.
func Materialize(fa *release.FetchedArchive, dest string, opts Options) (res *Result, err error) {
	if fa.Owned {
		defer func() { _ = os.Remove(fa.Path) }()
	}

	if !opts.ExistingDir {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dest, err)
		}
		defer func() {
			if err != nil {
				_ = os.RemoveAll(dest)
			}
		}()
	}

	scratch, err := os.MkdirTemp("", "specrow-extract-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	extractKey := opts.StepPrefix + "extract"
	mergeKey := opts.StepPrefix + "merge"

	opts.start(extractKey, filepath.Base(fa.Path))
	entries, err := Extract(fa.Path, scratch)
	if err != nil {
		opts.fail(extractKey, err.Error())
		return nil, fmt.Errorf("extracting %s: %w", filepath.Base(fa.Path), err)
	}
	opts.complete(extractKey, fmt.Sprintf("%d entries", entries))

	src, flattened := sourceRoot(scratch)

	opts.start(mergeKey, "")
	copied, err := Merge(src, dest)
	if err != nil {
		opts.fail(mergeKey, err.Error())
		return nil, fmt.Errorf("merging into %s: %w", dest, err)
	}
	detail := fmt.Sprintf("%d files", copied)
	if flattened {
		detail += ", flattened"
	}
	opts.complete(mergeKey, detail)

	return &Result{Destination: dest, Copied: copied}, nil
}

// Extract writes every entry of the zip at path below dir and returns the
// number of entries. Entries that would land outside dir are rejected.
func Extract(path, dir string) (int, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, err
	}

	for _, f := range r.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return 0, fmt.Errorf("entry %q escapes extraction directory", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return 0, err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return 0, fmt.Errorf("entry %q: %w", f.Name, err)
		}
	}
	return len(r.File), nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// sourceRoot returns the directory to merge from: the single top-level
// directory when the archive wraps everything in one, dir itself otherwise.
func sourceRoot(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir, false
	}
	return filepath.Join(dir, entries[0].Name()), true
}

// Merge copies every entry of src into dst. Directories present on both
// sides are merged recursively; files overwrite silently. It returns the
// number of files written.
func Merge(src, dst string) (int, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	copied := 0
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())

		var n int
		switch {
		case e.IsDir() && dirExists(to):
			n, err = Merge(from, to)
		case e.IsDir():
			n, err = copyTree(from, to)
		default:
			err = copyFile(from, to)
			n = 1
		}
		if err != nil {
			return copied, err
		}
		copied += n
	}
	return copied, nil
}

// copyTree copies a directory that does not exist at dst yet.
func copyTree(src, dst string) (int, error) {
	copied := 0
	err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

// copyFile copies a single file from src to dst. The content goes to a
// temporary sibling that is renamed over dst, so a read-only dst left by an
// earlier merge is replaced instead of opened for writing.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, srcFile); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (o Options) start(key, detail string) {
	if o.Tracker != nil {
		o.Tracker.Start(key, detail)
	}
}

func (o Options) complete(key, detail string) {
	if o.Tracker != nil {
		o.Tracker.Complete(key, detail)
	}
}

func (o Options) fail(key, detail string) {
	if o.Tracker != nil {
		o.Tracker.Fail(key, detail)
	}
}
