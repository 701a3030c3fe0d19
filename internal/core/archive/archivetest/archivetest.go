// Package archivetest builds template archives for tests.
package archivetest

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"
)

// WriteZip writes a zip at path containing files (slash-separated name ->
// content). Names ending in "/" become directory entries.
func WriteZip(path string, files map[string]string) error {
	return WriteZipModes(path, files, nil)
}

// WriteZipModes is WriteZip with per-file permissions. Files missing from
// modes get 0644.
func WriteZipModes(path string, files map[string]string, modes map[string]fs.FileMode) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, name := range names {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if name[len(name)-1] == '/' {
			hdr.SetMode(fs.ModeDir | 0o755)
		} else if mode, ok := modes[name]; ok {
			hdr.SetMode(mode)
		} else {
			hdr.SetMode(0o644)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = out.Close()
			return err
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			_ = out.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// ZipDir packs every regular file below dir into a zip at path, keeping
// paths relative to dir.
func ZipDir(dir, path string) error {
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return err
	}
	return WriteZip(path, files)
}
