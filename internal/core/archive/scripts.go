package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ScriptsDir is the project-relative directory holding helper scripts.
const ScriptsDir = ".specify/scripts"

// ScriptPermResult summarizes EnsureExecutableScripts.
type ScriptPermResult struct {
	Updated  int
	Failures []string
}

// EnsureExecutableScripts adds execute bits to every *.sh file below
// <projectDir>/.specify/scripts that starts with a shebang. Execute is
// granted wherever read is granted. Nothing is executed. It is a no-op on
// Windows or when the directory is absent.
func EnsureExecutableScripts(projectDir string) (*ScriptPermResult, error) {
	res := &ScriptPermResult{}
	if runtime.GOOS == "windows" {
		return res, nil
	}
	root := filepath.Join(projectDir, filepath.FromSlash(ScriptsDir))
	if !dirExists(root) {
		return res, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sh") || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		rel, _ := filepath.Rel(projectDir, path)
		ok, err := hasShebang(path)
		if err != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %v", rel, err))
			return nil
		}
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %v", rel, err))
			return nil
		}
		mode := info.Mode().Perm()
		if mode&0o111 != 0 {
			return nil
		}
		// Mirror read bits onto execute bits (r--r--r-- -> r-xr-xr-x).
		newMode := mode | (mode&0o444)>>2
		if newMode&0o100 == 0 {
			newMode |= 0o100
		}
		if err := os.Chmod(path, newMode); err != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %v", rel, err))
			return nil
		}
		res.Updated++
		return nil
	})
	return res, err
}

func hasShebang(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 2)
	if _, err := io.ReadFull(f, head); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, []byte("#!")), nil
}
