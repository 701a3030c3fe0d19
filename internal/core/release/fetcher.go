package release

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Downloader streams a URL into a writer. *Client implements it.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Fetcher makes a resolved archive available on local disk.
type Fetcher struct {
	client Downloader
	dir    string
}

// NewFetcher creates a Fetcher writing remote downloads into dir.
// An empty dir means the current working directory.
func NewFetcher(client Downloader, dir string) *Fetcher {
	return &Fetcher{client: client, dir: dir}
}

// Fetch returns the archive for ref. Local references are used in place.
// Remote references are downloaded to a new temporary file that the caller
// owns; on failure no partial file is left behind.
func (f *Fetcher) Fetch(ctx context.Context, ref Reference) (*FetchedArchive, error) {
	switch ref.Kind {
	case KindLocal:
		return fetchLocal(ref)
	case KindRemote:
		return f.fetchRemote(ctx, ref)
	default:
		return nil, fmt.Errorf("unknown reference kind %q", ref.Kind)
	}
}

func fetchLocal(ref Reference) (*FetchedArchive, error) {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("local artifact: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("local artifact %s is a directory", ref.Path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("local artifact %s is empty", ref.Path)
	}
	return &FetchedArchive{
		Path:   ref.Path,
		Size:   info.Size(),
		Source: string(KindLocal),
	}, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, ref Reference) (*FetchedArchive, error) {
	if f.client == nil {
		return nil, fmt.Errorf("no download client configured")
	}
	if ref.DownloadURL == "" {
		return nil, fmt.Errorf("asset %s has no download URL", ref.AssetName)
	}

	dir := f.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		dir = cwd
	}

	name := ".specrow-download-" + uuid.NewString() + "-" + filepath.Base(ref.AssetName)
	path := filepath.Join(dir, name)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}

	w := &recordingWriter{w: out}
	n, err := f.client.Download(ctx, ref.DownloadURL, w)
	closeErr := out.Close()
	switch {
	case w.err != nil:
		err = &WriteError{Path: path, Err: w.err}
	case err == nil && closeErr != nil:
		err = &WriteError{Path: path, Err: closeErr}
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &FetchedArchive{
		Path:   path,
		Size:   n,
		Source: string(KindRemote),
		Owned:  true,
	}, nil
}

// recordingWriter remembers the first write error so that a disk failure
// during streaming is not reported as a transfer failure.
type recordingWriter struct {
	w   io.Writer
	err error
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	n, err := r.w.Write(p)
	if err != nil && r.err == nil {
		r.err = err
	}
	return n, err
}
