// Package release resolves which template archive to use for an assistant
// and script flavor, and fetches it to local disk.
//
// Archives come either from a local artifact directory (explicit override)
// or from the latest published release of a repository.
package release

import "fmt"

const (
	// DefaultRepo is the repository whose releases publish the templates.
	DefaultRepo = "github/spec-kit"
	// DefaultAPIURL is the base URL of the release index API.
	DefaultAPIURL = "https://api.github.com"
	// DefaultPrefix is the asset name prefix shared by every template archive.
	DefaultPrefix = "spec-kit-template"
)

// Kind discriminates how a Reference is fetched.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// Reference points to exactly one downloadable archive. It is a value type
// and is never modified after Resolve returns it.
type Reference struct {
	Kind Kind

	// Path is set for KindLocal.
	Path string

	// Set for KindRemote.
	DownloadURL string
	AssetName   string

	Size int64
	Tag  string // release tag, or "v<semver>" parsed from a local file name
}

// String returns a short human description used in progress output.
func (r Reference) String() string {
	switch r.Kind {
	case KindLocal:
		return fmt.Sprintf("local %s", r.Path)
	default:
		return fmt.Sprintf("%s (%s)", r.AssetName, r.Tag)
	}
}

// FetchedArchive is an archive available on local disk.
type FetchedArchive struct {
	Path   string
	Size   int64
	Source string // "local" or "remote"

	// Owned marks a temporary download. Whoever consumes an owned archive
	// deletes it; a non-owned archive is a user file referenced in place.
	Owned bool
}

// Release is one entry of the release index.
type Release struct {
	TagName    string  `json:"tag_name"`
	Name       string  `json:"name"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// Asset is a file attached to a release. URL is the API download URL, which
// also works for private repositories; BrowserDownloadURL is never used.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	URL                string `json:"url"`
	BrowserDownloadURL string `json:"browser_download_url,omitempty"`
}
