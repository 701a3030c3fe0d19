package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Index lists releases. *Client implements it.
type Index interface {
	ListReleases(ctx context.Context) ([]Release, error)
}

// Resolver picks the archive for an assistant and script flavor.
// It never writes anything.
type Resolver struct {
	index  Index
	prefix string
}

// NewResolver creates a Resolver. index may be nil when only local
// resolution is used.
func NewResolver(index Index, prefix string) *Resolver {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Resolver{index: index, prefix: prefix}
}

// Prefix returns the asset name prefix.
func (r *Resolver) Prefix() string { return r.prefix }

// Resolve returns the archive reference for the given assistant and script
// flavor. A non-empty localDir selects local resolution exclusively.
func (r *Resolver) Resolve(ctx context.Context, assistantID, script, localDir string) (Reference, error) {
	if localDir != "" {
		return r.resolveLocal(assistantID, script, localDir)
	}
	return r.resolveRemote(ctx, assistantID, script)
}

// stem is the "<prefix>-<assistant>-<script>" part shared by all matching
// asset names.
func (r *Resolver) stem(assistantID, script string) string {
	return fmt.Sprintf("%s-%s-%s", r.prefix, assistantID, script)
}

// resolveLocal searches dir for <stem>-v<semver>.zip and picks the greatest
// version string. Versions compare as plain strings, which orders correctly
// only while compared versions have equal digit widths.
func (r *Resolver) resolveLocal(assistantID, script, dir string) (Reference, error) {
	stem := r.stem(assistantID, script)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Reference{}, &ResolutionError{
			Assistant: assistantID,
			Script:    script,
			Reason:    fmt.Sprintf("local template directory %s does not exist", dir),
		}
	}

	matches, err := localArtifacts(dir, stem)
	if err != nil {
		return Reference{}, fmt.Errorf("searching %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return Reference{}, &ResolutionError{
			Assistant:  assistantID,
			Script:     script,
			Reason:     fmt.Sprintf("no local artifact matching %s-v*.zip in %s", stem, dir),
			Candidates: siblingArchives(dir),
		}
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if localVersion(m, stem) > localVersion(best, stem) {
			best = m
		}
	}

	st, err := os.Stat(best)
	if err != nil {
		return Reference{}, fmt.Errorf("inspecting %s: %w", best, err)
	}
	if st.Size() == 0 {
		return Reference{}, &ResolutionError{
			Assistant: assistantID,
			Script:    script,
			Reason:    fmt.Sprintf("local artifact %s is empty", filepath.Base(best)),
		}
	}

	return Reference{
		Kind: KindLocal,
		Path: best,
		Size: st.Size(),
		Tag:  "v" + localVersion(best, stem),
	}, nil
}

// localArtifacts returns the paths of the files in dir named
// <stem>-v<anything>.zip. Only file names are compared, so dir may contain
// glob metacharacters.
func localArtifacts(dir, stem string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, stem+"-v") || !strings.HasSuffix(name, ".zip") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// localVersion extracts the version segment from <stem>-v<version>.zip.
func localVersion(path, stem string) string {
	name := filepath.Base(path)
	name = strings.TrimPrefix(name, stem+"-v")
	return strings.TrimSuffix(name, ".zip")
}

// siblingArchives lists the zip files in dir for diagnostics.
func siblingArchives(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".zip") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// resolveRemote takes the first non-draft, non-prerelease release and the
// first asset whose name contains the stem and ends in .zip.
func (r *Resolver) resolveRemote(ctx context.Context, assistantID, script string) (Reference, error) {
	if r.index == nil {
		return Reference{}, fmt.Errorf("no release index configured")
	}
	releases, err := r.index.ListReleases(ctx)
	if err != nil {
		return Reference{}, fmt.Errorf("fetching release index: %w", err)
	}

	var latest *Release
	for i := range releases {
		if !releases[i].Draft && !releases[i].Prerelease {
			latest = &releases[i]
			break
		}
	}
	if latest == nil {
		return Reference{}, &ResolutionError{
			Assistant: assistantID,
			Script:    script,
			Reason:    "no published release found",
		}
	}

	stem := r.stem(assistantID, script)
	names := make([]string, 0, len(latest.Assets))
	for _, a := range latest.Assets {
		names = append(names, a.Name)
		if strings.Contains(a.Name, stem) && strings.HasSuffix(a.Name, ".zip") {
			return Reference{
				Kind:        KindRemote,
				DownloadURL: a.URL,
				AssetName:   a.Name,
				Size:        a.Size,
				Tag:         latest.TagName,
			}, nil
		}
	}

	return Reference{}, &ResolutionError{
		Assistant:  assistantID,
		Script:     script,
		Reason:     fmt.Sprintf("release %s has no asset matching %s", latest.TagName, stem),
		Candidates: names,
	}
}
