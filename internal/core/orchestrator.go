package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/barysiuk/specrow/internal/core/archive"
	"github.com/barysiuk/specrow/internal/core/progress"
	"github.com/barysiuk/specrow/internal/core/release"
)

// TemplateResolver picks the archive for an assistant. *release.Resolver
// implements it.
type TemplateResolver interface {
	Resolve(ctx context.Context, assistantID, script, localDir string) (release.Reference, error)
}

// ArchiveFetcher makes an archive available on local disk.
// *release.Fetcher implements it.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, ref release.Reference) (*release.FetchedArchive, error)
}

// Logger is the subset of *logging.Logger the orchestrator writes to.
type Logger interface {
	Printf(format string, args ...any)
}

// Orchestrator runs resolve, fetch and materialize for every selected
// assistant and aggregates the outcomes.
type Orchestrator struct {
	resolver TemplateResolver
	fetcher  ArchiveFetcher
	log      Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(resolver TemplateResolver, fetcher ArchiveFetcher) *Orchestrator {
	return &Orchestrator{resolver: resolver, fetcher: fetcher}
}

// SetLogger routes per-assistant progress to l.
func (o *Orchestrator) SetLogger(l Logger) {
	o.log = l
}

// StepKeys returns the tracker keys used for one assistant, in order.
func StepKeys(assistantID string) []string {
	p := assistantID + ":"
	return []string{p + "resolve", p + "fetch", p + "extract", p + "merge"}
}

var stepLabels = []string{"resolve release", "fetch archive", "extract archive", "merge into project"}

// Acquire installs templates for every assistant in opts.Assistants, one
// after another. A failing assistant is recorded as a failed outcome and
// does not stop the others.
//
// When nothing succeeds, Acquire returns the result together with an
// *AcquireFailedError, and a destination created by this run has been
// removed. Otherwise Version is the tag of the last successful assistant.
func (o *Orchestrator) Acquire(ctx context.Context, opts AcquireOptions) (*AcquireResult, error) {
	if len(opts.Assistants) == 0 {
		return nil, fmt.Errorf("no assistants selected")
	}
	if opts.Destination == "" {
		return nil, fmt.Errorf("destination is required")
	}
	if !opts.ExistingDir {
		if _, err := os.Stat(opts.Destination); err == nil {
			return nil, fmt.Errorf("destination %s already exists", opts.Destination)
		}
	}

	tr := opts.Tracker
	if tr == nil {
		tr = progress.NewTracker("acquire")
	}
	for _, id := range opts.Assistants {
		for i, key := range StepKeys(id) {
			tr.Add(key, id+": "+stepLabels[i])
		}
	}

	res := &AcquireResult{}
	existing := opts.ExistingDir
	for _, id := range opts.Assistants {
		outcome, locked := o.acquireOne(ctx, tr, id, opts, existing)
		res.Outcomes = append(res.Outcomes, outcome)
		if !outcome.Succeeded {
			o.logf("acquire %s: failed: %v", id, outcome.Err)
			continue
		}
		o.logf("acquire %s: installed %s (%s)", id, locked.Asset, outcome.Version)
		res.Version = outcome.Version
		res.Locked = append(res.Locked, *locked)
		// The destination holds merged content now; a later failure must
		// not remove it.
		existing = true
	}

	if len(res.Succeeded()) == 0 {
		return res, &AcquireFailedError{Outcomes: res.Outcomes}
	}

	if opts.ScriptFlavor == "sh" {
		tr.Add("scripts", "make scripts executable")
		tr.Start("scripts", "")
		perms, err := archive.EnsureExecutableScripts(opts.Destination)
		switch {
		case err != nil:
			tr.Fail("scripts", err.Error())
			o.logf("chmod scripts: %v", err)
		case len(perms.Failures) > 0:
			tr.Fail("scripts", fmt.Sprintf("%d updated, %d failed", perms.Updated, len(perms.Failures)))
			o.logf("chmod scripts: %v", perms.Failures)
		default:
			tr.Complete("scripts", fmt.Sprintf("%d updated", perms.Updated))
		}
		res.Scripts = perms
	}

	return res, nil
}

func (o *Orchestrator) acquireOne(ctx context.Context, tr *progress.Tracker, id string, opts AcquireOptions, existing bool) (AgentOutcome, *LockedTemplate) {
	keys := StepKeys(id)
	fail := func(step int, err error) (AgentOutcome, *LockedTemplate) {
		tr.Fail(keys[step], err.Error())
		for _, k := range keys[step+1:] {
			tr.Skip(k, "")
		}
		return AgentOutcome{Assistant: id, Err: ClassifyAcquireError(id, err)}, nil
	}

	tr.Start(keys[0], "")
	ref, err := o.resolver.Resolve(ctx, id, opts.ScriptFlavor, opts.LocalDir)
	if err != nil {
		return fail(0, err)
	}
	tr.Complete(keys[0], ref.String())
	o.logf("acquire %s: resolved %s", id, ref)

	tr.Start(keys[1], "")
	fa, err := o.fetcher.Fetch(ctx, ref)
	if err != nil {
		return fail(1, err)
	}
	digest, size, err := fileDigest(fa.Path)
	if err != nil {
		if fa.Owned {
			_ = os.Remove(fa.Path)
		}
		return fail(1, fmt.Errorf("hashing %s: %w", fa.Path, err))
	}
	tr.Complete(keys[1], fmt.Sprintf("%s, %s", fa.Source, formatBytes(size)))

	if _, err := archive.Materialize(fa, opts.Destination, archive.Options{
		ExistingDir: existing,
		Tracker:     tr,
		StepPrefix:  id + ":",
	}); err != nil {
		// Materialize marks its own failing step.
		for _, k := range keys[2:] {
			if s, ok := tr.Lookup(k); ok && s.Status == progress.StatusPending {
				tr.Skip(k, "")
			}
		}
		return AgentOutcome{Assistant: id, Err: ClassifyAcquireError(id, &materializeError{err: err})}, nil
	}

	asset := ref.AssetName
	if ref.Kind == release.KindLocal {
		asset = ref.Path
	}
	return AgentOutcome{Assistant: id, Succeeded: true, Version: ref.Tag}, &LockedTemplate{
		Assistant: id,
		Asset:     asset,
		Tag:       ref.Tag,
		Source:    fa.Source,
		Size:      size,
		SHA256:    digest,
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.log != nil {
		o.log.Printf(format, args...)
	}
}

// IsAcquireFailed reports whether err means no assistant succeeded.
func IsAcquireFailed(err error) bool {
	var af *AcquireFailedError
	return errors.As(err, &af)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
