// Package core provides the business logic for specrow.
// It has zero UI dependencies and is independently testable.
package core

import (
	"github.com/barysiuk/specrow/internal/core/archive"
	"github.com/barysiuk/specrow/internal/core/progress"
)

// ProjectConfig is the persisted record stored at .specify/config.json.
// CurrentSession is nil when no session is current.
type ProjectConfig struct {
	SelectedAssistants []string `json:"selectedAssistants"`
	ScriptFlavor       string   `json:"scriptFlavor"`
	TemplateVersion    string   `json:"templateVersion"`
	CurrentSession     *string  `json:"currentSession"`
}

// AgentOutcome is the result of acquiring templates for one assistant.
type AgentOutcome struct {
	Assistant string
	Succeeded bool
	Version   string // release tag, set when Succeeded
	Err       error  // set when !Succeeded
}

// ErrorMessage returns the failure message, or "" for a success.
func (o AgentOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// AcquireOptions configures an acquisition run.
type AcquireOptions struct {
	Destination  string
	Assistants   []string
	ScriptFlavor string

	// ExistingDir merges into a directory that already exists (--here).
	ExistingDir bool

	// LocalDir switches resolution to local artifacts.
	LocalDir string

	Tracker *progress.Tracker
}

// AcquireResult is the aggregate of one acquisition run. Outcomes holds
// exactly one entry per requested assistant, in request order.
type AcquireResult struct {
	Version  string
	Outcomes []AgentOutcome
	Locked   []LockedTemplate

	// Scripts is set for the sh flavor once execute bits were applied.
	Scripts *archive.ScriptPermResult
}

// Succeeded returns the assistants that succeeded, in request order.
func (r *AcquireResult) Succeeded() []string {
	var ids []string
	for _, o := range r.Outcomes {
		if o.Succeeded {
			ids = append(ids, o.Assistant)
		}
	}
	return ids
}

// Failed returns the failed outcomes, in request order.
func (r *AcquireResult) Failed() []AgentOutcome {
	var failed []AgentOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			failed = append(failed, o)
		}
	}
	return failed
}

// LockedTemplate pins the archive an assistant's templates came from.
type LockedTemplate struct {
	Assistant string `json:"assistant"`
	Asset     string `json:"asset"`
	Tag       string `json:"tag,omitempty"`
	Source    string `json:"source"` // "remote" or "local"
	Size      int64  `json:"size"`
	SHA256    string `json:"sha256"`
}
