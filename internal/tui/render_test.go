package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/barysiuk/specrow/internal/core"
)

func TestNextStepsMarkdown(t *testing.T) {
	md := NextSteps{
		ProjectName:  "my-app",
		Assistants:   []string{"claude", "unknown"},
		ScriptFlavor: "ps",
	}.Markdown()

	for _, want := range []string{
		"1. Enter the project: `cd my-app`",
		"2. Open the project with Claude Code (`.claude/`)",
		"3. Start a work session",
		"`.specify/scripts/powershell`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestNextStepsMarkdown_InPlace(t *testing.T) {
	md := NextSteps{Assistants: []string{"gemini"}, ScriptFlavor: "sh"}.Markdown()
	if strings.Contains(md, "cd ") {
		t.Errorf("in-place init should not suggest cd:\n%s", md)
	}
	if !strings.Contains(md, "1. Open the project with Gemini CLI") {
		t.Errorf("unexpected numbering:\n%s", md)
	}
	if !strings.Contains(md, "`.specify/scripts/bash`") {
		t.Errorf("missing bash scripts dir:\n%s", md)
	}
}

func TestRenderNextSteps_NoTTY(t *testing.T) {
	out, err := RenderNextSteps(NextSteps{ProjectName: "my-app"}.Markdown(), 120, false)
	if err != nil {
		t.Fatalf("RenderNextSteps() error: %v", err)
	}
	for _, want := range []string{"Next steps", "cd my-app", "session resolve"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderAcquireError(t *testing.T) {
	err := &core.AcquireError{
		Kind:      core.AcquireErrNetwork,
		Assistant: "gemini",
		Err:       errors.New("dial tcp: connection refused"),
		Hints:     []string{"Check your internet connection"},
	}
	out := RenderAcquireError(err)
	for _, want := range []string{"gemini: Network Error", "connection refused", "→ Check your internet connection"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	plain := RenderAcquireError(errors.New("boom"))
	if !strings.Contains(plain, "✗ boom") {
		t.Errorf("plain = %q", plain)
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(&core.AcquireResult{Outcomes: []core.AgentOutcome{
		{Assistant: "claude", Succeeded: true, Version: "v0.0.9"},
		{Assistant: "gemini", Err: errors.New("x")},
	}})
	if !strings.Contains(out, "✓ claude v0.0.9") || !strings.Contains(out, "✗ gemini") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}
