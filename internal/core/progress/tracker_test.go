package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestTracker_AddDuplicateKey(t *testing.T) {
	tr := NewTracker("Init")
	tr.Add("fetch", "Fetch template")
	tr.Add("fetch", "Fetch template again")

	steps := tr.Steps()
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	if steps[0].Label != "Fetch template" {
		t.Errorf("label = %q, want first label to win", steps[0].Label)
	}
	if steps[0].Status != StatusPending {
		t.Errorf("status = %q, want pending", steps[0].Status)
	}
}

func TestTracker_SetStatusUnknownKeyInserts(t *testing.T) {
	tr := NewTracker("Init")
	tr.Complete("never-added", "ok")

	s, ok := tr.Lookup("never-added")
	if !ok {
		t.Fatal("expected step to be created")
	}
	if s.Status != StatusDone {
		t.Errorf("status = %q, want done", s.Status)
	}
	if s.Label != "never-added" {
		t.Errorf("label = %q, want key as label", s.Label)
	}
}

func TestTracker_LatestStatusWins(t *testing.T) {
	tr := NewTracker("Init")
	tr.Add("a", "A")
	tr.Complete("a", "")
	tr.Start("a", "again")

	s, _ := tr.Lookup("a")
	if s.Status != StatusRunning || s.Detail != "again" {
		t.Errorf("got %+v", s)
	}
}

func TestTracker_RenderLineCount(t *testing.T) {
	tr := NewTracker("Initialize project")
	tr.Add("resolve", "Resolve release")
	tr.Add("fetch", "Download template")
	tr.Add("extract", "Extract archive")
	tr.Complete("resolve", "v0.0.30")
	tr.Fail("fetch", "HTTP 404\nNot Found")

	out := tr.Render()
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines (title + 3 steps), got %d:\n%s", len(lines), out)
	}
	if lines[0] != "Initialize project" {
		t.Errorf("title line = %q", lines[0])
	}
	if lines[1] != "  ● Resolve release (v0.0.30)" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if lines[2] != "  ✗ Download template (HTTP 404 Not Found)" {
		t.Errorf("line 2 = %q", lines[2])
	}
	if lines[3] != "  ○ Extract archive" {
		t.Errorf("line 3 = %q", lines[3])
	}
}

func TestTracker_RenderDeterministic(t *testing.T) {
	tr := NewTracker("T")
	tr.Add("b", "B")
	tr.Add("a", "A")
	if tr.Render() != tr.Render() {
		t.Error("render is not deterministic")
	}
	if !strings.HasPrefix(strings.Split(tr.Render(), "\n")[1], "  ○ B") {
		t.Error("steps must render in insertion order")
	}
}

func TestTracker_Failed(t *testing.T) {
	tr := NewTracker("T")
	tr.Add("a", "A")
	if tr.Failed() {
		t.Error("fresh tracker should not be failed")
	}
	tr.Fail("a", "boom")
	if !tr.Failed() {
		t.Error("expected Failed() after an error step")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("finished"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestLive_RedrawErasesPreviousFrame(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker("T")
	live := NewLive(&buf, tr, false)
	live.Attach()

	// First frame: title only, nothing to erase.
	if strings.Contains(buf.String(), ansi.EraseEntireLine) {
		t.Fatal("first frame must not erase anything")
	}

	buf.Reset()
	tr.Add("a", "A")
	erased := strings.Count(buf.String(), ansi.EraseEntireLine)
	if erased != 1 {
		t.Errorf("expected 1 erased line, got %d", erased)
	}

	buf.Reset()
	tr.Add("b", "B")
	erased = strings.Count(buf.String(), ansi.EraseEntireLine)
	if erased != 2 {
		t.Errorf("expected 2 erased lines, got %d", erased)
	}

	// Unchanged text does not redraw.
	buf.Reset()
	live.Refresh()
	if buf.Len() != 0 {
		t.Errorf("expected no output for unchanged frame, got %q", buf.String())
	}

	live.Detach()
	buf.Reset()
	tr.Complete("a", "")
	if buf.Len() != 0 {
		t.Error("detached view must not redraw")
	}
}

func TestLive_FrameMatchesMode(t *testing.T) {
	for _, styled := range []bool{false, true} {
		var buf bytes.Buffer
		tr := NewTracker("Acquire templates")
		tr.Add("claude", "claude")
		tr.Complete("claude", "v0.0.9")

		NewLive(&buf, tr, styled).Refresh()

		want := tr.Render()
		if styled {
			want = tr.RenderStyled()
		}
		if got := buf.String(); got != want+"\n" {
			t.Errorf("styled=%v: frame = %q, want %q", styled, got, want+"\n")
		}
	}
}
