// Package progress tracks named acquisition steps and renders them as a
// small tree for live terminal feedback.
//
// A Tracker only keeps the current status of each step. Callers that want a
// live view attach a Live renderer through OnChange.
package progress

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Status is the state of a single step.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Statuses returns every valid status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusRunning, StatusDone, StatusError, StatusSkipped}
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid step status %q", s)
}

// glyph returns the plain marker for a status.
func (s Status) glyph() string {
	switch s {
	case StatusDone:
		return "●"
	case StatusError:
		return "✗"
	case StatusRunning:
		return "◐"
	case StatusSkipped:
		return "-"
	default:
		return "○"
	}
}

var glyphStyles = map[Status]lipgloss.Style{
	StatusPending: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE")),
	StatusDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
	StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	StatusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Step is one named unit of work.
type Step struct {
	Key    string
	Label  string
	Status Status
	Detail string
}

// Tracker is an ordered set of steps keyed by a unique string.
type Tracker struct {
	mu       sync.Mutex
	title    string
	steps    []*Step
	index    map[string]*Step
	onChange func()
}

// NewTracker creates an empty tracker with the given title line.
func NewTracker(title string) *Tracker {
	return &Tracker{
		title: title,
		index: make(map[string]*Step),
	}
}

// OnChange registers fn to be called after every mutation. Passing nil
// detaches the current hook.
func (t *Tracker) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Add appends a pending step. Adding a key that already exists is a no-op.
func (t *Tracker) Add(key, label string) {
	t.mu.Lock()
	if _, ok := t.index[key]; ok {
		t.mu.Unlock()
		return
	}
	t.insert(&Step{Key: key, Label: oneLine(label), Status: StatusPending})
	t.mu.Unlock()
	t.changed()
}

// SetStatus updates a step. An unknown key is inserted with the given status
// and the key as its label.
func (t *Tracker) SetStatus(key string, status Status, detail string) {
	detail = oneLine(detail)
	t.mu.Lock()
	if s, ok := t.index[key]; ok {
		s.Status = status
		s.Detail = detail
	} else {
		t.insert(&Step{Key: key, Label: key, Status: status, Detail: detail})
	}
	t.mu.Unlock()
	t.changed()
}

func (t *Tracker) Start(key, detail string)    { t.SetStatus(key, StatusRunning, detail) }
func (t *Tracker) Complete(key, detail string) { t.SetStatus(key, StatusDone, detail) }
func (t *Tracker) Fail(key, detail string)     { t.SetStatus(key, StatusError, detail) }
func (t *Tracker) Skip(key, detail string)     { t.SetStatus(key, StatusSkipped, detail) }

// Lookup returns a copy of the step with the given key.
func (t *Tracker) Lookup(key string) (Step, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.index[key]
	if !ok {
		return Step{}, false
	}
	return *s, true
}

// Steps returns a snapshot of all steps in insertion order.
func (t *Tracker) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Step, len(t.steps))
	for i, s := range t.steps {
		out[i] = *s
	}
	return out
}

// Failed reports whether any step ended in StatusError.
func (t *Tracker) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.steps {
		if s.Status == StatusError {
			return true
		}
	}
	return false
}

// Render returns the title followed by one line per step, without styling.
func (t *Tracker) Render() string {
	return t.render(false)
}

// RenderStyled is Render with colored glyphs and details.
func (t *Tracker) RenderStyled() string {
	return t.render(true)
}

func (t *Tracker) render(styled bool) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if styled {
		b.WriteString(titleStyle.Render(t.title))
	} else {
		b.WriteString(t.title)
	}
	for _, s := range t.steps {
		b.WriteString("\n")
		glyph := s.Status.glyph()
		if styled {
			glyph = glyphStyles[s.Status].Render(glyph)
		}
		b.WriteString("  " + glyph + " " + s.Label)
		if s.Detail != "" {
			detail := "(" + s.Detail + ")"
			if styled {
				detail = detailStyle.Render(detail)
			}
			b.WriteString(" " + detail)
		}
	}
	return b.String()
}

func (t *Tracker) insert(s *Step) {
	t.steps = append(t.steps, s)
	t.index[s.Key] = s
}

func (t *Tracker) changed() {
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// oneLine keeps every step on a single rendered line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
