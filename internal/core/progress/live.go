package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// Live redraws a tracker in place on a terminal. Every Refresh renders the
// tracker, compares the text with the previous frame and, when it changed,
// erases exactly the lines printed last time before printing the new frame.
type Live struct {
	mu      sync.Mutex
	w       io.Writer
	tracker *Tracker
	styled  bool
	last    string
	lines   int
}

// NewLive creates a live view for t writing to w. The view is not attached;
// call Attach to redraw on every tracker change.
func NewLive(w io.Writer, t *Tracker, styled bool) *Live {
	return &Live{w: w, tracker: t, styled: styled}
}

// Attach hooks the view into the tracker and draws the first frame.
func (l *Live) Attach() {
	l.tracker.OnChange(l.Refresh)
	l.Refresh()
}

// Detach stops redrawing on tracker changes. The last frame stays on screen.
func (l *Live) Detach() {
	l.tracker.OnChange(nil)
}

// Refresh redraws the tracker if its rendered text changed.
func (l *Live) Refresh() {
	text := l.tracker.render(l.styled)

	l.mu.Lock()
	defer l.mu.Unlock()

	if text == l.last {
		return
	}
	var b strings.Builder
	b.WriteString(eraseLines(l.lines))
	b.WriteString(text)
	b.WriteString("\n")
	_, _ = fmt.Fprint(l.w, b.String())

	l.last = text
	l.lines = strings.Count(text, "\n") + 1
}

// eraseLines moves the cursor up over n previously printed lines, clearing
// each one. The cursor ends at the start of the first erased line.
func eraseLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(ansi.CursorUp(1))
		b.WriteString(ansi.EraseEntireLine)
	}
	if n > 0 {
		b.WriteString("\r")
	}
	return b.String()
}
