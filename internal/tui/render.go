package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/barysiuk/specrow/internal/core"
	"github.com/barysiuk/specrow/internal/core/assistant"
)

// Banner renders the command header: "specrow  init ~/code/app".
func Banner(command, detail string) string {
	out := logoStyle.Render("specrow") + " " + sectionHeaderStyle.Render(command)
	if detail != "" {
		out += " " + mutedStyle.Render(detail)
	}
	return out
}

// RenderAcquireError renders a classified failure as a bordered panel with
// its hints. Unclassified errors render as a single red line.
func RenderAcquireError(err error) string {
	var ae *core.AcquireError
	if !errors.As(err, &ae) {
		return errorStyle.Render("✗ " + err.Error())
	}

	var b strings.Builder
	b.WriteString(errorStyle.Bold(true).Render(fmt.Sprintf("✗ %s: %s", ae.Assistant, ae.Kind)))
	b.WriteString("\n")
	if ae.Err != nil {
		b.WriteString(normalItemStyle.Render(ae.Err.Error()))
		b.WriteString("\n")
	}
	for _, h := range ae.Hints {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("→ " + h))
	}
	return errorBoxStyle.Render(b.String())
}

// RenderSummary lists every outcome with a success or failure glyph.
func RenderSummary(res *core.AcquireResult) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("TEMPLATES"))
	b.WriteString("\n")
	for _, o := range res.Outcomes {
		if o.Succeeded {
			b.WriteString("  " + successStyle.Render("✓") + " " + o.Assistant)
			if o.Version != "" {
				b.WriteString(" " + mutedStyle.Render(o.Version))
			}
		} else {
			b.WriteString("  " + errorStyle.Render("✗") + " " + o.Assistant)
		}
		b.WriteString("\n")
	}
	if res.Scripts != nil && res.Scripts.Updated > 0 {
		b.WriteString("  " + mutedStyle.Render(fmt.Sprintf("made %d script(s) executable", res.Scripts.Updated)))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderWarning renders a single amber line.
func RenderWarning(msg string) string {
	return warningStyle.Render("! " + msg)
}

// NextSteps describes what to show after a successful init.
type NextSteps struct {
	ProjectName  string // empty when initialized in place
	Assistants   []string
	ScriptFlavor string
}

// Markdown renders the next steps as a markdown document.
func (n NextSteps) Markdown() string {
	var b strings.Builder
	b.WriteString("## Next steps\n\n")

	step := 1
	if n.ProjectName != "" {
		fmt.Fprintf(&b, "%d. Enter the project: `cd %s`\n", step, n.ProjectName)
		step++
	}

	var folders []string
	for _, id := range n.Assistants {
		a, ok := assistant.ByID(id)
		if !ok {
			continue
		}
		folders = append(folders, fmt.Sprintf("%s (`%s/`)", a.DisplayName, a.Folder))
	}
	if len(folders) > 0 {
		fmt.Fprintf(&b, "%d. Open the project with %s\n", step, strings.Join(folders, ", "))
		step++
	}

	fmt.Fprintf(&b, "%d. Start a work session: `specrow session resolve \"describe the feature\"`\n", step)
	step++

	scripts := ".specify/scripts/bash"
	if n.ScriptFlavor == assistant.ScriptPs {
		scripts = ".specify/scripts/powershell"
	}
	fmt.Fprintf(&b, "%d. Helper scripts live in `%s`\n", step, scripts)
	return b.String()
}

// RenderNextSteps renders markdown for the terminal. Without a TTY the
// notty style is used so that no escape sequences are written.
func RenderNextSteps(md string, width int, tty bool) (string, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if tty {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
