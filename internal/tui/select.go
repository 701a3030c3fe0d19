package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/barysiuk/specrow/internal/core/assistant"
)

// ErrCancelled is returned when the user leaves a prompt without choosing.
var ErrCancelled = errors.New("selection cancelled")

// ---------------------------------------------------------------------------
// Assistant checklist
// ---------------------------------------------------------------------------

// assistantCheckbox is one row of the assistant checklist.
type assistantCheckbox struct {
	assistant assistant.Assistant
	installed bool
	checked   bool
}

// assistantSelectModel lets the user check one or more assistants.
type assistantSelectModel struct {
	boxes  []assistantCheckbox
	cursor int
	help   help.Model

	// Set when the user presses enter with nothing checked.
	warning string

	done      bool
	cancelled bool
}

// newAssistantSelectModel lists every assistant, checking the ids in
// preselected and starting the cursor on the first checked row.
func newAssistantSelectModel(all []assistant.Assistant, preselected []string) assistantSelectModel {
	checked := make(map[string]bool, len(preselected))
	for _, id := range preselected {
		checked[id] = true
	}

	m := assistantSelectModel{help: help.New(), cursor: -1}
	for i, a := range all {
		m.boxes = append(m.boxes, assistantCheckbox{
			assistant: a,
			installed: a.RequiresCLI() && a.IsInstalled(),
			checked:   checked[a.ID],
		})
		if checked[a.ID] && m.cursor < 0 {
			m.cursor = i
		}
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m assistantSelectModel) Init() tea.Cmd { return nil }

func (m assistantSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(m.boxes)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.Toggle):
		if len(m.boxes) > 0 {
			m.boxes[m.cursor].checked = !m.boxes[m.cursor].checked
			m.warning = ""
		}
	case key.Matches(keyMsg, keys.ToggleAll):
		m.toggleAll()
		m.warning = ""
	case key.Matches(keyMsg, keys.Enter):
		if len(m.selected()) == 0 {
			m.warning = "Select at least one assistant."
			return m, nil
		}
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, keys.Back), key.Matches(keyMsg, keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

// toggleAll checks every row when none is checked, otherwise clears all.
func (m *assistantSelectModel) toggleAll() {
	anyChecked := false
	for _, b := range m.boxes {
		if b.checked {
			anyChecked = true
			break
		}
	}
	for i := range m.boxes {
		m.boxes[i].checked = !anyChecked
	}
}

func (m assistantSelectModel) selected() []string {
	var ids []string
	for _, b := range m.boxes {
		if b.checked {
			ids = append(ids, b.assistant.ID)
		}
	}
	return ids
}

func (m assistantSelectModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(renderSectionHeader("AI ASSISTANTS"))
	b.WriteString("\n\n")

	for i, box := range m.boxes {
		check := "[ ]"
		if box.checked {
			check = "[x]"
		}
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s %s", prefix, check, box.assistant.DisplayName)
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render(line))
		} else {
			b.WriteString(normalItemStyle.Render(line))
		}
		b.WriteString(" " + mutedStyle.Render("("+box.assistant.ID+")"))
		if box.installed {
			b.WriteString(" " + badgeStyle.Render("installed"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.warning != "" {
		b.WriteString("  " + warningStyle.Render(m.warning) + "\n")
	}
	b.WriteString("  " + m.help.View(assistantSelectHelpKeyMap{}))
	b.WriteString("\n")
	return b.String()
}

// PickAssistants shows the assistant checklist and returns the checked
// ids in catalog order. ErrCancelled is returned on esc or ctrl+c.
func PickAssistants(in io.Reader, out io.Writer, preselected []string) ([]string, error) {
	model := newAssistantSelectModel(assistant.All(), preselected)
	final, err := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("assistant prompt: %w", err)
	}
	m := final.(assistantSelectModel)
	if m.cancelled || !m.done {
		return nil, ErrCancelled
	}
	return m.selected(), nil
}

// ---------------------------------------------------------------------------
// Script flavor list
// ---------------------------------------------------------------------------

// flavorItem adapts a script flavor to the bubbles list.
type flavorItem struct {
	flavor assistant.ScriptFlavor
}

func (i flavorItem) Title() string       { return i.flavor.DisplayName }
func (i flavorItem) Description() string { return "--script " + i.flavor.ID }
func (i flavorItem) FilterValue() string { return i.flavor.ID }

// flavorSelectModel picks a single script flavor.
type flavorSelectModel struct {
	list list.Model
	help help.Model

	choice    string
	cancelled bool
}

func newFlavorSelectModel(flavors []assistant.ScriptFlavor, current string) flavorSelectModel {
	items := make([]list.Item, len(flavors))
	selected := 0
	for i, f := range flavors {
		items[i] = flavorItem{flavor: f}
		if f.ID == current {
			selected = i
		}
	}

	l := list.New(items, newFlavorDelegate(), 60, len(flavors)*2+1)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetShowPagination(false)
	l.Select(selected)

	return flavorSelectModel{list: l, help: help.New()}
}

func (m flavorSelectModel) Init() tea.Cmd { return nil }

func (m flavorSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			if item, ok := m.list.SelectedItem().(flavorItem); ok {
				m.choice = item.flavor.ID
				return m, tea.Quit
			}
			return m, nil
		case key.Matches(msg, keys.Back), key.Matches(msg, keys.Quit):
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m flavorSelectModel) View() string {
	if m.choice != "" || m.cancelled {
		return ""
	}
	header := renderSectionHeader("SCRIPT FLAVOR") + "\n\n"
	footer := "\n  " + m.help.View(flavorSelectHelpKeyMap{}) + "\n"
	return lipgloss.JoinVertical(lipgloss.Left, header+m.list.View(), footer)
}

// PickScript shows the flavor list with current highlighted and
// returns the chosen flavor id.
func PickScript(in io.Reader, out io.Writer, current string) (string, error) {
	model := newFlavorSelectModel(assistant.ScriptFlavors(), current)
	final, err := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", fmt.Errorf("script flavor prompt: %w", err)
	}
	m := final.(flavorSelectModel)
	if m.cancelled || m.choice == "" {
		return "", ErrCancelled
	}
	return m.choice, nil
}
