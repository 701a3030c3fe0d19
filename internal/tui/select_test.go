package tui

import (
	"reflect"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/barysiuk/specrow/internal/core/assistant"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func updateAssistants(m assistantSelectModel, msg tea.Msg) (assistantSelectModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(assistantSelectModel), cmd
}

func TestAssistantSelect_PreselectMovesCursor(t *testing.T) {
	m := newAssistantSelectModel(assistant.All(), []string{"gemini"})

	if got := m.boxes[m.cursor].assistant.ID; got != "gemini" {
		t.Errorf("cursor on %q, want gemini", got)
	}
	if !reflect.DeepEqual(m.selected(), []string{"gemini"}) {
		t.Errorf("selected() = %v, want [gemini]", m.selected())
	}
}

func TestAssistantSelect_ToggleAndConfirm(t *testing.T) {
	m := newAssistantSelectModel(assistant.All(), []string{"gemini"})

	m, _ = updateAssistants(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = updateAssistants(m, runeKey('x'))
	m, _ = updateAssistants(m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = updateAssistants(m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = updateAssistants(m, tea.KeyMsg{Type: tea.KeySpace})

	m, cmd := updateAssistants(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.done {
		t.Fatal("enter should finish the prompt")
	}
	if cmd == nil {
		t.Error("enter should return tea.Quit")
	}
	// Catalog order, not toggle order.
	want := []string{"claude", "gemini", "cursor-agent"}
	if !reflect.DeepEqual(m.selected(), want) {
		t.Errorf("selected() = %v, want %v", m.selected(), want)
	}
	if m.View() != "" {
		t.Error("View() should be empty once done")
	}
}

func TestAssistantSelect_EnterRequiresSelection(t *testing.T) {
	m := newAssistantSelectModel(assistant.All(), []string{"claude"})

	m, _ = updateAssistants(m, runeKey('a'))
	if len(m.selected()) != 0 {
		t.Fatalf("toggle all with a checked row should clear, got %v", m.selected())
	}

	m, cmd := updateAssistants(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.done || cmd != nil {
		t.Error("enter with nothing checked should not finish")
	}
	if m.warning == "" {
		t.Error("expected a warning")
	}

	m, _ = updateAssistants(m, runeKey('a'))
	if len(m.selected()) != len(assistant.All()) {
		t.Errorf("toggle all with nothing checked should check every row, got %d", len(m.selected()))
	}
	if m.warning != "" {
		t.Error("warning should clear after toggling")
	}
}

func TestAssistantSelect_CursorBounds(t *testing.T) {
	m := newAssistantSelectModel(assistant.All(), nil)
	m, _ = updateAssistants(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	for range assistant.All() {
		m, _ = updateAssistants(m, runeKey('j'))
	}
	if m.cursor != len(m.boxes)-1 {
		t.Errorf("cursor = %d, want %d", m.cursor, len(m.boxes)-1)
	}
}

func TestAssistantSelect_Escape(t *testing.T) {
	m := newAssistantSelectModel(assistant.All(), []string{"claude"})
	m, cmd := updateAssistants(m, tea.KeyMsg{Type: tea.KeyEscape})
	if !m.cancelled {
		t.Error("esc should cancel")
	}
	if cmd == nil {
		t.Error("esc should return tea.Quit")
	}
}

func TestFlavorSelect(t *testing.T) {
	m := newFlavorSelectModel(assistant.ScriptFlavors(), assistant.ScriptPs)
	if m.list.Index() != 1 {
		t.Fatalf("Index() = %d, want 1", m.list.Index())
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(flavorSelectModel)
	if m.choice != assistant.ScriptPs {
		t.Errorf("choice = %q, want ps", m.choice)
	}
	if cmd == nil {
		t.Error("enter should return tea.Quit")
	}
}

func TestFlavorSelect_Escape(t *testing.T) {
	m := newFlavorSelectModel(assistant.ScriptFlavors(), assistant.ScriptSh)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = next.(flavorSelectModel)
	if !m.cancelled || m.choice != "" {
		t.Errorf("cancelled = %v, choice = %q", m.cancelled, m.choice)
	}
}
