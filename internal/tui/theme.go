package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#0EA5E9") // sky
	colorAccent2 = lipgloss.Color("#7DD3FC")
	colorOK      = lipgloss.Color("#22C55E")
	colorFail    = lipgloss.Color("#F43F5E")
	colorWarn    = lipgloss.Color("#EAB308")
	colorDim     = lipgloss.Color("#64748B")
	colorRule    = lipgloss.Color("#334155")
	colorText    = lipgloss.Color("#E2E8F0")
)

var (
	// "specrow init /path"
	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0F172A")).
			Background(colorAccent).
			Padding(0, 1)

	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent2)
	sectionRuleStyle   = lipgloss.NewStyle().Foreground(colorRule)

	selectedItemStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle        = lipgloss.NewStyle().Foreground(colorDim)

	// installed CLI marker in the assistant checklist
	badgeStyle = lipgloss.NewStyle().Foreground(colorAccent2).Italic(true)

	successStyle = lipgloss.NewStyle().Foreground(colorOK)
	errorStyle   = lipgloss.NewStyle().Foreground(colorFail)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarn)

	errorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(colorFail).
			PaddingLeft(1).
			MarginLeft(2)
)

// renderSectionHeader renders "  ▌ LABEL ────────".
func renderSectionHeader(label string) string {
	bar := sectionHeaderStyle.Render("▌ " + label)
	return "  " + bar + " " + sectionRuleStyle.Render(strings.Repeat("─", 8))
}

// newFlavorDelegate renders each flavor as a compact title/description
// pair, with the selected row drawn in the accent color.
func newFlavorDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.SetSpacing(0)

	d.Styles.NormalTitle = normalItemStyle.PaddingLeft(4)
	d.Styles.NormalDesc = mutedStyle.PaddingLeft(4)
	d.Styles.SelectedTitle = selectedItemStyle.
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(colorAccent).
		PaddingLeft(3)
	d.Styles.SelectedDesc = mutedStyle.
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(colorAccent).
		PaddingLeft(3)
	return d
}
