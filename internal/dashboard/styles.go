package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	ColorBorder        = lipgloss.Color("#2A2A4A")
	ColorFocus         = lipgloss.Color("#FFFF00")
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")
	ColorAccent        = lipgloss.Color("#FF2E97")
	ColorHealthy       = lipgloss.Color("#39FF14")
	ColorCritical      = lipgloss.Color("#FF0055")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	// FocusedNodeStyle marks the node whose plots are on screen.
	FocusedNodeStyle = lipgloss.NewStyle().
				Foreground(ColorFocus).
				Bold(true)

	NodeStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	StatusOKStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	StatusErrStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted)
)

// SectionHeader renders a section header with the title on the left and value on the right.
// Format: ╭─ Title ──────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2
	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	return borderStyle.Render("╭─ ") +
		TitleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		LabelStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders a content line with left and right borders, padded to width.
// Content wider than the box is truncated.
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	innerWidth := width - 4
	content = lipgloss.NewStyle().MaxWidth(innerWidth).Render(content)

	padding := innerWidth - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}
