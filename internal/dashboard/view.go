package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/statemon/internal/util"
)

// Sidebar text.
const (
	SidebarTitle = "State Monitor"
	SidebarNodes = "Monitored Nodes:"
)

// View renders the last drawn frame and the footer.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	frame := m.surface.Frame()
	if frame == "" {
		frame = m.placeholder()
	}
	return lipgloss.JoinVertical(lipgloss.Left, frame, m.footer())
}

// sidebar lists every node, focused entry highlighted, inside a box of the
// given width.
func (m Model) sidebar(width int) string {
	names := m.registry.Names()

	lines := []string{
		SectionHeader(SidebarTitle, fmt.Sprintf("%d", len(names)), width),
		SectionContentLine(LabelStyle.Render(SidebarNodes), width),
	}
	for _, name := range names {
		style := NodeStyle
		marker := "  "
		if name == m.focus {
			style = FocusedNodeStyle
			marker = "▸ "
		}
		lines = append(lines, SectionContentLine(style.Render(marker+name), width))
	}
	if m.decodeErrors > 0 {
		lines = append(lines, SectionContentLine(
			StatusErrStyle.Render(fmt.Sprintf("%d bad %s", m.decodeErrors, util.Pluralize(m.decodeErrors, "message", "messages"))), width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func (m Model) placeholder() string {
	msg := lipgloss.JoinVertical(lipgloss.Center,
		TitleStyle.Render(SidebarTitle),
		"",
		PlaceholderStyle.Render("Waiting for estimators on "+m.cfg.Bus.Broker),
	)
	if m.width <= 0 || m.height <= 0 {
		return msg
	}
	h := max(m.height-lipgloss.Height(m.footer()), 1)
	return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, msg)
}

func (m Model) footer() string {
	line := m.help.View(m.keys)
	if m.status != "" {
		line = m.status + "  " + line
	}
	return FooterStyle.Render(line)
}
