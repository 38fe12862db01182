// Package statusbar renders the bottom status line: signed-in identity on
// the left, contextual counts and key hints on the right.
package statusbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dedi/internal/ui/styles"
)

// Model holds the status bar content.
type Model struct {
	identity string
	context  string
	hint     string
	width    int
}

// New creates an empty status bar.
func New() Model {
	return Model{}
}

// SetIdentity sets the signed-in user text (empty when signed out).
func (m Model) SetIdentity(identity string) Model {
	m.identity = identity
	return m
}

// SetContext sets the middle section (counts, current view).
func (m Model) SetContext(context string) Model {
	m.context = context
	return m
}

// SetHint sets the right-aligned key hint text.
func (m Model) SetHint(hint string) Model {
	m.hint = hint
	return m
}

// SetWidth sets the render width.
func (m Model) SetWidth(width int) Model {
	m.width = width
	return m
}

// View renders the bar as a single line.
func (m Model) View() string {
	identity := m.identity
	if identity == "" {
		identity = "not signed in"
	}

	left := styles.StatusBarStyle.Render(identity)
	if m.context != "" {
		left += styles.StatusBarStyle.Foreground(styles.TextMutedColor).Render("• " + m.context)
	}

	right := ""
	if m.hint != "" {
		right = lipgloss.NewStyle().Foreground(styles.TextMutedColor).Padding(0, 1).Render(m.hint)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return styles.TruncateString(left+right, max(m.width, 0))
	}
	return left + strings.Repeat(" ", gap) + right
}
