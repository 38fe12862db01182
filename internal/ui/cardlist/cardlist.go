// Package cardlist renders a selectable vertical list of entity cards,
// used for both namespaces and registries. Cards are clickable via
// bubblezone in addition to keyboard navigation.
package cardlist

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"dedi/internal/ui/styles"
)

// Card is one selectable row.
type Card struct {
	ID          string // Stable identifier, also used for the click zone
	Title       string
	Badge       string         // Short status label rendered right of the title
	BadgeStyle  lipgloss.Style // Styling for the badge text
	Meta        string         // Secondary line (counts, timestamps)
	Description string         // Wrapped body text, may be empty
}

// Model holds the list state.
type Model struct {
	zonePrefix string
	cards      []Card
	selected   int
	width      int
	height     int
	emptyText  string
}

// New creates a card list. The zonePrefix namespaces click zones so
// multiple lists can coexist on one screen.
func New(zonePrefix, emptyText string) Model {
	return Model{
		zonePrefix: zonePrefix,
		emptyText:  emptyText,
	}
}

// SetCards replaces the card set, clamping the selection.
func (m Model) SetCards(cards []Card) Model {
	m.cards = cards
	if m.selected >= len(cards) {
		m.selected = max(len(cards)-1, 0)
	}
	return m
}

// SetSize sets the available dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// Cards returns the current card set.
func (m Model) Cards() []Card {
	return m.cards
}

// Selected returns the selected card and true, or false when empty.
func (m Model) Selected() (Card, bool) {
	if len(m.cards) == 0 {
		return Card{}, false
	}
	return m.cards[m.selected], true
}

// SelectedIndex returns the selected index.
func (m Model) SelectedIndex() int {
	return m.selected
}

// Select moves the selection to the card with the given ID, if present.
func (m Model) Select(id string) Model {
	for i, card := range m.cards {
		if card.ID == id {
			m.selected = i
			break
		}
	}
	return m
}

// CursorUp moves the selection up without wrapping.
func (m Model) CursorUp() Model {
	if m.selected > 0 {
		m.selected--
	}
	return m
}

// CursorDown moves the selection down without wrapping.
func (m Model) CursorDown() Model {
	if m.selected < len(m.cards)-1 {
		m.selected++
	}
	return m
}

// HandleMouse resolves a click to a card index. Returns -1 when the
// click landed outside every card zone.
func (m Model) HandleMouse(msg tea.MouseMsg) int {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return -1
	}
	for i, card := range m.cards {
		if zone.Get(m.zonePrefix + card.ID).InBounds(msg) {
			return i
		}
	}
	return -1
}

// View renders the list.
func (m Model) View() string {
	if len(m.cards) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMutedColor).
			Padding(1, 2).
			Render(m.emptyText)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	metaStyle := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextDescriptionColor)

	cardWidth := max(m.width-4, 20)
	out := ""
	for i, card := range m.cards {
		indicator := "  "
		borderColor := styles.BorderDefaultColor
		if i == m.selected {
			indicator = styles.SelectionIndicatorStyle.Render("> ")
			borderColor = styles.BorderHighlightFocusColor
		}

		title := styles.TruncateString(card.Title, cardWidth-runewidth.StringWidth(card.Badge)-3)
		header := titleStyle.Render(title)
		if card.Badge != "" {
			header += " " + card.BadgeStyle.Render(card.Badge)
		}

		body := header
		if card.Meta != "" {
			body += "\n" + metaStyle.Render(styles.TruncateString(card.Meta, cardWidth))
		}
		if card.Description != "" {
			body += "\n" + descStyle.Render(wordwrap.String(card.Description, cardWidth))
		}

		rendered := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1).
			Width(cardWidth).
			Render(body)

		if i > 0 {
			out += "\n"
		}
		out += lipgloss.JoinHorizontal(lipgloss.Top, indicator, zone.Mark(m.zonePrefix+card.ID, rendered))
	}
	return out
}
