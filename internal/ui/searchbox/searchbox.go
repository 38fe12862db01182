// Package searchbox provides a debounced search input. Keystrokes update
// the display immediately, but the query is only applied after a quiet
// period, so filtering large lists is not re-run on every keypress.
package searchbox

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"dedi/internal/ui/styles"
)

// DefaultDebounce is the quiet period before the query is applied.
const DefaultDebounce = 300 * time.Millisecond

// QueryMsg is sent when the debounced query should be applied.
type QueryMsg struct {
	Query string
}

// debounceMsg triggers query application after the debounce delay.
type debounceMsg struct {
	version int // Only applied if this matches the current version
}

// Model is the search input state.
type Model struct {
	input    textinput.Model
	version  int // Incremented on each input change for debounce
	debounce time.Duration
	focused  bool
}

// New creates a search box with the default debounce interval.
func New(placeholder string) Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/ "
	ti.PromptStyle = styles.SelectionIndicatorStyle
	return Model{
		input:    ti,
		debounce: DefaultDebounce,
	}
}

// WithDebounce overrides the debounce interval. Tests use short intervals.
func (m Model) WithDebounce(d time.Duration) Model {
	m.debounce = d
	return m
}

// Focus puts the box in typing mode.
func (m Model) Focus() (Model, tea.Cmd) {
	m.focused = true
	return m, m.input.Focus()
}

// Blur leaves typing mode, keeping the current query applied.
func (m Model) Blur() Model {
	m.focused = false
	m.input.Blur()
	return m
}

// Focused reports whether the box is capturing keystrokes.
func (m Model) Focused() bool {
	return m.focused
}

// Value returns the text as currently displayed, which may be ahead of
// the applied query while the debounce timer runs.
func (m Model) Value() string {
	return m.input.Value()
}

// Clear empties the input and applies the empty query immediately.
// Clearing never waits for the debounce timer.
func (m Model) Clear() (Model, tea.Cmd) {
	m.input.SetValue("")
	m.version++
	return m, func() tea.Msg { return QueryMsg{Query: ""} }
}

// Update handles key and debounce messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case debounceMsg:
		// Only apply if version matches (not stale)
		if msg.version == m.version {
			query := m.input.Value()
			return m, func() tea.Msg { return QueryMsg{Query: query} }
		}
		return m, nil

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}

		oldValue := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)

		// If value changed, restart the debounce timer
		if m.input.Value() != oldValue {
			m.version++
			return m, tea.Batch(cmd, debounceTick(m.version, m.debounce))
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the input line.
func (m Model) View() string {
	return m.input.View()
}

// debounceTick creates a command that waits then triggers query application.
func debounceTick(version int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return debounceMsg{version: version}
	})
}
