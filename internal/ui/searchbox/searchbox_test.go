package searchbox

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeString(t *testing.T, m Model, s string) (Model, []tea.Cmd) {
	t.Helper()
	var cmds []tea.Cmd
	for _, r := range s {
		var cmd tea.Cmd
		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, cmds
}

// drainForQuery runs commands (and any batched sub-commands) looking for the
// debounce tick, replays its message into the model, and returns the QueryMsg
// it produces, if any.
func drainForQuery(t *testing.T, m Model, cmds []tea.Cmd) (Model, []QueryMsg) {
	t.Helper()
	var queries []QueryMsg
	for len(cmds) > 0 {
		cmd := cmds[0]
		cmds = cmds[1:]
		if cmd == nil {
			continue
		}
		msg := cmd()
		switch msg := msg.(type) {
		case tea.BatchMsg:
			cmds = append(cmds, msg...)
		case QueryMsg:
			queries = append(queries, msg)
		case debounceMsg:
			var cmd tea.Cmd
			m, cmd = m.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	return m, queries
}

func TestValueUpdatesImmediately(t *testing.T) {
	m := New("search registries")
	m, _ = m.Focus()

	m, _ = typeString(t, m, "hea")
	assert.Equal(t, "hea", m.Value(), "display text must not wait for the debounce")
}

func TestSingleQueryAfterBurst(t *testing.T) {
	m := New("search registries").WithDebounce(time.Millisecond)
	m, _ = m.Focus()

	// Five rapid keystrokes, then quiet
	m, cmds := typeString(t, m, "healt")
	require.Len(t, cmds, 5, "each keystroke schedules a tick")

	time.Sleep(5 * time.Millisecond)
	m, queries := drainForQuery(t, m, cmds)

	require.Len(t, queries, 1, "only the final version may fire")
	assert.Equal(t, "healt", queries[0].Query)
}

func TestStaleDebounceIgnored(t *testing.T) {
	m := New("").WithDebounce(time.Millisecond)
	m, _ = m.Focus()

	m, _ = typeString(t, m, "a")
	staleVersion := 1

	m, _ = typeString(t, m, "b")

	// Replay the stale tick directly
	var cmd tea.Cmd
	m, cmd = m.Update(debounceMsg{version: staleVersion})
	assert.Nil(t, cmd, "stale version must not produce a query")
}

func TestClearIsImmediate(t *testing.T) {
	m := New("").WithDebounce(time.Hour) // Debounce would never fire in test
	m, _ = m.Focus()

	m, _ = typeString(t, m, "health")
	m, cmd := m.Clear()
	require.NotNil(t, cmd)

	msg := cmd()
	query, ok := msg.(QueryMsg)
	require.True(t, ok, "clear applies synchronously, bypassing the debounce")
	assert.Empty(t, query.Query)
	assert.Empty(t, m.Value())
}

func TestClearInvalidatesPendingTicks(t *testing.T) {
	m := New("").WithDebounce(time.Millisecond)
	m, _ = m.Focus()

	m, cmds := typeString(t, m, "abc")
	m, clearCmd := m.Clear()
	_ = clearCmd

	time.Sleep(5 * time.Millisecond)
	_, queries := drainForQuery(t, m, cmds)
	assert.Empty(t, queries, "ticks scheduled before clear are stale")
}

func TestIgnoresKeysWhenBlurred(t *testing.T) {
	m := New("")
	m, _ = m.Focus()
	m = m.Blur()
	assert.False(t, m.Focused())

	m, cmds := typeString(t, m, "x")
	assert.Empty(t, m.Value())
	assert.Empty(t, cmds)
}
