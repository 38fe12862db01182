package keys

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	keyMsg := func(s string) tea.KeyMsg {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}

	assert.True(t, key.Matches(keyMsg("k"), km.Up))
	assert.True(t, key.Matches(keyMsg("j"), km.Down))
	assert.True(t, key.Matches(keyMsg("r"), km.Refresh))
	assert.True(t, key.Matches(keyMsg("n"), km.New))
	assert.True(t, key.Matches(keyMsg("a"), km.Archive))
	assert.True(t, key.Matches(keyMsg("x"), km.Revoke))
	assert.True(t, key.Matches(keyMsg("/"), km.Search))

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEscape}, km.Escape))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyTab}, km.ToggleRevoked))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))

	assert.False(t, key.Matches(keyMsg("q"), km.Quit), "plain q must not quit while typing in inputs")
}
