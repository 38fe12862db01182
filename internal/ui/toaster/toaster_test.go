package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowAndHide(t *testing.T) {
	m := New()
	assert.False(t, m.Visible())
	assert.Empty(t, m.View())

	m = m.Show("Registry has been archived", StyleSuccess)
	assert.True(t, m.Visible())
	assert.Equal(t, "Registry has been archived", m.Message())

	m = m.Hide()
	assert.False(t, m.Visible())
	assert.Empty(t, m.Message())
	assert.Empty(t, m.View())
}

func TestViewStyles(t *testing.T) {
	tests := []struct {
		name  string
		style Style
		emoji string
	}{
		{"success", StyleSuccess, "✅"},
		{"error", StyleError, "❌"},
		{"info", StyleInfo, "ℹ️"},
		{"warn", StyleWarn, "⚠️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New().Show("message", tt.style)
			view := m.View()
			assert.Contains(t, view, tt.emoji)
			assert.Contains(t, view, "message")
		})
	}
}

func TestOverlayOnlyWhenVisible(t *testing.T) {
	bg := strings.Repeat(strings.Repeat("x", 40)+"\n", 9) + strings.Repeat("x", 40)

	m := New()
	assert.Equal(t, bg, m.Overlay(bg, 40, 10), "hidden toast leaves background untouched")

	m = m.Show("saved", StyleSuccess)
	out := m.Overlay(bg, 40, 10)
	assert.NotEqual(t, bg, out)
	assert.Contains(t, out, "saved")
}

func TestScheduleDismiss(t *testing.T) {
	cmd := ScheduleDismiss(time.Millisecond)
	require.NotNil(t, cmd)

	msg := cmd()
	assert.IsType(t, DismissMsg{}, msg)
}
