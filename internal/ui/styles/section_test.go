package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFormSection_TitleAndHint(t *testing.T) {
	out := RenderFormSection([]string{"row"}, "Name", "required", 30, false, BorderHighlightFocusColor)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[0], "(required)")
	assert.Contains(t, lines[1], "row")
	assert.Contains(t, lines[2], "╰")
}

func TestRenderFormSection_NoTitle(t *testing.T) {
	out := RenderFormSection([]string{"row"}, "", "", 20, false, BorderHighlightFocusColor)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "╭")
	assert.NotContains(t, lines[0], " (")
}

func TestRenderFormSection_UniformWidth(t *testing.T) {
	out := RenderFormSection([]string{"a", "longer row"}, "T", "", 24, true, BorderHighlightFocusColor)

	for _, line := range strings.Split(out, "\n") {
		assert.Equal(t, 24, lipgloss.Width(line), "every line should match the requested width")
	}
}
