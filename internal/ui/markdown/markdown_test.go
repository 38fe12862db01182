package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r, err := New(60, "dark")
	require.NoError(t, err)
	assert.Equal(t, 60, r.Width())

	out, err := r.Render("# Patients\n\nHolds **patient** records.")
	require.NoError(t, err)
	assert.Contains(t, out, "Patients")
	assert.Contains(t, out, "patient")
}

func TestRenderWordWrap(t *testing.T) {
	r, err := New(20, "light")
	require.NoError(t, err)

	out, err := r.Render(strings.Repeat("word ", 20))
	require.NoError(t, err)
	assert.Greater(t, strings.Count(out, "\n"), 1, "long text should wrap")
}

func TestRenderAutoStyle(t *testing.T) {
	r, err := New(40, "")
	require.NoError(t, err)

	_, err = r.Render("plain text")
	require.NoError(t, err)
}
