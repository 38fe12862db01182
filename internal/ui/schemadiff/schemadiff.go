// Package schemadiff renders line diffs between two registry schema
// versions. Schemas are canonicalized before diffing so key order on the
// wire never shows up as a change.
package schemadiff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"

	"dedi/internal/ui/styles"
)

// LineType indicates whether a line is unchanged, added, or removed.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is one row of the rendered diff.
type Line struct {
	Type LineType
	Text string
}

// Compare canonicalizes both schemas and returns their line diff.
// A nil result means the schemas are equivalent.
func Compare(oldSchema, newSchema json.RawMessage) ([]Line, error) {
	oldText, err := canonicalize(oldSchema)
	if err != nil {
		return nil, fmt.Errorf("old schema: %w", err)
	}
	newText, err := canonicalize(newSchema)
	if err != nil {
		return nil, fmt.Errorf("new schema: %w", err)
	}
	if oldText == newText {
		return nil, nil
	}

	// Line-mode diff: map lines to runes, diff, then map back
	dmp := diffmatchpatch.New()
	oldRunes, newRunes, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []Line
	for _, d := range diffs {
		var lineType LineType
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			lineType = LineRemoved
		case diffmatchpatch.DiffInsert:
			lineType = LineAdded
		default:
			lineType = LineContext
		}
		for _, text := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			lines = append(lines, Line{Type: lineType, Text: text})
		}
	}
	return lines, nil
}

// canonicalize re-marshals the schema with sorted keys and indentation.
func canonicalize(schema json.RawMessage) (string, error) {
	if len(schema) == 0 {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(schema, &v); err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Render styles the diff for terminal display.
func Render(lines []Line) string {
	if len(lines) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("Schemas are identical")
	}

	addedStyle := lipgloss.NewStyle().Foreground(styles.StatusSuccessColor)
	removedStyle := lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	contextStyle := lipgloss.NewStyle().Foreground(styles.TextDescriptionColor)

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		switch line.Type {
		case LineAdded:
			b.WriteString(addedStyle.Render("+ " + line.Text))
		case LineRemoved:
			b.WriteString(removedStyle.Render("- " + line.Text))
		default:
			b.WriteString(contextStyle.Render("  " + line.Text))
		}
	}
	return b.String()
}
