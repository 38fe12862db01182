// Package registrydetail implements the detail mode for one registry row:
// an overview page, the schema (with an optional diff against the previous
// version), a records preview, and the local activity timeline.
package registrydetail

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dedi/internal/api"
	"dedi/internal/flags"
	"dedi/internal/journal"
	"dedi/internal/log"
	"dedi/internal/mode"
	"dedi/internal/ui/markdown"
	"dedi/internal/ui/schemadiff"
	"dedi/internal/ui/styles"
	"dedi/internal/ui/toaster"
)

// Page identifies one tab of the detail view.
type Page int

const (
	PageOverview Page = iota
	PageSchema
	PageRecords
	PageActivity
)

// Model is the registry detail mode state.
type Model struct {
	services  mode.Services
	namespace api.Namespace
	registry  api.Registry

	page     Page
	schema   viewport.Model
	records  table.Model
	md       *markdown.Renderer
	spin     spinner.Model
	overview string

	// Diff state, only reachable behind the schema-diff flag.
	diffShown   bool
	diffLines   []schemadiff.Line
	diffErr     error
	diffLoading bool
	fetchSeq    int

	activity    []journal.Entry
	activityErr error

	width  int
	height int
}

type snapshotsMsg struct {
	seq       int
	snapshots []api.Registry
	err       error
}

type activityMsg struct {
	entries []journal.Entry
	err     error
}

// New creates the detail controller for one registry.
func New(services mode.Services, namespace api.Namespace, registry api.Registry) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	m := Model{
		services:  services,
		namespace: namespace,
		registry:  registry,
		spin:      sp,
		schema:    viewport.New(80, 20),
	}

	style := ""
	if services.Config != nil {
		style = services.Config.UI.MarkdownStyle
	}
	if r, err := markdown.New(76, style); err == nil {
		m.md = r
	}

	m.schema.SetContent(m.schemaText())
	m.records = buildRecordsTable(registry.Schema)
	m.overview = m.renderOverview()
	return m
}

// Init loads the activity timeline.
func (m Model) Init() tea.Cmd {
	return m.loadActivity()
}

// SetSize handles terminal resize events.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.schema.Width = width - 4
	m.schema.Height = height - 8
	m.records.SetWidth(width - 4)
	m.records.SetHeight(height - 10)
	return m
}

func (m Model) loadActivity() tea.Cmd {
	store := m.services.Journal
	namespaceID := m.namespace.NamespaceID
	registryName := m.registry.RegistryName
	return func() tea.Msg {
		if store == nil {
			return activityMsg{}
		}
		entries, err := store.Recent(journal.Query{
			NamespaceID:  namespaceID,
			RegistryName: registryName,
			Limit:        50,
		})
		return activityMsg{entries: entries, err: err}
	}
}

// loadSnapshots fetches every version of this registry so the schema diff
// can compare the latest two.
func (m Model) loadSnapshots(seq int) tea.Cmd {
	services := m.services
	namespaceID := m.namespace.NamespaceID
	registryID := m.registry.RegistryID
	timeout := m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		query, err := services.Client.QueryNamespace(ctx, namespaceID, api.StatusAll)
		if err != nil {
			return snapshotsMsg{seq: seq, err: err}
		}
		var snapshots []api.Registry
		for _, reg := range query.Registries {
			if reg.RegistryID == registryID {
				snapshots = append(snapshots, reg)
			}
		}
		return snapshotsMsg{seq: seq, snapshots: snapshots}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case activityMsg:
		m.activity = msg.entries
		m.activityErr = msg.err
		return m, nil

	case snapshotsMsg:
		return m.handleSnapshots(msg)

	case spinner.TickMsg:
		if !m.diffLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.routePage(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	k := m.services.Keys

	switch {
	case msg.String() == "q":
		return m, tea.Quit

	case key.Matches(msg, k.Back), key.Matches(msg, k.Escape):
		if m.page == PageSchema && m.diffShown {
			m.diffShown = false
			return m, nil
		}
		return m, func() tea.Msg { return mode.BackMsg{} }

	case key.Matches(msg, k.NextTab):
		m.page = m.nextPage(1)
		return m, nil

	case key.Matches(msg, k.PrevTab):
		m.page = m.nextPage(-1)
		return m, nil

	case key.Matches(msg, k.Yank):
		return m, m.copyToClipboard(m.registry.RegistryID, "Copied: "+m.registry.RegistryID)
	}

	if m.page == PageSchema && msg.String() == "d" && m.services.Flags.Enabled(flags.FlagSchemaDiff) {
		if m.diffShown {
			m.diffShown = false
			return m, nil
		}
		m.diffShown = true
		if m.diffLines == nil && m.diffErr == nil {
			m.diffLoading = true
			m.fetchSeq++
			return m, tea.Batch(m.loadSnapshots(m.fetchSeq), m.spin.Tick)
		}
		return m, nil
	}

	return m.routePage(msg)
}

func (m Model) routePage(msg tea.Msg) (mode.Controller, tea.Cmd) {
	var cmd tea.Cmd
	switch m.page {
	case PageSchema:
		m.schema, cmd = m.schema.Update(msg)
	case PageRecords:
		if m.services.Flags.Enabled(flags.FlagRecordsPreview) {
			m.records, cmd = m.records.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) handleSnapshots(msg snapshotsMsg) (mode.Controller, tea.Cmd) {
	if msg.seq != m.fetchSeq {
		return m, nil
	}
	m.diffLoading = false
	if msg.err != nil {
		m.diffErr = msg.err
		return m, toast(api.UserMessage(msg.err), toaster.StyleError)
	}

	snapshots := msg.snapshots
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].UpdatedAt.After(snapshots[j].UpdatedAt)
	})
	if len(snapshots) < 2 {
		m.diffErr = fmt.Errorf("no previous version to compare")
		return m, nil
	}

	lines, err := schemadiff.Compare(snapshots[1].Schema, snapshots[0].Schema)
	if err != nil {
		m.diffErr = err
		log.ErrorErr(log.CatUI, "Schema diff failed", err, "registry", m.registry.RegistryName)
		return m, nil
	}
	m.diffLines = lines
	return m, nil
}

func (m Model) nextPage(direction int) Page {
	pages := m.pages()
	current := 0
	for i, p := range pages {
		if p == m.page {
			current = i
			break
		}
	}
	next := (current + direction + len(pages)) % len(pages)
	return pages[next]
}

func (m Model) pages() []Page {
	pages := []Page{PageOverview, PageSchema}
	if m.services.Flags.Enabled(flags.FlagRecordsPreview) {
		pages = append(pages, PageRecords)
	}
	return append(pages, PageActivity)
}

func (m Model) schemaText() string {
	if len(m.registry.Schema) == 0 {
		return "No schema attached."
	}
	var out map[string]any
	if err := json.Unmarshal(m.registry.Schema, &out); err != nil {
		return string(m.registry.Schema)
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return string(m.registry.Schema)
	}
	return string(pretty)
}

// schemaProperties extracts the top-level property names of a JSON schema,
// sorted for stable column order.
func schemaProperties(schema json.RawMessage) []string {
	var parsed struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(schema, &parsed); err != nil || len(parsed.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(parsed.Properties))
	for name := range parsed.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildRecordsTable produces the sample-data table shown behind the
// records-preview flag. The records endpoint is not generally available,
// so the rows are placeholders shaped by the schema.
func buildRecordsTable(schema json.RawMessage) table.Model {
	props := schemaProperties(schema)
	if len(props) == 0 {
		props = []string{"record"}
	}

	columns := make([]table.Column, 0, len(props))
	for _, name := range props {
		columns = append(columns, table.Column{Title: name, Width: 18})
	}

	rows := make([]table.Row, 0, 3)
	for i := 1; i <= 3; i++ {
		row := make(table.Row, len(props))
		for j := range props {
			row[j] = fmt.Sprintf("sample-%d", i)
		}
		rows = append(rows, row)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(7),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).Foreground(styles.TextPrimaryColor)
	s.Selected = s.Selected.Foreground(styles.BorderHighlightFocusColor)
	t.SetStyles(s)
	return t
}

func (m Model) renderOverview() string {
	labelStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	reg := m.registry

	status := "active"
	switch {
	case reg.Revoked:
		status = "revoked"
	case reg.Archived:
		status = "archived"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Status:"), status)
	fmt.Fprintf(&b, "%s v%s", labelStyle.Render("Version:"), reg.Version)
	if reg.VersionCount > 1 {
		fmt.Fprintf(&b, " (%d versions)", reg.VersionCount)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("Records:"), reg.RecordCount)
	if reg.Digest != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Digest:"), reg.Digest)
	}
	if reg.CreatedBy != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Created by:"), reg.CreatedBy)
	}

	if reg.Description != "" {
		b.WriteString("\n")
		if m.md != nil {
			if rendered, err := m.md.Render(reg.Description); err == nil {
				b.WriteString(rendered)
			} else {
				b.WriteString(reg.Description)
			}
		} else {
			b.WriteString(reg.Description)
		}
	}
	return b.String()
}

func (m Model) renderActivity() string {
	if m.activityErr != nil {
		return styles.ErrorStyle.Render("Could not read the activity journal: " + m.activityErr.Error())
	}
	if len(m.activity) == 0 {
		return "No local activity recorded for this registry."
	}

	now := m.now()
	okStyle := lipgloss.NewStyle().Foreground(styles.StatusSuccessColor)
	failStyle := lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	timeStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)

	var b strings.Builder
	for _, entry := range m.activity {
		mark := okStyle.Render("✓")
		if entry.Outcome == journal.OutcomeFailure {
			mark = failStyle.Render("✗")
		}
		fmt.Fprintf(&b, "%s %s %s\n", mark, entry.Action,
			timeStyle.Render(styles.FormatRelativeTime(entry.Timestamp, now)))
	}
	return b.String()
}

func (m Model) renderSchema() string {
	if !m.diffShown {
		return m.schema.View()
	}

	switch {
	case m.diffLoading:
		return m.spin.View() + " Loading versions…"
	case m.diffErr != nil:
		return styles.ErrorStyle.Render("Diff unavailable: " + m.diffErr.Error())
	case len(m.diffLines) == 0:
		return "Latest two versions have equivalent schemas."
	}
	return schemadiff.Render(m.diffLines)
}

func (m Model) copyToClipboard(text, okMessage string) tea.Cmd {
	clipboard := m.services.Clipboard
	return func() tea.Msg {
		if clipboard == nil {
			return mode.ShowToastMsg{Message: "Clipboard unavailable", Style: toaster.StyleWarn}
		}
		if err := clipboard.Copy(text); err != nil {
			return mode.ShowToastMsg{Message: "Clipboard error: " + err.Error(), Style: toaster.StyleError}
		}
		return mode.ShowToastMsg{Message: okMessage, Style: toaster.StyleSuccess}
	}
}

func (m Model) requestTimeout() time.Duration {
	if m.services.Config != nil && m.services.Config.RequestTimeout > 0 {
		return m.services.Config.RequestTimeout
	}
	return 15 * time.Second
}

func (m Model) now() time.Time {
	if m.services.Clock != nil {
		return m.services.Clock.Now()
	}
	return time.Now()
}

func toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return mode.ShowToastMsg{Message: message, Style: style}
	}
}

func (m Model) pageTitle(p Page) string {
	switch p {
	case PageOverview:
		return "Overview"
	case PageSchema:
		return "Schema"
	case PageRecords:
		return "Records"
	case PageActivity:
		return "Activity"
	}
	return ""
}

func (m Model) tabs() string {
	muted := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	selected := lipgloss.NewStyle().Bold(true).Foreground(styles.BorderHighlightFocusColor)

	parts := make([]string, 0, 4)
	for _, p := range m.pages() {
		style := muted
		if p == m.page {
			style = selected
		}
		parts = append(parts, style.Render(m.pageTitle(p)))
	}
	return strings.Join(parts, "  ")
}

// View renders the current page.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)

	header := titleStyle.Render(m.registry.RegistryName) + "  " + m.tabs()

	var body string
	switch m.page {
	case PageOverview:
		body = m.overview
	case PageSchema:
		body = m.renderSchema()
	case PageRecords:
		body = hintStyle.Render("Sample data; the records endpoint is not yet available.") +
			"\n" + m.records.View()
	case PageActivity:
		body = m.renderActivity()
	}

	hint := "ctrl+j/k switch page • y yank id • backspace back"
	if m.page == PageSchema && m.services.Flags.Enabled(flags.FlagSchemaDiff) {
		hint = "d diff • " + hint
	}

	return header + "\n\n" + body + "\n\n" + hintStyle.Render(hint)
}

// Registry reports the row this detail page was opened for.
func (m Model) Registry() api.Registry { return m.registry }
