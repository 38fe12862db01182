// Package registries implements the registry list mode for one namespace:
// the active and revoked tabs, version collapsing, debounced search, and
// the confirmation-gated registry mutations.
package registries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dedi/internal/api"
	"dedi/internal/cachemanager"
	"dedi/internal/journal"
	"dedi/internal/listing"
	"dedi/internal/log"
	"dedi/internal/mode"
	"dedi/internal/ui/cardlist"
	"dedi/internal/ui/modal"
	"dedi/internal/ui/searchbox"
	"dedi/internal/ui/styles"
	"dedi/internal/ui/toaster"
)

// ViewMode determines which layer is active within the registries mode.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewConfirmModal
)

// pendingMutation is the action awaiting confirmation.
type pendingMutation struct {
	registryName string
	action       api.RegistryAction
}

// Model is the registries mode state.
type Model struct {
	services  mode.Services
	namespace api.Namespace

	list   cardlist.Model
	search searchbox.Model
	modal  modal.Model
	view   ViewMode
	spin   spinner.Model

	// status selects the server-side view. The revoked tab shows what the
	// server marked revoked; the client never re-applies that predicate.
	status api.RegistryStatus

	query       *api.NamespaceQuery
	collapsed   []api.Registry
	searchQuery string

	loading  bool
	fetchSeq int
	err      error

	pending *pendingMutation
	// mutating blocks a second mutation until the in-flight one reports.
	mutating bool

	width  int
	height int
}

type queryMsg struct {
	seq    int
	status api.RegistryStatus
	query  *api.NamespaceQuery
	err    error
}

type mutatedMsg struct {
	registryName string
	action       api.RegistryAction
	err          error
}

// New creates the registries mode controller for one namespace.
func New(services mode.Services, namespace api.Namespace) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		services:  services,
		namespace: namespace,
		list:      cardlist.New("reg", "No registries in this view."),
		search:    searchbox.New("filter by name or description"),
		spin:      sp,
		status:    api.StatusActive,
		loading:   true,
	}
}

// Init triggers the initial query for the active view.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(m.fetchSeq, m.status, false), m.spin.Tick)
}

// SetSize handles terminal resize events.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.list = m.list.SetSize(width, height-7)
	m.modal.SetSize(width, height)
	return m
}

func (m Model) cacheKey(status api.RegistryStatus) string {
	return m.namespace.NamespaceID + "|" + string(status)
}

// load resolves the registry query for one status view. Completions carry
// the sequence they were issued under; anything stale is dropped so a slow
// response for a view the user already left cannot overwrite the list.
func (m Model) load(seq int, status api.RegistryStatus, force bool) tea.Cmd {
	services := m.services
	namespaceID := m.namespace.NamespaceID
	cacheKey := m.cacheKey(status)
	ttl := m.cacheTTL()
	timeout := m.requestTimeout()
	rtc := cachemanager.NewReadThroughCache(services.QueryCache,
		func(ctx context.Context, status api.RegistryStatus) (*api.NamespaceQuery, error) {
			return services.Client.QueryNamespace(ctx, namespaceID, status)
		})
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		get := rtc.Get
		if force {
			get = rtc.Refresh
		}
		query, err := get(ctx, cacheKey, status, ttl)
		if err != nil {
			return queryMsg{seq: seq, status: status, err: err}
		}
		return queryMsg{seq: seq, status: status, query: query}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case queryMsg:
		if msg.seq != m.fetchSeq {
			log.Debug(log.CatSync, "Stale registry query dropped", "seq", msg.seq, "current", m.fetchSeq)
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.query = msg.query
		m.collapsed = listing.Collapse(msg.query.Registries,
			func(r api.Registry) string { return r.RegistryID },
			func(r api.Registry) time.Time { return r.UpdatedAt })
		m.list = m.list.SetCards(m.cards())
		return m, nil

	case searchbox.QueryMsg:
		m.searchQuery = msg.Query
		m.list = m.list.SetCards(m.cards())
		return m, nil

	case mutatedMsg:
		return m.handleMutated(msg)

	case modal.SubmitMsg:
		return m.confirmMutation()

	case modal.CancelMsg:
		if m.view == ViewConfirmModal {
			m.view = ViewList
			m.pending = nil
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.view == ViewList {
			if idx := m.list.HandleMouse(msg); idx >= 0 {
				m.list = m.list.Select(m.list.Cards()[idx].ID)
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	if m.view == ViewConfirmModal {
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}

	if m.search.Focused() {
		switch msg.String() {
		case "esc":
			var cmd tea.Cmd
			m.search, cmd = m.search.Clear()
			m.search = m.search.Blur()
			return m, cmd
		case "enter":
			m.search = m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	k := m.services.Keys
	switch {
	case msg.String() == "q":
		return m, tea.Quit

	case key.Matches(msg, k.Up):
		m.list = m.list.CursorUp()
	case key.Matches(msg, k.Down):
		m.list = m.list.CursorDown()

	case key.Matches(msg, k.Search):
		var cmd tea.Cmd
		m.search, cmd = m.search.Focus()
		return m, cmd

	case key.Matches(msg, k.ToggleRevoked):
		return m.switchStatus()

	case key.Matches(msg, k.Refresh):
		m.fetchSeq++
		m.loading = true
		return m, tea.Batch(m.load(m.fetchSeq, m.status, true), m.spin.Tick)

	case key.Matches(msg, k.Archive):
		reg, ok := m.selected()
		if !ok || m.status == api.StatusRevoked {
			return m, nil
		}
		action := api.ActionArchive
		if reg.Archived {
			action = api.ActionRestore
		}
		return m.askConfirm(reg, action)

	case key.Matches(msg, k.Revoke):
		reg, ok := m.selected()
		if !ok {
			return m, nil
		}
		action := api.ActionRevoke
		if m.status == api.StatusRevoked || reg.Revoked {
			action = api.ActionReinstate
		}
		return m.askConfirm(reg, action)

	case key.Matches(msg, k.Yank):
		reg, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.copyToClipboard(reg.RegistryID, "Copied: "+reg.RegistryID)

	case key.Matches(msg, k.Enter):
		reg, ok := m.selected()
		if !ok {
			return m, nil
		}
		namespace := m.namespace
		registry := *reg
		return m, func() tea.Msg {
			return mode.OpenRegistryDetailMsg{Namespace: namespace, Registry: registry}
		}

	case key.Matches(msg, k.Back):
		return m, func() tea.Msg { return mode.BackMsg{} }
	}

	return m, nil
}

func (m Model) switchStatus() (mode.Controller, tea.Cmd) {
	if m.status == api.StatusActive {
		m.status = api.StatusRevoked
	} else {
		m.status = api.StatusActive
	}
	m.fetchSeq++
	m.loading = true
	m.query = nil
	m.collapsed = nil
	m.list = m.list.SetCards(nil)
	return m, tea.Batch(m.load(m.fetchSeq, m.status, false), m.spin.Tick)
}

func (m Model) askConfirm(reg *api.Registry, action api.RegistryAction) (mode.Controller, tea.Cmd) {
	if m.mutating {
		return m, nil
	}
	m.pending = &pendingMutation{registryName: reg.RegistryName, action: action}
	m.modal = modal.New(modal.Config{
		Title:          strings.ToUpper(action.Label()[:1]) + action.Label()[1:] + " Registry",
		Message:        fmt.Sprintf("Really %s %q? ", action.Label(), reg.RegistryName),
		ConfirmVariant: modal.ButtonDanger,
		ConfirmLabel:   strings.ToUpper(action.Label()[:1]) + action.Label()[1:],
	})
	m.modal.SetSize(m.width, m.height)
	m.view = ViewConfirmModal
	return m, m.modal.Init()
}

// confirmMutation fires the pending action. Nothing in the list is touched
// until the server reports the documented success message.
func (m Model) confirmMutation() (mode.Controller, tea.Cmd) {
	if m.view != ViewConfirmModal || m.pending == nil || m.mutating {
		return m, nil
	}
	pending := *m.pending
	m.pending = nil
	m.view = ViewList
	m.mutating = true

	services := m.services
	namespaceID := m.namespace.NamespaceID
	timeout := m.requestTimeout()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := services.Client.MutateRegistry(ctx, namespaceID, pending.registryName, pending.action)
		return mutatedMsg{registryName: pending.registryName, action: pending.action, err: err}
	}
}

func (m Model) handleMutated(msg mutatedMsg) (mode.Controller, tea.Cmd) {
	m.mutating = false
	if msg.err != nil {
		m.recordActivity(string(msg.action), msg.registryName, journal.OutcomeFailure)
		// List state is untouched on failure.
		return m, toast(api.UserMessage(msg.err), toaster.StyleError)
	}

	m.recordActivity(string(msg.action), msg.registryName, journal.OutcomeSuccess)

	// Both views changed on the server; drop the cached copies.
	if m.services.QueryCache != nil {
		ctx := context.Background()
		_ = m.services.QueryCache.Delete(ctx,
			m.cacheKey(api.StatusActive), m.cacheKey(api.StatusRevoked), m.cacheKey(api.StatusAll))
	}

	m.fetchSeq++
	m.loading = true
	return m, tea.Batch(
		toast(msg.action.SuccessMessage(), toaster.StyleSuccess),
		m.load(m.fetchSeq, m.status, true),
		m.spin.Tick,
	)
}

// visible applies the search filter on top of the collapsed rows.
func (m Model) visible() []api.Registry {
	return listing.Search(m.collapsed, m.searchQuery, func(r api.Registry) []string {
		return []string{r.RegistryName, r.Description}
	})
}

func (m Model) selected() (*api.Registry, bool) {
	card, ok := m.list.Selected()
	if !ok {
		return nil, false
	}
	for i := range m.collapsed {
		if m.collapsed[i].RegistryID == card.ID {
			return &m.collapsed[i], true
		}
	}
	return nil, false
}

func (m Model) cards() []cardlist.Card {
	now := m.now()
	rows := m.visible()
	cards := make([]cardlist.Card, 0, len(rows))
	for _, reg := range rows {
		badge := "active"
		badgeStyle := styles.RegistryActiveStyle
		switch {
		case reg.Revoked:
			badge = "revoked"
			badgeStyle = styles.RegistryRevokedStyle
		case reg.Archived:
			badge = "archived"
			badgeStyle = styles.RegistryArchivedStyle
		}

		meta := fmt.Sprintf("v%s • %s • updated %s",
			reg.Version,
			styles.FormatCount(reg.RecordCount, "record"),
			styles.FormatRelativeTime(reg.UpdatedAt, now))
		if reg.VersionCount > 1 {
			meta += fmt.Sprintf(" • %s", styles.FormatCount(reg.VersionCount, "version"))
		}

		cards = append(cards, cardlist.Card{
			ID:          reg.RegistryID,
			Title:       reg.RegistryName,
			Badge:       badge,
			BadgeStyle:  badgeStyle,
			Meta:        meta,
			Description: reg.Description,
		})
	}
	return cards
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

func (m Model) recordActivity(action, registryName string, outcome journal.Outcome) {
	if m.services.Journal == nil {
		return
	}
	entry := journal.Entry{
		Action:       action,
		NamespaceID:  m.namespace.NamespaceID,
		RegistryName: registryName,
		Outcome:      outcome,
	}
	if m.services.Clock != nil {
		entry.Timestamp = m.services.Clock.Now().UTC()
	}
	if _, err := m.services.Journal.Record(entry); err != nil {
		log.ErrorErr(log.CatJournal, "Activity record failed", err, "action", action)
	}
}

func (m Model) cacheTTL() time.Duration {
	if m.services.Config != nil && m.services.Config.CacheTTL > 0 {
		return m.services.Config.CacheTTL
	}
	return 5 * time.Minute
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

// summary renders the "N shown" line under the tabs. On the active view
// the collapsed rows are split by archive state for the counts.
func (m Model) summary() string {
	if m.status == api.StatusRevoked {
		return fmt.Sprintf("%d revoked", len(m.visible()))
	}
	live, archived := listing.Partition(m.visible(), func(r api.Registry) bool { return !r.Archived })
	return fmt.Sprintf("%d active • %d archived", len(live), len(archived))
}

func (m Model) tabs() string {
	activeStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	revokedStyle := activeStyle
	selected := lipgloss.NewStyle().Bold(true).Foreground(styles.BorderHighlightFocusColor)
	if m.status == api.StatusRevoked {
		revokedStyle = selected
	} else {
		activeStyle = selected
	}
	return activeStyle.Render("Active") + "  " + revokedStyle.Render("Revoked")
}

// View renders the registry list or the confirmation overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)

	header := titleStyle.Render(m.namespace.Name) + "  " + m.tabs()

	var body string
	switch {
	case m.loading:
		body = m.spin.View() + " Loading registries…"
	case m.err != nil:
		body = styles.ErrorStyle.Render("Could not load registries: "+api.UserMessage(m.err)) +
			"\n\n" + hintStyle.Render("r to retry")
	default:
		body = hintStyle.Render(m.summary()) + "\n" + m.list.View()
	}

	searchLine := ""
	if m.search.Focused() || m.search.Value() != "" {
		searchLine = m.search.View() + "\n"
	}

	hints := hintStyle.Render("enter open • tab revoked • / filter • a archive • x revoke • y yank • r refresh")
	base := header + "\n" + searchLine + "\n" + body + "\n" + hints

	if m.view == ViewConfirmModal {
		return m.modal.Overlay(base)
	}
	return base
}
