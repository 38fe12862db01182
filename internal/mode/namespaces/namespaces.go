// Package namespaces implements the namespace list mode: the signed-in
// landing page with create/edit modals and the DNS domain verification flow.
package namespaces

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
	"dedi/internal/log"
	"dedi/internal/mode"
	"dedi/internal/ui/cardlist"
	"dedi/internal/ui/modal"
	"dedi/internal/ui/overlay"
	"dedi/internal/ui/styles"
	"dedi/internal/ui/toaster"
)

// cacheKey is the single key the profile namespace list lives under.
const cacheKey = "profile"

// ViewMode determines which layer is active within the namespaces mode.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewCreateModal
	ViewEditModal
	ViewDomainModal
	ViewDNSRecord
)

// Model is the namespaces mode state.
type Model struct {
	services mode.Services

	list  cardlist.Model
	modal modal.Model
	view  ViewMode
	spin  spinner.Model

	namespaces []api.Namespace
	loading    bool
	fetchSeq   int
	err        error

	// Target of the open edit or verify flow.
	target *api.Namespace

	// DNS verification state for the record panel.
	dnsDomain   string
	dnsTxt      string
	dnsChecking bool

	width  int
	height int
}

type namespacesMsg struct {
	seq        int
	namespaces []api.Namespace
	err        error
}

type createdMsg struct {
	name string
	err  error
}

type updatedMsg struct {
	namespaceID string
	name        string
	err         error
}

type dnsTxtMsg struct {
	namespaceID string
	domain      string
	txt         string
	err         error
}

type domainVerifiedMsg struct {
	namespaceID string
	err         error
}

// New creates the namespaces mode controller.
func New(services mode.Services) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		services: services,
		list:     cardlist.New("ns", "No namespaces yet. Press n to create one."),
		spin:     sp,
		loading:  true,
	}
}

// Init triggers the initial namespace load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(m.fetchSeq, false), m.spin.Tick)
}

// SetSize handles terminal resize events.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.list = m.list.SetSize(width, height-4)
	m.modal.SetSize(width, height)
	return m
}

// load returns a command that resolves the namespace list, consulting the
// cache unless force is set. Results carry the sequence they were issued
// under so a stale completion cannot clobber a newer one.
func (m Model) load(seq int, force bool) tea.Cmd {
	services := m.services
	ttl := m.cacheTTL()
	timeout := m.requestTimeout()
	rtc := cachemanager.NewReadThroughCache(services.NamespaceCache,
		func(ctx context.Context, _ struct{}) ([]api.Namespace, error) {
			return services.Client.NamespacesByProfile(ctx)
		})
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		get := rtc.Get
		if force {
			get = rtc.Refresh
		}
		namespaces, err := get(ctx, cacheKey, struct{}{}, ttl)
		if err != nil {
			return namespacesMsg{seq: seq, err: err}
		}
		return namespacesMsg{seq: seq, namespaces: namespaces}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case namespacesMsg:
		if msg.seq != m.fetchSeq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.namespaces = msg.namespaces
		m.list = m.list.SetCards(m.cards())
		return m, nil

	case createdMsg:
		return m.handleCreated(msg)

	case updatedMsg:
		return m.handleUpdated(msg)

	case dnsTxtMsg:
		return m.handleDNSTxt(msg)

	case domainVerifiedMsg:
		return m.handleDomainVerified(msg)

	case modal.SubmitMsg:
		return m.handleModalSubmit(msg)

	case modal.CancelMsg:
		m.view = ViewList
		m.target = nil
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.dnsChecking {
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

	// Modal inputs consume everything else while open.
	if m.view == ViewCreateModal || m.view == ViewEditModal || m.view == ViewDomainModal {
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	switch m.view {
	case ViewCreateModal, ViewEditModal, ViewDomainModal:
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd

	case ViewDNSRecord:
		return m.handleDNSRecordKey(msg)
	}

	k := m.services.Keys
	switch {
	case msg.String() == "q":
		return m, tea.Quit

	case key.Matches(msg, k.Up):
		m.list = m.list.CursorUp()
	case key.Matches(msg, k.Down):
		m.list = m.list.CursorDown()

	case key.Matches(msg, k.Refresh):
		m.fetchSeq++
		m.loading = true
		return m, tea.Batch(m.load(m.fetchSeq, true), m.spin.Tick)

	case key.Matches(msg, k.New):
		m.modal = modal.New(modal.Config{
			Title: "New Namespace",
			Inputs: []modal.InputConfig{
				{Key: "name", Label: "Name", Placeholder: "my-namespace", MaxLength: 64},
				{Key: "description", Label: "Description", Optional: true},
			},
		})
		m.modal.SetSize(m.width, m.height)
		m.view = ViewCreateModal
		return m, m.modal.Init()

	case key.Matches(msg, k.Edit):
		ns, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.target = ns
		m.modal = modal.New(modal.Config{
			Title: "Edit Namespace",
			Inputs: []modal.InputConfig{
				{Key: "name", Label: "Name", Value: ns.Name, MaxLength: 64},
				{Key: "description", Label: "Description", Value: ns.Description, Optional: true},
			},
		})
		m.modal.SetSize(m.width, m.height)
		m.view = ViewEditModal
		return m, m.modal.Init()

	case key.Matches(msg, k.Verify):
		ns, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.target = ns
		m.modal = modal.New(modal.Config{
			Title:        "Verify Domain",
			Message:      "Prove ownership of " + ns.Name + " by publishing a DNS TXT record.",
			ConfirmLabel: "Generate",
			Inputs: []modal.InputConfig{
				{Key: "domain", Label: "Domain", Placeholder: "example.org"},
			},
		})
		m.modal.SetSize(m.width, m.height)
		m.view = ViewDomainModal
		return m, m.modal.Init()

	case key.Matches(msg, k.Yank):
		ns, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.copyToClipboard(ns.NamespaceID, "Copied: "+ns.NamespaceID)

	case key.Matches(msg, k.Enter):
		ns, ok := m.selected()
		if !ok {
			return m, nil
		}
		open := *ns
		return m, func() tea.Msg { return mode.OpenRegistriesMsg{Namespace: open} }
	}

	return m, nil
}

func (m Model) handleDNSRecordKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	if m.dnsChecking {
		if msg.String() == "esc" {
			m.dnsChecking = false
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.view = ViewList
		m.target = nil
		m.dnsTxt = ""
		m.dnsDomain = ""
		return m, nil
	case "y":
		return m, m.copyToClipboard(m.dnsTxt, "TXT record copied")
	case "enter":
		if m.target == nil {
			return m, nil
		}
		m.dnsChecking = true
		services := m.services
		namespaceID := m.target.NamespaceID
		timeout := m.requestTimeout()
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			err := services.Client.VerifyDomain(ctx, namespaceID)
			return domainVerifiedMsg{namespaceID: namespaceID, err: err}
		})
	}
	return m, nil
}

func (m Model) handleModalSubmit(msg modal.SubmitMsg) (mode.Controller, tea.Cmd) {
	switch m.view {
	case ViewCreateModal:
		m.view = ViewList
		name := strings.TrimSpace(msg.Values["name"])
		description := strings.TrimSpace(msg.Values["description"])
		services := m.services
		timeout := m.requestTimeout()
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			_, err := services.Client.CreateNamespace(ctx, api.CreateNamespaceRequest{
				Name:        name,
				Description: description,
			})
			return createdMsg{name: name, err: err}
		}

	case ViewEditModal:
		m.view = ViewList
		if m.target == nil {
			return m, nil
		}
		namespaceID := m.target.NamespaceID
		m.target = nil
		name := strings.TrimSpace(msg.Values["name"])
		description := strings.TrimSpace(msg.Values["description"])
		services := m.services
		timeout := m.requestTimeout()
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			err := services.Client.UpdateNamespace(ctx, namespaceID, api.UpdateNamespaceRequest{
				Name:        name,
				Description: description,
			})
			return updatedMsg{namespaceID: namespaceID, name: name, err: err}
		}

	case ViewDomainModal:
		if m.target == nil {
			m.view = ViewList
			return m, nil
		}
		domain := strings.TrimSpace(msg.Values["domain"])
		namespaceID := m.target.NamespaceID
		m.view = ViewDNSRecord
		m.dnsDomain = domain
		m.dnsTxt = ""
		m.dnsChecking = true
		services := m.services
		timeout := m.requestTimeout()
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			txt, err := services.Client.GenerateDNSTxt(ctx, namespaceID, domain)
			return dnsTxtMsg{namespaceID: namespaceID, domain: domain, txt: txt, err: err}
		})
	}
	return m, nil
}

func (m Model) handleCreated(msg createdMsg) (mode.Controller, tea.Cmd) {
	if msg.err != nil {
		m.recordActivity("create-namespace", "", journal.OutcomeFailure, msg.name)
		return m, toast(api.UserMessage(msg.err), toaster.StyleError)
	}
	m.recordActivity("create-namespace", "", journal.OutcomeSuccess, msg.name)
	m.fetchSeq++
	m.loading = true
	return m, tea.Batch(
		toast("Namespace created successfully", toaster.StyleSuccess),
		m.load(m.fetchSeq, true),
		m.spin.Tick,
	)
}

func (m Model) handleUpdated(msg updatedMsg) (mode.Controller, tea.Cmd) {
	if msg.err != nil {
		m.recordActivity("update-namespace", msg.namespaceID, journal.OutcomeFailure, msg.name)
		return m, toast(api.UserMessage(msg.err), toaster.StyleError)
	}
	m.recordActivity("update-namespace", msg.namespaceID, journal.OutcomeSuccess, msg.name)
	m.fetchSeq++
	m.loading = true
	return m, tea.Batch(
		toast("Namespace updated", toaster.StyleSuccess),
		m.load(m.fetchSeq, true),
		m.spin.Tick,
	)
}

func (m Model) handleDNSTxt(msg dnsTxtMsg) (mode.Controller, tea.Cmd) {
	m.dnsChecking = false
	if msg.err != nil {
		m.view = ViewList
		m.target = nil
		return m, toast(api.UserMessage(msg.err), toaster.StyleError)
	}
	m.dnsTxt = msg.txt
	m.dnsDomain = msg.domain
	m.annotate(msg.namespaceID, func(ns *api.Namespace) { ns.DNSTxt = msg.txt })
	return m, m.copyToClipboard(msg.txt, "TXT record copied")
}

func (m Model) handleDomainVerified(msg domainVerifiedMsg) (mode.Controller, tea.Cmd) {
	m.dnsChecking = false
	if msg.err != nil {
		m.recordActivity("verify-domain", msg.namespaceID, journal.OutcomeFailure, m.dnsDomain)
		// Stay on the record panel so the user can retry after DNS settles.
		return m, toast(api.UserMessage(msg.err), toaster.StyleError)
	}
	m.recordActivity("verify-domain", msg.namespaceID, journal.OutcomeSuccess, m.dnsDomain)
	m.annotate(msg.namespaceID, func(ns *api.Namespace) { ns.Verified = true })
	m.list = m.list.SetCards(m.cards())
	m.view = ViewList
	m.target = nil
	m.dnsTxt = ""
	m.dnsDomain = ""
	return m, toast("Domain verified", toaster.StyleSuccess)
}

// annotate applies fn to the in-memory copy of the namespace. Annotations
// are ephemeral and vanish on the next refetch.
func (m *Model) annotate(namespaceID string, fn func(*api.Namespace)) {
	for i := range m.namespaces {
		if m.namespaces[i].NamespaceID == namespaceID {
			fn(&m.namespaces[i])
			return
		}
	}
}

func (m Model) selected() (*api.Namespace, bool) {
	card, ok := m.list.Selected()
	if !ok {
		return nil, false
	}
	for i := range m.namespaces {
		if m.namespaces[i].NamespaceID == card.ID {
			return &m.namespaces[i], true
		}
	}
	return nil, false
}

func (m Model) cards() []cardlist.Card {
	now := m.now()
	cards := make([]cardlist.Card, 0, len(m.namespaces))
	for _, ns := range m.namespaces {
		badge := "unverified"
		badgeStyle := styles.NamespaceUnverifiedStyle
		if ns.Verified {
			badge = "verified"
			badgeStyle = styles.NamespaceVerifiedStyle
		}
		cards = append(cards, cardlist.Card{
			ID:          ns.NamespaceID,
			Title:       ns.Name,
			Badge:       badge,
			BadgeStyle:  badgeStyle,
			Meta:        fmt.Sprintf("%s • updated %s", registryCount(ns.RegistryCount), styles.FormatRelativeTime(ns.UpdatedAt, now)),
			Description: ns.Description,
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

func (m Model) recordActivity(action, namespaceID string, outcome journal.Outcome, detail string) {
	if m.services.Journal == nil {
		return
	}
	entry := journal.Entry{
		Action:      action,
		NamespaceID: namespaceID,
		Outcome:     outcome,
		Detail:      detail,
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

func registryCount(n int) string {
	if n == 1 {
		return "1 registry"
	}
	return fmt.Sprintf("%d registries", n)
}

func toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return mode.ShowToastMsg{Message: message, Style: style}
	}
}

// View renders the namespace list or the active overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)

	var body string
	switch {
	case m.loading:
		body = m.spin.View() + " Loading namespaces…"
	case m.err != nil:
		body = styles.ErrorStyle.Render("Could not load namespaces: "+api.UserMessage(m.err)) +
			"\n\n" + hintStyle.Render("r to retry")
	default:
		body = m.list.View()
	}

	header := titleStyle.Render("Namespaces")
	hints := hintStyle.Render("enter open • n new • e edit • v verify • y yank • r refresh")
	base := header + "\n\n" + body + "\n" + hints

	switch m.view {
	case ViewCreateModal, ViewEditModal, ViewDomainModal:
		return m.modal.Overlay(base)
	case ViewDNSRecord:
		return m.dnsRecordOverlay(base)
	}
	return base
}

func (m Model) dnsRecordOverlay(base string) string {
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	txtStyle := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)

	var lines []string
	if m.dnsTxt == "" {
		lines = []string{m.spin.View() + " Generating TXT record…"}
	} else {
		lines = []string{
			"Publish this TXT record on " + txtStyle.Render(m.dnsDomain) + ":",
			"",
			txtStyle.Render(m.dnsTxt),
			"",
		}
		if m.dnsChecking {
			lines = append(lines, m.spin.View()+" Checking DNS…")
		} else {
			lines = append(lines, hintStyle.Render("enter verify • y copy • esc close"))
		}
	}

	content := styles.RenderFormSection(lines, "Domain Verification", "", 60, true, styles.BorderHighlightFocusColor)
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, content, base)
}
