// Package auth implements the sign-in flow: an email form, registration,
// and the verification poller that waits for the emailed magic link to be
// followed.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dedi/internal/api"
	"dedi/internal/log"
	"dedi/internal/mode"
	"dedi/internal/session"
	"dedi/internal/ui/styles"
)

type step int

const (
	stepWelcome step = iota
	stepForm
	stepVerifying
)

const requestTimeout = 15 * time.Second

// SignedInMsg bubbles up to the app when the session is confirmed.
type SignedInMsg struct {
	Session *api.Session
}

// registeredMsg reports the result of the register call.
type registeredMsg struct {
	err error
}

// Model is the auth mode controller.
type Model struct {
	services mode.Services
	poller   *session.Poller

	step       step
	emailInput textinput.Model
	nameInput  textinput.Model
	focusName  bool
	formErr    string
	spin       spinner.Model

	width  int
	height int
}

// New creates the auth controller.
func New(services mode.Services) Model {
	email := textinput.New()
	email.Placeholder = "you@example.org"
	email.Prompt = ""
	email.Width = 40
	email.Focus()

	name := textinput.New()
	name.Placeholder = "Display name"
	name.Prompt = ""
	name.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		services:   services,
		poller:     session.NewPoller(services.Client),
		step:       stepWelcome,
		emailInput: email,
		nameInput:  name,
		spin:       sp,
	}
}

// Init satisfies mode.Controller.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize satisfies mode.Controller.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	return m
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	if m.poller.Active(msg) {
		return m, m.poller.Update(msg)
	}

	switch msg := msg.(type) {
	case session.VerifiedMsg:
		m.services.Session.Set(msg.Session)
		log.Info(log.CatAuth, "Session confirmed", "email", msg.Session.Email)
		return m, func() tea.Msg { return SignedInMsg{Session: msg.Session} }

	case session.FailedMsg:
		m.step = stepForm
		m.formErr = "Verification timed out. Check your email and try again."
		return m, nil

	case registeredMsg:
		if msg.err != nil {
			m.step = stepForm
			m.formErr = api.UserMessage(msg.err)
			return m, nil
		}
		m.step = stepVerifying
		return m, tea.Batch(m.poller.Start(), m.spin.Tick)

	case spinner.TickMsg:
		if m.step != stepVerifying {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	switch m.step {
	case stepWelcome:
		switch {
		case msg.Type == tea.KeyEnter:
			m.step = stepForm
			return m, textinput.Blink
		case msg.String() == "q":
			return m, tea.Quit
		}
		return m, nil

	case stepForm:
		switch msg.String() {
		case "esc":
			m.step = stepWelcome
			m.formErr = ""
			return m, nil
		case "tab", "shift+tab", "up", "down":
			m = m.toggleFocus()
			return m, nil
		case "enter":
			return m.submit()
		}

		var cmd tea.Cmd
		if m.focusName {
			m.nameInput, cmd = m.nameInput.Update(msg)
		} else {
			m.emailInput, cmd = m.emailInput.Update(msg)
		}
		return m, cmd

	case stepVerifying:
		if msg.String() == "esc" {
			// Ticks already scheduled are discarded by the generation bump
			m.poller.Cancel()
			m.step = stepForm
			return m, nil
		}
	}
	return m, nil
}

func (m Model) toggleFocus() Model {
	m.focusName = !m.focusName
	if m.focusName {
		m.emailInput.Blur()
		m.nameInput.Focus()
	} else {
		m.nameInput.Blur()
		m.emailInput.Focus()
	}
	return m
}

func (m Model) submit() (mode.Controller, tea.Cmd) {
	email := strings.TrimSpace(m.emailInput.Value())
	name := strings.TrimSpace(m.nameInput.Value())

	if !strings.Contains(email, "@") {
		m.formErr = "Enter a valid email address"
		return m, nil
	}
	if name == "" {
		m.formErr = "Enter a display name"
		return m, nil
	}

	m.formErr = ""
	client := m.services.Client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.Register(ctx, email, name)
		if err != nil {
			log.ErrorErr(log.CatAuth, "Registration failed", err, "email", email)
		}
		return registeredMsg{err: err}
	}
}

// View renders the current step.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimaryColor)
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	errStyle := lipgloss.NewStyle().Foreground(styles.StatusErrorColor)

	var content string
	switch m.step {
	case stepWelcome:
		content = titleStyle.Render("dedi") + "\n\n" +
			"Browse and manage decentralized data registries.\n\n" +
			hintStyle.Render("press enter to sign in")

	case stepForm:
		emailSection := styles.RenderFormSection(
			[]string{m.emailInput.View()}, "Email", "", 44, !m.focusName, styles.BorderHighlightFocusColor)
		nameSection := styles.RenderFormSection(
			[]string{m.nameInput.View()}, "Name", "", 44, m.focusName, styles.BorderHighlightFocusColor)

		content = titleStyle.Render("Sign in") + "\n\n" +
			emailSection + "\n" + nameSection + "\n\n" +
			hintStyle.Render("enter to continue • esc to go back")
		if m.formErr != "" {
			content += "\n\n" + errStyle.Render(m.formErr)
		}

	case stepVerifying:
		content = titleStyle.Render("Check your email") + "\n\n" +
			m.spin.View() + " Waiting for you to follow the sign-in link…\n\n" +
			hintStyle.Render("esc to cancel")
	}

	box := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
