// Package app contains the root application model: mode routing, the
// session lifecycle, the centralized toaster, and config hot-reload.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"dedi/internal/api"
	"dedi/internal/config"
	"dedi/internal/log"
	"dedi/internal/mode"
	"dedi/internal/mode/auth"
	"dedi/internal/mode/namespaces"
	"dedi/internal/mode/registries"
	"dedi/internal/mode/registrydetail"
	"dedi/internal/pubsub"
	"dedi/internal/ui/statusbar"
	"dedi/internal/ui/styles"
	"dedi/internal/ui/toaster"
	"dedi/internal/watcher"
)

// toastDuration is how long a toast stays visible.
const toastDuration = 3 * time.Second

// ReloadFunc re-reads the config file. The shell calls it when the watcher
// reports a change, then re-applies the theme.
type ReloadFunc func() (*config.Config, error)

// sessionCheckedMsg reports the startup session probe.
type sessionCheckedMsg struct {
	session *api.Session
	err     error
}

// loggedOutMsg reports the logout round trip.
type loggedOutMsg struct {
	err error
}

// configReloadedMsg carries a freshly parsed config.
type configReloadedMsg struct {
	cfg *config.Config
	err error
}

// Model is the root application state.
type Model struct {
	currentMode mode.AppMode

	authMode       auth.Model
	namespacesMode mode.Controller
	registriesMode mode.Controller
	detailMode     mode.Controller

	services mode.Services
	reload   ReloadFunc

	width  int
	height int

	// Centralized toaster, owned by the shell rather than the modes.
	toaster toaster.Model
	status  statusbar.Model

	// Config watcher wiring.
	watcherHandle   *watcher.Watcher
	watcherCancel   context.CancelFunc
	watcherListener *pubsub.ContinuousListener[watcher.WatcherEvent]
}

// New creates the application shell. The config watcher is optional; it is
// started only when the config asks for it and the path is known.
func New(services mode.Services, reload ReloadFunc) Model {
	var (
		watcherHandle   *watcher.Watcher
		watcherCancel   context.CancelFunc
		watcherListener *pubsub.ContinuousListener[watcher.WatcherEvent]
	)

	if services.Config != nil && services.Config.WatchConfig && services.ConfigPath != "" {
		w, err := watcher.New(watcher.DefaultConfig(services.ConfigPath))
		if err == nil {
			if _, err := w.Start(); err == nil {
				watcherHandle = w
				var ctx context.Context
				ctx, watcherCancel = context.WithCancel(context.Background())
				watcherListener = pubsub.NewContinuousListener(ctx, w.Broker())
			} else {
				_ = w.Stop()
			}
		}
		// The app works fine without hot reload; init errors are not fatal.
	}

	return Model{
		currentMode:     mode.ModeAuth,
		authMode:        auth.New(services),
		services:        services,
		reload:          reload,
		toaster:         toaster.New(),
		status:          statusbar.New(),
		watcherHandle:   watcherHandle,
		watcherCancel:   watcherCancel,
		watcherListener: watcherListener,
	}
}

// Init probes for an existing session and starts the watcher listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.checkSession(), m.authMode.Init()}
	if m.watcherListener != nil {
		cmds = append(cmds, m.watcherListener.Listen())
	}
	return tea.Batch(cmds...)
}

// checkSession asks the server whether the cookie jar already holds a
// valid session, so a restart does not force a fresh sign-in.
func (m Model) checkSession() tea.Cmd {
	client := m.services.Client
	timeout := m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		session, err := client.Me(ctx)
		return sessionCheckedMsg{session: session, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := msg.Height - 1

		m.authMode = m.authMode.SetSize(msg.Width, contentHeight).(auth.Model)
		if m.namespacesMode != nil {
			m.namespacesMode = m.namespacesMode.SetSize(msg.Width, contentHeight)
		}
		if m.registriesMode != nil {
			m.registriesMode = m.registriesMode.SetSize(msg.Width, contentHeight)
		}
		if m.detailMode != nil {
			m.detailMode = m.detailMode.SetSize(msg.Width, contentHeight)
		}
		m.status = m.status.SetWidth(msg.Width)
		return m, nil

	case sessionCheckedMsg:
		return m.handleSessionChecked(msg)

	case auth.SignedInMsg:
		log.Info(log.CatMode, "Switching mode", "from", "auth", "to", "namespaces")
		return m.enterNamespaces()

	case loggedOutMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatAuth, "Logout request failed", msg.err)
		}
		// The local session is dropped regardless of the server's answer.
		m.services.Session.Clear()
		m.currentMode = mode.ModeAuth
		m.namespacesMode = nil
		m.registriesMode = nil
		m.detailMode = nil
		m.authMode = auth.New(m.services).SetSize(m.width, m.height-1).(auth.Model)
		return m, m.authMode.Init()

	case mode.OpenRegistriesMsg:
		log.Info(log.CatMode, "Switching mode", "from", "namespaces", "to", "registries",
			"namespace", msg.Namespace.NamespaceID)
		ctrl := registries.New(m.services, msg.Namespace).SetSize(m.width, m.height-1)
		m.registriesMode = ctrl
		m.currentMode = mode.ModeRegistries
		return m, ctrl.Init()

	case mode.OpenRegistryDetailMsg:
		log.Info(log.CatMode, "Switching mode", "from", "registries", "to", "detail",
			"registry", msg.Registry.RegistryName)
		ctrl := registrydetail.New(m.services, msg.Namespace, msg.Registry).SetSize(m.width, m.height-1)
		m.detailMode = ctrl
		m.currentMode = mode.ModeRegistryDetail
		return m, ctrl.Init()

	case mode.BackMsg:
		return m.goBack()

	case configReloadedMsg:
		return m.handleConfigReloaded(msg)

	case pubsub.Event[watcher.WatcherEvent]:
		return m.handleWatcherEvent(msg)

	case mode.ShowToastMsg:
		m.toaster = m.toaster.Show(msg.Message, msg.Style)
		return m, toaster.ScheduleDismiss(toastDuration)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.services.Keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.services.Keys.Logout) && m.currentMode != mode.ModeAuth {
			return m, m.logout()
		}
	}

	return m.routeToMode(msg)
}

func (m Model) handleSessionChecked(msg sessionCheckedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if !errors.Is(msg.err, api.ErrUnauthenticated) {
			log.ErrorErr(log.CatAuth, "Session probe failed", msg.err)
		}
		return m, nil
	}
	m.services.Session.Set(msg.session)
	return m.enterNamespaces()
}

func (m Model) enterNamespaces() (tea.Model, tea.Cmd) {
	ctrl := namespaces.New(m.services).SetSize(m.width, m.height-1)
	m.namespacesMode = ctrl
	m.currentMode = mode.ModeNamespaces
	return m, ctrl.Init()
}

func (m Model) goBack() (tea.Model, tea.Cmd) {
	switch m.currentMode {
	case mode.ModeRegistryDetail:
		m.currentMode = mode.ModeRegistries
		m.detailMode = nil
	case mode.ModeRegistries:
		m.currentMode = mode.ModeNamespaces
		m.registriesMode = nil
	}
	return m, nil
}

func (m Model) logout() tea.Cmd {
	client := m.services.Client
	timeout := m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return loggedOutMsg{err: client.Logout(ctx)}
	}
}

func (m Model) handleWatcherEvent(msg pubsub.Event[watcher.WatcherEvent]) (tea.Model, tea.Cmd) {
	listen := func() tea.Cmd {
		if m.watcherListener != nil {
			return m.watcherListener.Listen()
		}
		return nil
	}

	switch msg.Payload.Type {
	case watcher.ConfigChanged:
		if m.reload == nil {
			return m, listen()
		}
		log.Debug(log.CatWatcher, "Config changed on disk, reloading")
		reload := m.reload
		return m, tea.Batch(listen(), func() tea.Msg {
			cfg, err := reload()
			return configReloadedMsg{cfg: cfg, err: err}
		})

	case watcher.WatcherError:
		log.Warn(log.CatWatcher, "Watcher error received", "error", msg.Payload.Error)
	}
	return m, listen()
}

func (m Model) handleConfigReloaded(msg configReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.ErrorErr(log.CatConfig, "Config reload failed", msg.err)
		m.toaster = m.toaster.Show("Config reload failed: "+msg.err.Error(), toaster.StyleError)
		return m, toaster.ScheduleDismiss(toastDuration)
	}

	*m.services.Config = *msg.cfg
	styles.ApplyTheme(
		msg.cfg.Theme.Highlight,
		msg.cfg.Theme.Subtle,
		msg.cfg.Theme.Error,
		msg.cfg.Theme.Success,
	)
	log.Info(log.CatConfig, "Config reloaded", "path", m.services.ConfigPath)
	m.toaster = m.toaster.Show("Config reloaded", toaster.StyleInfo)
	return m, toaster.ScheduleDismiss(toastDuration)
}

func (m Model) routeToMode(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentMode {
	case mode.ModeAuth:
		var ctrl mode.Controller
		ctrl, cmd = m.authMode.Update(msg)
		m.authMode = ctrl.(auth.Model)
	case mode.ModeNamespaces:
		if m.namespacesMode != nil {
			m.namespacesMode, cmd = m.namespacesMode.Update(msg)
		}
	case mode.ModeRegistries:
		if m.registriesMode != nil {
			m.registriesMode, cmd = m.registriesMode.Update(msg)
		}
	case mode.ModeRegistryDetail:
		if m.detailMode != nil {
			m.detailMode, cmd = m.detailMode.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) requestTimeout() time.Duration {
	if m.services.Config != nil && m.services.Config.RequestTimeout > 0 {
		return m.services.Config.RequestTimeout
	}
	return 15 * time.Second
}

func (m Model) modeLabel() string {
	switch m.currentMode {
	case mode.ModeNamespaces:
		return "namespaces"
	case mode.ModeRegistries:
		return "registries"
	case mode.ModeRegistryDetail:
		return "registry"
	}
	return "sign in"
}

// View implements tea.Model.
func (m Model) View() string {
	var view string
	switch m.currentMode {
	case mode.ModeNamespaces:
		if m.namespacesMode != nil {
			view = m.namespacesMode.View()
		}
	case mode.ModeRegistries:
		if m.registriesMode != nil {
			view = m.registriesMode.View()
		}
	case mode.ModeRegistryDetail:
		if m.detailMode != nil {
			view = m.detailMode.View()
		}
	default:
		view = m.authMode.View()
	}

	if m.showStatusBar() {
		identity := ""
		if session, ok := m.services.Session.Current(); ok {
			identity = session.Email
		}
		bar := m.status.
			SetIdentity(identity).
			SetContext(m.modeLabel()).
			SetHint("ctrl+c quit • ctrl+d sign out")
		view += "\n" + bar.View()
	}

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}

	return zone.Scan(view)
}

func (m Model) showStatusBar() bool {
	return m.services.Config == nil || m.services.Config.UI.ShowStatusBar
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.watcherCancel != nil {
		m.watcherCancel()
	}
	if m.watcherHandle != nil {
		return m.watcherHandle.Stop()
	}
	return nil
}
