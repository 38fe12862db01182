// Package mode defines the mode controller interface and shared services.
package mode

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"dedi/internal/api"
	"dedi/internal/cachemanager"
	"dedi/internal/config"
	"dedi/internal/flags"
	"dedi/internal/journal"
	"dedi/internal/keys"
	"dedi/internal/mode/shared"
	"dedi/internal/session"
	"dedi/internal/ui/toaster"
)

// ShowToastMsg asks the app shell to display a transient toast.
type ShowToastMsg struct {
	Message string
	Style   toaster.Style
}

// OpenRegistriesMsg requests switching to the registry list for a namespace.
type OpenRegistriesMsg struct {
	Namespace api.Namespace
}

// OpenRegistryDetailMsg requests the detail page for one registry row.
type OpenRegistryDetailMsg struct {
	Namespace api.Namespace
	Registry  api.Registry
}

// BackMsg requests returning to the previous mode.
type BackMsg struct{}

// AppMode identifies the current application mode.
type AppMode int

const (
	ModeAuth AppMode = iota
	ModeNamespaces
	ModeRegistries
	ModeRegistryDetail
)

// Controller defines the interface all modes must implement.
type Controller interface {
	// Init returns initial commands for the mode.
	Init() tea.Cmd

	// Update handles messages and returns updated model and commands.
	Update(msg tea.Msg) (Controller, tea.Cmd)

	// View renders the mode's UI.
	View() string

	// SetSize handles terminal resize events.
	SetSize(width, height int) Controller
}

// API is the slice of the registry client the modes depend on.
// *api.Client satisfies it; tests substitute fakes.
type API interface {
	Me(ctx context.Context) (*api.Session, error)
	Register(ctx context.Context, email, name string) error
	Logout(ctx context.Context) error
	NamespacesByProfile(ctx context.Context) ([]api.Namespace, error)
	CreateNamespace(ctx context.Context, req api.CreateNamespaceRequest) (*api.Namespace, error)
	UpdateNamespace(ctx context.Context, namespaceID string, req api.UpdateNamespaceRequest) error
	GenerateDNSTxt(ctx context.Context, namespaceID, domain string) (string, error)
	VerifyDomain(ctx context.Context, namespaceID string) error
	QueryNamespace(ctx context.Context, namespaceID string, status api.RegistryStatus) (*api.NamespaceQuery, error)
	MutateRegistry(ctx context.Context, namespaceID, registryName string, action api.RegistryAction) error
}

// Services contains shared dependencies injected into mode controllers.
type Services struct {
	Client     API
	Session    *session.Context
	Config     *config.Config
	ConfigPath string
	Journal    *journal.Store
	Flags      *flags.Registry
	Keys       keys.KeyMap

	// NamespaceCache holds the profile namespace list between visits.
	NamespaceCache cachemanager.CacheManager[string, []api.Namespace]
	// QueryCache holds per-namespace registry query results.
	QueryCache cachemanager.CacheManager[string, *api.NamespaceQuery]

	Clipboard shared.Clipboard
	Clock     shared.Clock
}
