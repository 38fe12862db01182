package api

import (
	"encoding/json"
	"time"
)

// Session is the authenticated user as reported by the auth/me endpoint.
type Session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Namespace is a top-level container a user owns or is delegated access to.
type Namespace struct {
	NamespaceID   string         `json:"namespace_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	RegistryCount int            `json:"registry_count"`
	Meta          map[string]any `json:"meta,omitempty"`

	// Client-side annotations from the domain verification flow.
	// Ephemeral: never sent to the server, discarded with the list.
	Verified bool   `json:"-"`
	DNSTxt   string `json:"-"`
}

// Registry is one versioned snapshot of a schema/data-collection. Multiple
// snapshots may share a RegistryID; the list pages display only the one
// with the greatest UpdatedAt (see listing.Collapse).
type Registry struct {
	RegistryID   string            `json:"registry_id"`
	RegistryName string            `json:"registry_name"`
	Description  string            `json:"description"`
	CreatedBy    string            `json:"created_by"`
	Schema       json.RawMessage   `json:"schema,omitempty"`
	RecordCount  int               `json:"record_count"`
	Version      string            `json:"version"`
	VersionCount int               `json:"version_count"`
	Digest       string            `json:"digest"`
	Revoked      bool              `json:"is_revoked"`
	Archived     bool              `json:"is_archived"`
	Delegates    []json.RawMessage `json:"delegates,omitempty"`
	Meta         map[string]any    `json:"meta,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NamespaceQuery is the payload of a registry query for one namespace.
type NamespaceQuery struct {
	NamespaceName   string     `json:"namespace_name"`
	TotalRegistries int        `json:"total_registries"`
	Registries      []Registry `json:"registries"`
}

// CreateNamespaceRequest is the body for creating a namespace.
type CreateNamespaceRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// UpdateNamespaceRequest is the body for updating a namespace.
type UpdateNamespaceRequest struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// RegistryStatus selects the server-side registry filter for a namespace
// query. Both list views trust the server filter; the client never
// re-applies a revocation predicate on top of it.
type RegistryStatus string

const (
	StatusAll     RegistryStatus = ""
	StatusActive  RegistryStatus = "active"
	StatusRevoked RegistryStatus = "revoked"
)

// RegistryAction is a state-changing registry operation. The value is the
// URL path segment of the corresponding endpoint.
type RegistryAction string

const (
	ActionArchive   RegistryAction = "archive-registry"
	ActionRestore   RegistryAction = "restore-registry"
	ActionRevoke    RegistryAction = "revoke-registry"
	ActionReinstate RegistryAction = "reinstate-registry"
)

// Label returns the human-facing verb for confirmation prompts and toasts.
func (a RegistryAction) Label() string {
	switch a {
	case ActionArchive:
		return "archive"
	case ActionRestore:
		return "restore"
	case ActionRevoke:
		return "revoke"
	case ActionReinstate:
		return "reinstate"
	default:
		return string(a)
	}
}

// SuccessMessage returns the exact response message the server sends when
// the action succeeds. Anything else is treated as a failure.
func (a RegistryAction) SuccessMessage() string {
	switch a {
	case ActionArchive:
		return "Registry has been archived"
	case ActionRestore:
		return "Registry has been restored"
	case ActionRevoke:
		return "Registry has been revoked"
	case ActionReinstate:
		return "Registry has been reinstated"
	default:
		return ""
	}
}
