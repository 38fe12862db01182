package testutil

import (
	"encoding/json"
	"time"

	"dedi/internal/api"
)

// NamespaceOption configures a built namespace.
type NamespaceOption func(*api.Namespace)

// RegistryOption configures a built registry.
type RegistryOption func(*api.Registry)

// BuildNamespace creates a namespace with sensible defaults.
func BuildNamespace(id, name string, opts ...NamespaceOption) api.Namespace {
	ns := api.Namespace{
		NamespaceID:   id,
		Name:          name,
		Description:   "Test namespace",
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		RegistryCount: 1,
	}
	for _, opt := range opts {
		opt(&ns)
	}
	return ns
}

// WithRegistryCount sets the registry count.
func WithRegistryCount(n int) NamespaceOption {
	return func(ns *api.Namespace) { ns.RegistryCount = n }
}

// WithNamespaceDescription sets the description.
func WithNamespaceDescription(d string) NamespaceOption {
	return func(ns *api.Namespace) { ns.Description = d }
}

// BuildRegistry creates a registry snapshot with sensible defaults.
func BuildRegistry(id, name string, updatedAt time.Time, opts ...RegistryOption) api.Registry {
	reg := api.Registry{
		RegistryID:   id,
		RegistryName: name,
		Description:  "Test registry",
		CreatedBy:    "user-1",
		Schema:       json.RawMessage(`{"type":"object"}`),
		RecordCount:  3,
		Version:      "1",
		VersionCount: 1,
		Digest:       "sha256:abc",
		CreatedAt:    updatedAt.Add(-24 * time.Hour),
		UpdatedAt:    updatedAt,
	}
	for _, opt := range opts {
		opt(&reg)
	}
	return reg
}

// Revoked marks the registry revoked.
func Revoked() RegistryOption {
	return func(r *api.Registry) { r.Revoked = true }
}

// Archived marks the registry archived.
func Archived() RegistryOption {
	return func(r *api.Registry) { r.Archived = true }
}

// WithVersion sets version and version count.
func WithVersion(version string, count int) RegistryOption {
	return func(r *api.Registry) {
		r.Version = version
		r.VersionCount = count
	}
}

// WithSchema sets the schema payload.
func WithSchema(schema string) RegistryOption {
	return func(r *api.Registry) { r.Schema = json.RawMessage(schema) }
}

// WithRegistryDescription sets the description.
func WithRegistryDescription(d string) RegistryOption {
	return func(r *api.Registry) { r.Description = d }
}

// StandardQuery returns a namespace query mirroring a typical server
// response: two snapshots of one registry plus a second registry, so the
// collapsed list shows two rows.
func StandardQuery(namespaceName string) *api.NamespaceQuery {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jan15 := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	return &api.NamespaceQuery{
		NamespaceName:   namespaceName,
		TotalRegistries: 2,
		Registries: []api.Registry{
			BuildRegistry("r1", "patients", jan, WithVersion("1", 2)),
			BuildRegistry("r2", "clinics", jan15),
			BuildRegistry("r1", "patients", feb, WithVersion("2", 2)),
		},
	}
}
