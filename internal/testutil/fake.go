// Package testutil provides test fakes and data builders for the modes.
package testutil

import (
	"context"
	"sync"

	"dedi/internal/api"
)

// FakeClient is a scriptable stand-in for the API client. Unset function
// fields succeed with zero values. Calls records every method invocation
// in order.
type FakeClient struct {
	mu    sync.Mutex
	Calls []string

	MeFunc                  func(ctx context.Context) (*api.Session, error)
	RegisterFunc            func(ctx context.Context, email, name string) error
	LogoutFunc              func(ctx context.Context) error
	NamespacesByProfileFunc func(ctx context.Context) ([]api.Namespace, error)
	CreateNamespaceFunc     func(ctx context.Context, req api.CreateNamespaceRequest) (*api.Namespace, error)
	UpdateNamespaceFunc     func(ctx context.Context, namespaceID string, req api.UpdateNamespaceRequest) error
	GenerateDNSTxtFunc      func(ctx context.Context, namespaceID, domain string) (string, error)
	VerifyDomainFunc        func(ctx context.Context, namespaceID string) error
	QueryNamespaceFunc      func(ctx context.Context, namespaceID string, status api.RegistryStatus) (*api.NamespaceQuery, error)
	MutateRegistryFunc      func(ctx context.Context, namespaceID, registryName string, action api.RegistryAction) error
}

func (f *FakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

// CallCount returns how many times the named method was invoked.
func (f *FakeClient) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *FakeClient) Me(ctx context.Context) (*api.Session, error) {
	f.record("Me")
	if f.MeFunc != nil {
		return f.MeFunc(ctx)
	}
	return &api.Session{ID: "user-1", Email: "test@example.org", Name: "Test"}, nil
}

func (f *FakeClient) Register(ctx context.Context, email, name string) error {
	f.record("Register")
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, email, name)
	}
	return nil
}

func (f *FakeClient) Logout(ctx context.Context) error {
	f.record("Logout")
	if f.LogoutFunc != nil {
		return f.LogoutFunc(ctx)
	}
	return nil
}

func (f *FakeClient) NamespacesByProfile(ctx context.Context) ([]api.Namespace, error) {
	f.record("NamespacesByProfile")
	if f.NamespacesByProfileFunc != nil {
		return f.NamespacesByProfileFunc(ctx)
	}
	return nil, nil
}

func (f *FakeClient) CreateNamespace(ctx context.Context, req api.CreateNamespaceRequest) (*api.Namespace, error) {
	f.record("CreateNamespace")
	if f.CreateNamespaceFunc != nil {
		return f.CreateNamespaceFunc(ctx, req)
	}
	return &api.Namespace{NamespaceID: "ns-new", Name: req.Name, Description: req.Description}, nil
}

func (f *FakeClient) UpdateNamespace(ctx context.Context, namespaceID string, req api.UpdateNamespaceRequest) error {
	f.record("UpdateNamespace")
	if f.UpdateNamespaceFunc != nil {
		return f.UpdateNamespaceFunc(ctx, namespaceID, req)
	}
	return nil
}

func (f *FakeClient) GenerateDNSTxt(ctx context.Context, namespaceID, domain string) (string, error) {
	f.record("GenerateDNSTxt")
	if f.GenerateDNSTxtFunc != nil {
		return f.GenerateDNSTxtFunc(ctx, namespaceID, domain)
	}
	return "dedi-verify=token", nil
}

func (f *FakeClient) VerifyDomain(ctx context.Context, namespaceID string) error {
	f.record("VerifyDomain")
	if f.VerifyDomainFunc != nil {
		return f.VerifyDomainFunc(ctx, namespaceID)
	}
	return nil
}

func (f *FakeClient) QueryNamespace(ctx context.Context, namespaceID string, status api.RegistryStatus) (*api.NamespaceQuery, error) {
	f.record("QueryNamespace")
	if f.QueryNamespaceFunc != nil {
		return f.QueryNamespaceFunc(ctx, namespaceID, status)
	}
	return &api.NamespaceQuery{}, nil
}

func (f *FakeClient) MutateRegistry(ctx context.Context, namespaceID, registryName string, action api.RegistryAction) error {
	f.record("MutateRegistry")
	if f.MutateRegistryFunc != nil {
		return f.MutateRegistryFunc(ctx, namespaceID, registryName, action)
	}
	return nil
}
