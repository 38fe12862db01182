package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Exact success messages documented by the namespace endpoints.
const (
	msgNamespacesRetrieved = "User namespaces retrieved successfully"
	msgNamespaceCreated    = "Namespace created successfully"
	msgNamespaceUpdated    = "namespace updated"
)

// NamespacesByProfile lists the namespaces the authenticated user owns or
// has been delegated access to.
func (c *Client) NamespacesByProfile(ctx context.Context) ([]Namespace, error) {
	env, err := c.do(ctx, http.MethodGet, "/dedi/profile/namespaces", nil)
	if err != nil {
		return nil, err
	}
	if err := expect(env, msgNamespacesRetrieved); err != nil {
		return nil, err
	}

	var namespaces []Namespace
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &namespaces); err != nil {
			return nil, &APIError{Message: "malformed namespace list"}
		}
	}
	return namespaces, nil
}

// CreateNamespace creates a namespace owned by the authenticated user.
func (c *Client) CreateNamespace(ctx context.Context, req CreateNamespaceRequest) (*Namespace, error) {
	env, err := c.do(ctx, http.MethodPost, "/dedi/namespace", req)
	if err != nil {
		return nil, err
	}
	if err := expect(env, msgNamespaceCreated); err != nil {
		return nil, err
	}

	var ns Namespace
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &ns); err != nil {
			return nil, &APIError{Message: "malformed namespace payload"}
		}
	}
	return &ns, nil
}

// UpdateNamespace updates name/description/meta of an existing namespace.
func (c *Client) UpdateNamespace(ctx context.Context, namespaceID string, req UpdateNamespaceRequest) error {
	env, err := c.do(ctx, http.MethodPut, "/dedi/namespace/"+url.PathEscape(namespaceID), req)
	if err != nil {
		return err
	}
	return expect(env, msgNamespaceUpdated)
}

// dnsTxtResponse is the generate-dns-txt payload.
type dnsTxtResponse struct {
	Txt     string `json:"txt"`
	Message string `json:"message"`
}

// GenerateDNSTxt asks the server for the TXT record value the user must
// publish under domain to prove ownership of the namespace.
func (c *Client) GenerateDNSTxt(ctx context.Context, namespaceID, domain string) (string, error) {
	path := "/dedi/generate-dns-txt/" + url.PathEscape(namespaceID) + "/" + url.PathEscape(domain)
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}

	// This endpoint replies {txt, message} at the body root. Prefer an
	// enveloped data payload when present, then fall back to the root.
	var payload dnsTxtResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return "", &APIError{Message: "malformed dns-txt payload"}
		}
	}
	if payload.Txt == "" && len(env.raw) > 0 {
		if err := json.Unmarshal(env.raw, &payload); err != nil {
			return "", &APIError{Message: "malformed dns-txt payload"}
		}
	}
	if payload.Txt == "" {
		return "", &APIError{Message: "server returned no TXT value"}
	}
	return payload.Txt, nil
}

// verifyDomainRequest is the body for the verify-domain endpoint.
type verifyDomainRequest struct {
	NamespaceID string `json:"namespace_id"`
}

// VerifyDomain asks the server to check the published TXT record. A 200
// response means verified; any other status is a failure.
func (c *Client) VerifyDomain(ctx context.Context, namespaceID string) error {
	_, err := c.do(ctx, http.MethodPost, "/dedi/verify-domain", verifyDomainRequest{
		NamespaceID: namespaceID,
	})
	return err
}
