package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(Config{})

	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.BaseURL())
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://example.test/"})

	require.NoError(t, err)
	assert.Equal(t, "https://example.test", client.BaseURL())
}

func TestMe_Authenticated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dedi/auth/me", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "ok",
			"data":    map[string]string{"id": "u1", "email": "ada@example.test", "name": "Ada"},
		})
	})

	session, err := client.Me(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "u1", session.ID)
	assert.Equal(t, "ada@example.test", session.Email)
}

func TestMe_RootShapedSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"id":    "u1",
			"email": "ada@example.test",
			"name":  "Ada",
		})
	})

	session, err := client.Me(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "u1", session.ID)
	assert.Equal(t, "ada@example.test", session.Email)
}

func TestMe_Non200IsUnauthenticated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "no session"})
	})

	_, err := client.Me(context.Background())

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestMe_MissingFieldsIsUnauthenticated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "data": map[string]string{}})
	})

	_, err := client.Me(context.Background())

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestMe_TransportErrorIsNotUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	srv.Close() // Connection refused from here on

	_, err = client.Me(context.Background())

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestRegister_SendsEmailAndName(t *testing.T) {
	var got registerRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/dedi/auth/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, map[string]string{"message": "verification email sent"})
	})

	err := client.Register(context.Background(), "ada@example.test", "Ada")

	require.NoError(t, err)
	assert.Equal(t, "ada@example.test", got.Email)
	assert.Equal(t, "Ada", got.Name)
}

func TestRegister_FailureSurfacesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "email already registered"})
	})

	err := client.Register(context.Background(), "ada@example.test", "Ada")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "email already registered", apiErr.UserMessage())
}

func TestLogout_ReturnsErrorButIsLoggable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dedi/logout", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	})

	err := client.Logout(context.Background())

	assert.Error(t, err)
}

func TestNamespacesByProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dedi/profile/namespaces", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "User namespaces retrieved successfully",
			"data": []map[string]any{
				{"namespace_id": "ns1", "name": "Land Records", "registry_count": 3},
				{"namespace_id": "ns2", "name": "Permits"},
			},
		})
	})

	namespaces, err := client.NamespacesByProfile(context.Background())

	require.NoError(t, err)
	require.Len(t, namespaces, 2)
	assert.Equal(t, "Land Records", namespaces[0].Name)
	assert.Equal(t, 3, namespaces[0].RegistryCount)
}

func TestNamespacesByProfile_MessageMismatchFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "something else", "data": []any{}})
	})

	_, err := client.NamespacesByProfile(context.Background())

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestCreateNamespace(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/dedi/namespace", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Namespace created successfully",
			"data":    map[string]string{"namespace_id": "ns9", "name": "New Space"},
		})
	})

	ns, err := client.CreateNamespace(context.Background(), CreateNamespaceRequest{Name: "New Space"})

	require.NoError(t, err)
	assert.Equal(t, "ns9", ns.NamespaceID)
}

func TestUpdateNamespace(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/dedi/namespace/ns1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"message": "namespace updated"})
	})

	err := client.UpdateNamespace(context.Background(), "ns1", UpdateNamespaceRequest{Name: "Renamed"})

	assert.NoError(t, err)
}

func TestQueryNamespace(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dedi/query/ns1", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Resource retrieved successfully",
			"data": map[string]any{
				"namespace_name":   "Land Records",
				"total_registries": 2,
				"registries": []map[string]any{
					{"registry_id": "r1", "registry_name": "Healthcare Registry"},
					{"registry_id": "r2", "registry_name": "Finance Registry", "is_revoked": true},
				},
			},
		})
	})

	query, err := client.QueryNamespace(context.Background(), "ns1", StatusAll)

	require.NoError(t, err)
	assert.Equal(t, "Land Records", query.NamespaceName)
	assert.Equal(t, 2, query.TotalRegistries)
	require.Len(t, query.Registries, 2)
	assert.True(t, query.Registries[1].Revoked)
}

func TestQueryNamespace_StatusFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "revoked", r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Resource retrieved successfully",
			"data":    map[string]any{"namespace_name": "Land Records"},
		})
	})

	_, err := client.QueryNamespace(context.Background(), "ns1", StatusRevoked)

	assert.NoError(t, err)
}

func TestMutateRegistry_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/dedi/ns1/foo/archive-registry", r.URL.Path)

		// Empty JSON body, not an empty request body.
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, body)

		writeJSON(w, http.StatusOK, map[string]string{"message": "Registry has been archived"})
	})

	err := client.MutateRegistry(context.Background(), "ns1", "foo", ActionArchive)

	assert.NoError(t, err)
}

func TestMutateRegistry_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
	})

	err := client.MutateRegistry(context.Background(), "ns1", "foo", ActionArchive)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestMutateRegistry_MessageMismatchIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Registry has been restored"})
	})

	err := client.MutateRegistry(context.Background(), "ns1", "foo", ActionArchive)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestRegistryAction_Messages(t *testing.T) {
	tests := []struct {
		action  RegistryAction
		label   string
		message string
	}{
		{ActionArchive, "archive", "Registry has been archived"},
		{ActionRestore, "restore", "Registry has been restored"},
		{ActionRevoke, "revoke", "Registry has been revoked"},
		{ActionReinstate, "reinstate", "Registry has been reinstated"},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.label, tt.action.Label())
			assert.Equal(t, tt.message, tt.action.SuccessMessage())
		})
	}
}

func TestGenerateDNSTxt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dedi/generate-dns-txt/ns1/example.org", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "TXT generated",
			"data":    map[string]string{"txt": "dedi-verify=abc123"},
		})
	})

	txt, err := client.GenerateDNSTxt(context.Background(), "ns1", "example.org")

	require.NoError(t, err)
	assert.Equal(t, "dedi-verify=abc123", txt)
}

func TestGenerateDNSTxt_RootShapedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"txt":     "dedi-verify=abc123",
			"message": "TXT generated",
		})
	})

	txt, err := client.GenerateDNSTxt(context.Background(), "ns1", "example.org")

	require.NoError(t, err)
	assert.Equal(t, "dedi-verify=abc123", txt)
}

func TestGenerateDNSTxt_EmptyTxtFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "TXT generated", "data": map[string]string{}})
	})

	_, err := client.GenerateDNSTxt(context.Background(), "ns1", "example.org")

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestVerifyDomain(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body verifyDomainRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ns1", body.NamespaceID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "domain verified"})
	})

	assert.NoError(t, client.VerifyDomain(context.Background(), "ns1"))
}

func TestVerifyDomain_Non200Fails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "TXT record not found"})
	})

	err := client.VerifyDomain(context.Background(), "ns1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "TXT record not found", apiErr.UserMessage())
}

func TestAPIError_UserMessageFallback(t *testing.T) {
	err := &APIError{Status: 500}

	assert.Equal(t, "The request could not be completed", err.UserMessage())
}

func TestCookiesPersistAcrossRequests(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]string{"message": "verification email sent"})
			return
		}
		cookie, err := r.Cookie("session")
		require.NoError(t, err)
		assert.Equal(t, "tok", cookie.Value)
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "User namespaces retrieved successfully",
			"data":    []any{},
		})
	})

	require.NoError(t, client.Register(context.Background(), "a@b.test", "A"))
	_, err := client.NamespacesByProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestErrorsUnwrap(t *testing.T) {
	inner := errors.New("refused")
	err := &TransportError{Op: "GET /x", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "GET /x")
}
