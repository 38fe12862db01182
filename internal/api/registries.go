package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// msgResourceRetrieved is the exact success message for namespace queries.
const msgResourceRetrieved = "Resource retrieved successfully"

// QueryNamespace fetches the registries of one namespace, optionally
// filtered server-side by status. The caller trusts the filter: no
// client-side revocation predicate is applied on top of the result.
func (c *Client) QueryNamespace(ctx context.Context, namespaceID string, status RegistryStatus) (*NamespaceQuery, error) {
	path := "/dedi/query/" + url.PathEscape(namespaceID)
	if status != StatusAll {
		path += "?status=" + url.QueryEscape(string(status))
	}

	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := expect(env, msgResourceRetrieved); err != nil {
		return nil, err
	}

	var query NamespaceQuery
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &query); err != nil {
			return nil, &APIError{Message: "malformed registry query payload"}
		}
	}
	return &query, nil
}

// MutateRegistry performs a state-changing registry action (archive,
// restore, revoke, reinstate) with an empty JSON body. Success is
// recognized only by the action's exact documented message; anything else
// is an application-level failure and the caller must not touch its list
// state.
func (c *Client) MutateRegistry(ctx context.Context, namespaceID, registryName string, action RegistryAction) error {
	path := "/dedi/" + url.PathEscape(namespaceID) + "/" + url.PathEscape(registryName) + "/" + string(action)
	env, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	return expect(env, action.SuccessMessage())
}
