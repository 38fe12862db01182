package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"dedi/internal/log"
)

// Me returns the current session, or ErrUnauthenticated when the server
// responds with anything but 200. Transport failures are reported as such
// so the session poller can count them as one attempt like any other.
func (c *Client) Me(ctx context.Context) (*Session, error) {
	env, err := c.do(ctx, http.MethodGet, "/dedi/auth/me", nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	var session Session
	// The session payload may arrive enveloped in data or as the body root.
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &session); err != nil {
			return nil, &APIError{Message: "malformed session payload"}
		}
	}
	if (session.ID == "" || session.Email == "") && len(env.raw) > 0 {
		if err := json.Unmarshal(env.raw, &session); err != nil {
			return nil, &APIError{Message: "malformed session payload"}
		}
	}
	if session.ID == "" || session.Email == "" {
		return nil, ErrUnauthenticated
	}

	log.Debug(log.CatAuth, "Session confirmed", "email", session.Email)
	return &session, nil
}

// registerRequest is the body for the registration endpoint.
type registerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register signs a user up. Success is inferred from the absence of an
// error; the server replies 201 and sends a verification email.
func (c *Client) Register(ctx context.Context, email, name string) error {
	_, err := c.do(ctx, http.MethodPost, "/dedi/auth/register", registerRequest{
		Email: email,
		Name:  name,
	})
	return err
}

// Logout ends the server session. Fire-and-forget: callers clear the local
// session object regardless of the outcome, and failures are only logged.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/dedi/logout", nil)
	if err != nil {
		log.ErrorErr(log.CatAuth, "Logout request failed", err)
	}
	return err
}
