// Package session holds the process-wide authenticated-user state and the
// post-verification session poller. The session object is written only by
// the login/logout/registration flows and read everywhere else.
package session

import (
	"sync"

	"dedi/internal/api"
	"dedi/internal/log"
)

// Context is the explicitly-scoped holder for the current session.
// It is injected into mode controllers instead of being accessed as
// ambient global state.
type Context struct {
	mu      sync.RWMutex
	current *api.Session
}

// NewContext creates an unauthenticated session context.
func NewContext() *Context {
	return &Context{}
}

// Set records a confirmed session.
func (c *Context) Set(s *api.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
	if s != nil {
		log.Info(log.CatAuth, "Session established", "email", s.Email)
	}
}

// Clear drops the session. Called on logout regardless of whether the
// server acknowledged it.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	log.Info(log.CatAuth, "Session cleared")
}

// Current returns the session and whether one exists.
func (c *Context) Current() (*api.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.current != nil
}

// Authenticated reports whether a session is held.
func (c *Context) Authenticated() bool {
	_, ok := c.Current()
	return ok
}
