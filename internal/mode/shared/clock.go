package shared

import "time"

// Clock provides the current time. Use RealClock in production and
// MockClock in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// MockClock returns a fixed time.
type MockClock struct {
	Time time.Time
}

// Now returns the configured time.
func (c MockClock) Now() time.Time { return c.Time }
