package session

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"dedi/internal/api"
	"dedi/internal/log"
)

// Checker is the slice of the API client the poller needs.
type Checker interface {
	Me(ctx context.Context) (*api.Session, error)
}

// Poller confirms a session after the external email-verification redirect.
// It waits InitialDelay, queries the session endpoint, and retries up to
// MaxRetries more times with linearly increasing backoff (attempt *
// RetryUnit). A transport failure and an explicit "not confirmed" response
// each consume one attempt.
//
// Every scheduled tick carries a generation stamp; Cancel bumps the
// generation so ticks issued before cancellation are discarded instead of
// navigating a dismissed view.
type Poller struct {
	checker Checker
	gen     int

	InitialDelay time.Duration // Delay before the first check
	ConfirmDelay time.Duration // Delay between confirmation and navigation
	RetryUnit    time.Duration // Backoff unit; attempt n waits n*RetryUnit
	MaxRetries   int           // Retries after the first attempt
}

// NewPoller creates a poller with the production timings: 2s initial delay,
// 1s confirm delay, 2s backoff unit, 2 retries (3 attempts total).
func NewPoller(checker Checker) *Poller {
	return &Poller{
		checker:      checker,
		InitialDelay: 2 * time.Second,
		ConfirmDelay: 1 * time.Second,
		RetryUnit:    2 * time.Second,
		MaxRetries:   2,
	}
}

// VerifiedMsg is emitted when the session is confirmed and the confirm
// delay has elapsed. The receiving mode navigates to the dashboard.
type VerifiedMsg struct {
	Session *api.Session
}

// FailedMsg is emitted when every attempt has been exhausted. The receiving
// mode navigates to the unauthenticated landing view.
type FailedMsg struct{}

// tickMsg schedules one session check.
type tickMsg struct {
	gen     int
	attempt int
}

// resultMsg carries the outcome of one session check.
type resultMsg struct {
	gen     int
	attempt int
	session *api.Session
}

// verifiedTickMsg fires after the post-confirmation delay.
type verifiedTickMsg struct {
	gen     int
	session *api.Session
}

// Start begins polling. Any previously scheduled ticks become stale.
func (p *Poller) Start() tea.Cmd {
	p.gen++
	gen := p.gen
	log.Debug(log.CatAuth, "Session poll scheduled", "delay", p.InitialDelay)
	return tea.Tick(p.InitialDelay, func(time.Time) tea.Msg {
		return tickMsg{gen: gen, attempt: 1}
	})
}

// Cancel invalidates all outstanding ticks. A fired timer whose generation
// no longer matches is a no-op.
func (p *Poller) Cancel() {
	p.gen++
}

// Active reports whether msg is one of the poller's internal messages.
func (p *Poller) Active(msg tea.Msg) bool {
	switch msg.(type) {
	case tickMsg, resultMsg, verifiedTickMsg:
		return true
	}
	return false
}

// Update advances the poll state machine. Returns the next command, or nil
// when msg is not a poller message or is stale.
func (p *Poller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.gen != p.gen {
			return nil
		}
		return p.check(msg.gen, msg.attempt)

	case resultMsg:
		if msg.gen != p.gen {
			return nil
		}
		if msg.session != nil {
			gen := msg.gen
			session := msg.session
			return tea.Tick(p.ConfirmDelay, func(time.Time) tea.Msg {
				return verifiedTickMsg{gen: gen, session: session}
			})
		}
		if msg.attempt > p.MaxRetries {
			log.Warn(log.CatAuth, "Session poll exhausted", "attempts", msg.attempt)
			return func() tea.Msg { return FailedMsg{} }
		}
		gen := msg.gen
		next := msg.attempt + 1
		delay := p.retryDelay(msg.attempt)
		log.Debug(log.CatAuth, "Session poll retry", "attempt", next, "delay", delay)
		return tea.Tick(delay, func(time.Time) tea.Msg {
			return tickMsg{gen: gen, attempt: next}
		})

	case verifiedTickMsg:
		if msg.gen != p.gen {
			return nil
		}
		session := msg.session
		return func() tea.Msg { return VerifiedMsg{Session: session} }
	}

	return nil
}

// check performs one session query. Failure and "not confirmed" are
// indistinguishable to the retry logic.
func (p *Poller) check(gen, attempt int) tea.Cmd {
	return func() tea.Msg {
		session, err := p.checker.Me(context.Background())
		if err != nil {
			log.Debug(log.CatAuth, "Session check failed", "attempt", attempt, "error", err)
			return resultMsg{gen: gen, attempt: attempt}
		}
		return resultMsg{gen: gen, attempt: attempt, session: session}
	}
}

// retryDelay is the backoff after a failed attempt: attempt * RetryUnit.
func (p *Poller) retryDelay(attempt int) time.Duration {
	return time.Duration(attempt) * p.RetryUnit
}
