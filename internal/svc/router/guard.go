package router

import "github.com/mkrupp/underwritepro/internal/domain"

// Outcome is the result of evaluating a Guard.
type Outcome int

const (
	// Render means the wrapped page may be rendered.
	Render Outcome = iota
	// Redirect means navigation must continue at Decision.Location.
	Redirect
	// Pending means the session is still hydrating and nothing may be rendered yet.
	Pending
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Decision is what a Guard decided for one evaluation.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Guard decides whether a page may be rendered for the given session.
type Guard interface {
	Evaluate(session domain.Session) Decision
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func(session domain.Session) Decision

// Evaluate implements Guard.
func (f GuardFunc) Evaluate(session domain.Session) Decision {
	return f(session)
}

//nolint:gochecknoglobals
var (
	// Public renders regardless of the session.
	Public Guard = GuardFunc(func(domain.Session) Decision {
		return Decision{Outcome: Render}
	})

	// RequireAuthenticated renders only for an authenticated session and sends
	// everyone else to the login page. The attempted location is not remembered.
	RequireAuthenticated Guard = GuardFunc(func(session domain.Session) Decision {
		return requireAuthenticated(session, true, LoginRoute)
	})

	// RequireAnonymous renders only when nobody is logged in and sends an
	// authenticated session to the dashboard.
	RequireAnonymous Guard = GuardFunc(func(session domain.Session) Decision {
		return requireAuthenticated(session, false, DashboardRoute)
	})
)

func requireAuthenticated(session domain.Session, want bool, otherwise string) Decision {
	if session.Loading {
		return Decision{Outcome: Pending}
	}

	if session.IsAuthenticated() == want {
		return Decision{Outcome: Render}
	}

	return Decision{Outcome: Redirect, Location: otherwise}
}
