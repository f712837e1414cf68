// Package router maps route paths to guarded pages and carries out navigation
// commands, so that redirects can be issued and observed without a browser.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/infra/logging"
)

// Route paths of the application.
const (
	LandingRoute   = "/"
	LoginRoute     = "/login"
	RegisterRoute  = "/register"
	DashboardRoute = "/dashboard"
	LoansRoute     = "/loans"
	NewLoanRoute   = "/loans/new"
	AIChatRoute    = "/ai-chat"
	ProfileRoute   = "/profile"
)

const maxRedirects = 8

var (
	// ErrSessionLoading is returned by Visit while the session has not been hydrated.
	ErrSessionLoading = errors.New("session loading")
	// ErrRedirectLoop is returned when guards keep redirecting.
	ErrRedirectLoop = errors.New("redirect loop")
)

// SessionReader exposes the live session to the guards.
type SessionReader interface {
	Snapshot() domain.Session
}

// Page renders the content of a route.
type Page interface {
	Render(ctx context.Context) error
}

// PageFunc adapts a function to the Page interface.
type PageFunc func(ctx context.Context) error

// Render implements Page.
func (f PageFunc) Render(ctx context.Context) error {
	return f(ctx)
}

// Route binds a path to its guard and page.
type Route struct {
	Path  string
	Guard Guard
	Page  Page
}

// Router resolves paths through their guards. It also implements the navigation
// command used by the session store: Navigate records the new location, which the
// caller picks up with TakeRedirect.
type Router struct {
	sessions SessionReader
	routes   map[string]Route
	fallback string
	log      logging.Logger

	m        sync.Mutex
	location string
	pending  []string
}

// New creates a Router over the given routes. Unknown paths redirect to the landing route.
func New(sessions SessionReader, routes ...Route) *Router {
	r := &Router{
		sessions: sessions,
		routes:   make(map[string]Route, len(routes)),
		fallback: LandingRoute,
		log:      logging.GetLogger("svc.router"),
		location: LandingRoute,
	}

	for _, route := range routes {
		r.Handle(route.Path, route.Guard, route.Page)
	}

	return r
}

// DefaultRoutes returns the route table of the application without pages: public
// landing, anonymous-only login and registration, everything else behind login.
func DefaultRoutes() []Route {
	return []Route{
		{Path: LandingRoute, Guard: Public},
		{Path: LoginRoute, Guard: RequireAnonymous},
		{Path: RegisterRoute, Guard: RequireAnonymous},
		{Path: DashboardRoute, Guard: RequireAuthenticated},
		{Path: LoansRoute, Guard: RequireAuthenticated},
		{Path: NewLoanRoute, Guard: RequireAuthenticated},
		{Path: AIChatRoute, Guard: RequireAuthenticated},
		{Path: ProfileRoute, Guard: RequireAuthenticated},
	}
}

// Handle registers page at path behind guard. A nil guard means Public.
func (r *Router) Handle(path string, guard Guard, page Page) {
	if guard == nil {
		guard = Public
	}

	r.m.Lock()
	defer r.m.Unlock()

	r.routes[path] = Route{Path: path, Guard: guard, Page: page}
}

// Resolve follows guard redirects from path and returns the route that renders.
// The guards see a fresh session snapshot on every evaluation.
func (r *Router) Resolve(path string) (Route, error) {
	for range maxRedirects {
		route, ok := r.lookup(path)
		if !ok {
			if path == r.fallback {
				return Route{}, fmt.Errorf("no route for %q", path)
			}

			path = r.fallback

			continue
		}

		decision := route.Guard.Evaluate(r.sessions.Snapshot())

		switch decision.Outcome {
		case Render:
			return route, nil
		case Pending:
			return route, ErrSessionLoading
		case Redirect:
			r.log.Debug("guard redirect", "from", path, "to", decision.Location)
			path = decision.Location
		}
	}

	return Route{}, fmt.Errorf("%w: %q", ErrRedirectLoop, path)
}

// Visit resolves path and renders the resulting page.
func (r *Router) Visit(ctx context.Context, path string) error {
	route, err := r.Resolve(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	r.m.Lock()
	r.location = route.Path
	r.m.Unlock()

	if route.Page == nil {
		return nil
	}

	if err := route.Page.Render(ctx); err != nil {
		return fmt.Errorf("render %s: %w", route.Path, err)
	}

	return nil
}

// Navigate implements the session store's navigation command. It records path as
// the new location and queues it for the caller to act on.
func (r *Router) Navigate(ctx context.Context, path string) {
	r.m.Lock()
	defer r.m.Unlock()

	r.location = path
	r.pending = append(r.pending, path)

	r.log.DebugContext(ctx, "navigate", "to", path)
}

// Location returns the current location.
func (r *Router) Location() string {
	r.m.Lock()
	defer r.m.Unlock()

	return r.location
}

// TakeRedirect returns and clears the most recent queued navigation, if any.
func (r *Router) TakeRedirect() (string, bool) {
	r.m.Lock()
	defer r.m.Unlock()

	if len(r.pending) == 0 {
		return "", false
	}

	path := r.pending[len(r.pending)-1]
	r.pending = nil

	return path, true
}

// Redirects returns how many navigation commands are queued.
func (r *Router) Redirects() int {
	r.m.Lock()
	defer r.m.Unlock()

	return len(r.pending)
}

func (r *Router) lookup(path string) (Route, bool) {
	r.m.Lock()
	defer r.m.Unlock()

	route, ok := r.routes[path]

	return route, ok
}
