// Package sessionsvc owns the client's authentication state: the in-memory
// session, its persisted credential record and the transitions between them.
package sessionsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/infra/logging"
	"github.com/mkrupp/underwritepro/internal/svc/router"
)

// ErrInvalidAuthResponse is returned when login or registration succeeded on the
// wire but the body lacks a token or user.
var ErrInvalidAuthResponse = errors.New("invalid auth response")

// Authenticator exchanges credentials for a token and user profile.
type Authenticator interface {
	Login(ctx context.Context, credentials domain.Credentials) (*domain.AuthTokenResponse, error)
	Register(ctx context.Context, registration domain.Registration) (*domain.AuthTokenResponse, error)
}

// Navigator carries out navigation commands.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// SessionStore holds the current session in memory and is the only writer of the
// persisted credential record. The authenticated flag is always derived from the
// token; no operation sets it.
type SessionStore struct {
	creds *CredentialStore
	auth  Authenticator
	nav   Navigator
	log   logging.Logger

	hydrate sync.Once

	m           sync.RWMutex
	session     domain.Session
	version     uint64
	subscribers map[int]func(domain.Session)
	nextSubID   int

	notifyMu  sync.Mutex
	delivered uint64
}

// NewSessionStore creates a store in the loading state. Hydrate must be called once
// before the session is used. nav may be nil and bound later with BindNavigator.
func NewSessionStore(creds *CredentialStore, auth Authenticator, nav Navigator) *SessionStore {
	return &SessionStore{
		creds:       creds,
		auth:        auth,
		nav:         nav,
		log:         logging.GetLogger("svc.sessionsvc.session_store"),
		session:     domain.Session{Loading: true},
		subscribers: make(map[int]func(domain.Session)),
	}
}

// Hydrate loads the persisted record into memory. Only the first call has an effect.
// A storage failure leaves the session logged out and is logged, not returned.
func (s *SessionStore) Hydrate(ctx context.Context) {
	s.hydrate.Do(func() {
		loaded, err := s.creds.Load(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "credential load failed", logging.Err(err))
		}

		loaded.Loading = false

		s.set(loaded)

		s.log.DebugContext(ctx, "session hydrated", "authenticated", loaded.IsAuthenticated())
	})
}

// Login authenticates with email and password. On failure the session is unchanged.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := s.auth.Login(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	user, err := s.establish(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return user, nil
}

// Register creates an account and logs it in. On failure the session is unchanged.
func (s *SessionStore) Register(ctx context.Context, registration domain.Registration) (*domain.User, error) {
	resp, err := s.auth.Register(ctx, registration)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.establish(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return user, nil
}

// Logout clears the session and its persisted record. It cannot fail and may be
// called any number of times.
func (s *SessionStore) Logout(ctx context.Context) {
	s.clear(ctx)

	s.log.DebugContext(ctx, "logged out")
}

// HandleUnauthorized is the forced logout after the backend rejected the token:
// the session is cleared and one navigation to the login page is issued.
func (s *SessionStore) HandleUnauthorized(ctx context.Context) {
	s.clear(ctx)

	s.log.WarnContext(ctx, "session expired, redirecting to login")

	s.m.RLock()
	nav := s.nav
	s.m.RUnlock()

	if nav != nil {
		nav.Navigate(ctx, router.LoginRoute)
	}
}

// BindNavigator replaces the navigator. The router reads the session through the
// store, so one of the two is bound after both exist.
func (s *SessionStore) BindNavigator(nav Navigator) {
	s.m.Lock()
	defer s.m.Unlock()

	s.nav = nav
}

// UpdateUser shallow-merges patch into the current user and persists the result.
// Returns domain.ErrUnauthenticated when no user is loaded.
func (s *SessionStore) UpdateUser(ctx context.Context, patch domain.UserPatch) (*domain.User, error) {
	s.m.Lock()

	if s.session.User == nil || !s.session.IsAuthenticated() {
		s.m.Unlock()

		return nil, fmt.Errorf("update user: %w", domain.ErrUnauthenticated)
	}

	merged := s.session.User.Merge(patch)

	if err := s.creds.SaveUser(ctx, merged); err != nil {
		s.log.WarnContext(ctx, "persisting user failed", logging.Err(err))
	}

	s.session.User = &merged
	snapshot := s.session.Clone()
	s.unlockAndNotify(snapshot)

	user := merged

	return &user, nil
}

// Token returns the current bearer token, empty when logged out.
func (s *SessionStore) Token() string {
	s.m.RLock()
	defer s.m.RUnlock()

	return s.session.Token
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() domain.Session {
	s.m.RLock()
	defer s.m.RUnlock()

	return s.session.Clone()
}

// Subscribe registers fn to be called with a copy of the session after every change.
// Callbacks run one at a time in mutation order and must not change the session.
// The returned function removes the subscription.
func (s *SessionStore) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	s.m.Lock()
	defer s.m.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.m.Lock()
		defer s.m.Unlock()

		delete(s.subscribers, id)
	}
}

// establish applies a successful authentication. Concurrent calls apply in the
// order they complete.
func (s *SessionStore) establish(ctx context.Context, resp *domain.AuthTokenResponse) (*domain.User, error) {
	if resp == nil || resp.AccessToken == "" || resp.User == nil {
		return nil, ErrInvalidAuthResponse
	}

	user := *resp.User

	s.m.Lock()

	if err := s.creds.Save(ctx, resp.AccessToken, user); err != nil {
		s.log.WarnContext(ctx, "persisting credentials failed", logging.Err(err))
	}

	s.session = domain.Session{Token: resp.AccessToken, User: &user}
	snapshot := s.session.Clone()
	s.unlockAndNotify(snapshot)

	if info, err := domain.ParseTokenInfo(resp.AccessToken); err == nil {
		s.log.DebugContext(ctx, "session established", "subject", info.Subject, "expiresAt", info.ExpiresAt)
	}

	result := user

	return &result, nil
}

func (s *SessionStore) clear(ctx context.Context) {
	s.m.Lock()

	if err := s.creds.Clear(ctx); err != nil {
		s.log.WarnContext(ctx, "clearing credentials failed", logging.Err(err))
	}

	s.session = domain.Session{}
	snapshot := s.session.Clone()
	s.unlockAndNotify(snapshot)
}

func (s *SessionStore) set(session domain.Session) {
	s.m.Lock()
	s.session = session
	snapshot := s.session.Clone()
	s.unlockAndNotify(snapshot)
}

// unlockAndNotify releases s.m, which the caller holds, and delivers snapshot.
// Each mutation is numbered under s.m; a delivery older than the last one sent
// is dropped, so subscribers never see an overtaken session.
func (s *SessionStore) unlockAndNotify(snapshot domain.Session) {
	s.version++
	version := s.version

	subscribers := make([]func(domain.Session), 0, len(s.subscribers))

	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}

	s.m.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if version <= s.delivered {
		return
	}

	s.delivered = version

	for _, fn := range subscribers {
		fn(snapshot.Clone())
	}
}
