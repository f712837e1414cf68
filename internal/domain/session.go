package domain

import "errors"

var (
	// ErrUnauthenticated is returned when an operation needs a logged-in user but none is loaded.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionExpired is returned when the backend rejected the bearer token (HTTP 401)
	// and the session has been forcibly cleared.
	ErrSessionExpired = errors.New("session expired")
	// ErrStorageUnavailable is returned when the persisted credential storage cannot be used.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Session is the client's authentication state.
// An empty Token means no token; a nil User means no profile.
type Session struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`

	// Loading is set until the initial hydration from persisted storage has completed.
	Loading bool `json:"-"`
}

// IsAuthenticated reports whether the session carries a non-empty token.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Normalize resolves the invalid states of a session:
// a user without a token is dropped, a token without a user resolves to logged out.
func (s Session) Normalize() Session {
	if s.Token == "" || s.User == nil {
		return Session{Loading: s.Loading}
	}

	return s
}

// Clone returns a deep copy so that callers cannot mutate the store's user record.
func (s Session) Clone() Session {
	if s.User != nil {
		user := *s.User
		s.User = &user
	}

	return s
}
