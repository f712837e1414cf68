package sessionsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/infra/logging"
	"github.com/mkrupp/underwritepro/internal/repo/storage"
)

// Storage keys of the persisted credential record.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// CredentialStore persists the session token and user profile in a Storage.
// Only the SessionStore writes through it.
type CredentialStore struct {
	storage storage.Storage
	log     logging.Logger
}

// NewCredentialStore creates a CredentialStore backed by s.
func NewCredentialStore(s storage.Storage) *CredentialStore {
	return &CredentialStore{
		storage: s,
		log:     logging.GetLogger("svc.sessionsvc.credential_store"),
	}
}

// Load reads the persisted record. A user value that does not parse is treated
// as absent; a token without a user is removed and yields a logged-out session.
// Storage errors are wrapped in domain.ErrStorageUnavailable together with an
// empty session.
func (cs *CredentialStore) Load(ctx context.Context) (domain.Session, error) {
	token, _, err := cs.storage.GetItem(ctx, TokenKey)
	if err != nil {
		return domain.Session{}, errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("get token: %w", err))
	}

	rawUser, hasUser, err := cs.storage.GetItem(ctx, UserKey)
	if err != nil {
		return domain.Session{}, errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("get user: %w", err))
	}

	var user *domain.User

	if hasUser {
		user, err = decodeUser(rawUser)
		if err != nil {
			cs.log.WarnContext(ctx, "ignoring unreadable user record", logging.Err(err))
		}
	}

	session := domain.Session{Token: token, User: user}.Normalize()

	if session.Token == "" && (token != "" || hasUser) {
		cs.log.WarnContext(ctx, "discarding incomplete credential record",
			"hasToken", token != "",
			"hasUser", user != nil,
		)

		if err := cs.Clear(ctx); err != nil {
			return session, err
		}
	}

	return session, nil
}

// Save writes both keys. If the token cannot be written the previous user value is
// restored, so a failed save never leaves a new user next to an old token.
func (cs *CredentialStore) Save(ctx context.Context, token string, user domain.User) error {
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	previous, hadPrevious, err := cs.storage.GetItem(ctx, UserKey)
	if err != nil {
		return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("get user: %w", err))
	}

	if err := cs.storage.SetItem(ctx, UserKey, string(encoded)); err != nil {
		return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("set user: %w", err))
	}

	if err := cs.storage.SetItem(ctx, TokenKey, token); err != nil {
		var rollbackErr error
		if hadPrevious {
			rollbackErr = cs.storage.SetItem(ctx, UserKey, previous)
		} else {
			rollbackErr = cs.storage.RemoveItem(ctx, UserKey)
		}

		if rollbackErr != nil {
			cs.log.ErrorContext(ctx, "user rollback failed", logging.Err(rollbackErr))
		}

		return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("set token: %w", err))
	}

	return nil
}

// SaveUser rewrites only the user record.
func (cs *CredentialStore) SaveUser(ctx context.Context, user domain.User) error {
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	if err := cs.storage.SetItem(ctx, UserKey, string(encoded)); err != nil {
		return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("set user: %w", err))
	}

	return nil
}

// Clear removes both keys. Both removals are attempted even if the first fails.
func (cs *CredentialStore) Clear(ctx context.Context) error {
	tokenErr := cs.storage.RemoveItem(ctx, TokenKey)
	userErr := cs.storage.RemoveItem(ctx, UserKey)

	if err := errors.Join(tokenErr, userErr); err != nil {
		return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("remove items: %w", err))
	}

	return nil
}

func decodeUser(raw string) (*domain.User, error) {
	if raw == "" || raw == "null" {
		return nil, nil //nolint:nilnil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}

	return &user, nil
}
