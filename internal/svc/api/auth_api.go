package api

import (
	"context"
	"fmt"

	"github.com/mkrupp/underwritepro/internal/domain"
	context_ "github.com/mkrupp/underwritepro/internal/infra/context"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
)

// AuthAPI exchanges credentials for a token. Its requests are anonymous: they carry
// no bearer token and a 401 is reported as a failed login, not an expired session.
type AuthAPI struct {
	doer Doer
}

// NewAuthAPI creates an AuthAPI.
func NewAuthAPI(doer Doer) *AuthAPI {
	return &AuthAPI{doer: doer}
}

// Login calls POST /api/auth/login.
func (a *AuthAPI) Login(ctx context.Context, credentials domain.Credentials) (*domain.AuthTokenResponse, error) {
	if err := Validate(credentials); err != nil {
		return nil, err
	}

	var resp domain.AuthTokenResponse

	if err := post(context_.WithAnonymous(ctx), a.doer, loginPath, credentials, &resp); err != nil {
		return nil, fmt.Errorf("post login: %w", err)
	}

	return &resp, nil
}

// Register calls POST /api/auth/register.
func (a *AuthAPI) Register(ctx context.Context, registration domain.Registration) (*domain.AuthTokenResponse, error) {
	if err := Validate(registration); err != nil {
		return nil, err
	}

	var resp domain.AuthTokenResponse

	if err := post(context_.WithAnonymous(ctx), a.doer, registerPath, registration, &resp); err != nil {
		return nil, fmt.Errorf("post register: %w", err)
	}

	return &resp, nil
}
