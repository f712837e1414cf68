package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoAuthToken is returned when a token is required but none is present.
var ErrNoAuthToken = errors.New("no auth token")

// Credentials is the payload of POST /api/auth/login.
type Credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the payload of POST /api/auth/register.
type Registration struct {
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=8"`
	FullName    string `json:"full_name"    validate:"required"`
	CompanyName string `json:"company_name"`
}

// AuthTokenResponse is the body returned by login and registration.
type AuthTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user"`
}

// TokenInfo holds the registered claims of a bearer token, read without verification.
// Only the backend can verify the signature; the client uses these for display.
type TokenInfo struct {
	Subject   string    `json:"subject,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token has an expiry before now.
func (ti TokenInfo) Expired(now time.Time) bool {
	return !ti.ExpiresAt.IsZero() && now.After(ti.ExpiresAt)
}

// ParseTokenInfo decodes the claims of an opaque bearer token.
// Tokens that are not JWTs yield an error; callers treat that as "no information".
func ParseTokenInfo(token string) (TokenInfo, error) {
	if token == "" {
		return TokenInfo{}, ErrNoAuthToken
	}

	var claims jwt.RegisteredClaims

	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parse unverified: %w", err)
	}

	var info TokenInfo

	info.Subject = claims.Subject

	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}

	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}

	return info, nil
}
