package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/secondbrain/internal/shared"
)

// Authenticator is the hosted auth surface used by the session manager.
type Authenticator interface {
	// SignUp creates an account. The returned session is nil when email confirmation is pending.
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, *User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// GetUser validates an access token and returns its user.
	GetUser(ctx context.Context, accessToken string) (*User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// User is an account as returned by the auth service.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
}

// Session is a bearer token pair with its expiry.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	// ExpiresAt is seconds since the Unix epoch.
	ExpiresAt int64 `json:"expires_at"`
	User      *User `json:"user,omitempty"`
}

// Expiry returns ExpiresAt as a time, falling back to ExpiresIn from now.
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if s.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// AuthError is an error body returned by the auth service.
type AuthError struct {
	Status  int    `json:"-"`
	Code    string `json:"error_code"`
	Message string `json:"msg"`
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("auth request failed with status %d", e.Status)
}

// Unwrap maps well-known messages onto shared sentinels.
func (e *AuthError) Unwrap() error {
	msg := strings.ToLower(e.Message)
	switch {
	case e.Code == "session_not_found" || strings.Contains(msg, "session_not_found"):
		return shared.ErrSessionNotFound
	case e.Code == "invalid_credentials" || strings.Contains(msg, "invalid login credentials"):
		return shared.ErrInvalidCredentials
	case e.Code == "user_already_exists" || strings.Contains(msg, "already registered"):
		return shared.ErrAccountExists
	case e.Status == 401 || e.Status == 403:
		return shared.ErrNotAuthenticated
	case e.Status >= 500:
		return shared.ErrServiceUnavailable
	}
	return shared.ErrAuthFailed
}

// parseAuthError accepts the several error shapes the auth service emits.
func parseAuthError(status int, body []byte) *AuthError {
	var raw struct {
		Code             string `json:"error_code"`
		ErrorField       string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(body, &raw)

	ae := &AuthError{Status: status, Code: raw.Code}
	for _, m := range []string{raw.Msg, raw.Message, raw.ErrorDescription, raw.ErrorField} {
		if m != "" {
			ae.Message = m
			break
		}
	}
	if ae.Code == "" && raw.ErrorField != "" && raw.ErrorField != ae.Message {
		ae.Code = raw.ErrorField
	}
	return ae
}

// IsAuthError reports whether err carries an [AuthError] with the given code.
func IsAuthError(err error, code string) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Code == code
}
