package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// SessionTokenSource is an [oauth2.TokenSource] that refreshes an auth session with its refresh token.
//
// The latest session is kept so callers can persist rotated refresh tokens.
type SessionTokenSource struct {
	ctx  context.Context
	auth Authenticator

	mu      sync.Mutex
	session *Session
}

// NewSessionTokenSource starts from session and refreshes through auth.
func NewSessionTokenSource(ctx context.Context, auth Authenticator, session *Session) *SessionTokenSource {
	return &SessionTokenSource{ctx: ctx, auth: auth, session: session}
}

// Token refreshes the session. Wrap with [oauth2.ReuseTokenSource] to only refresh on expiry.
func (s *SessionTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.auth.RefreshSession(s.ctx, s.session.RefreshToken)
	if err != nil {
		return nil, err
	}
	if next.User == nil {
		next.User = s.session.User
	}
	s.session = next
	return SessionToken(next), nil
}

// Session returns the most recent session.
func (s *SessionTokenSource) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SessionToken converts a session into an [oauth2.Token].
func SessionToken(s *Session) *oauth2.Token {
	tokenType := s.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    tokenType,
		Expiry:       s.Expiry(),
	}
}

// NewSessionClient returns an HTTP client that authorizes as the session's user and refreshes
// the access token once it expires.
func NewSessionClient(ctx context.Context, auth Authenticator, session *Session) (*http.Client, *SessionTokenSource, error) {
	if session == nil || session.AccessToken == "" {
		return nil, nil, fmt.Errorf("session client: missing access token")
	}
	src := NewSessionTokenSource(ctx, auth, session)
	reuse := oauth2.ReuseTokenSource(SessionToken(session), src)
	return oauth2.NewClient(ctx, reuse), src, nil
}
