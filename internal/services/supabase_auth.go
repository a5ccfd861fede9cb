package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/secondbrain/internal/shared"
)

// SupabaseAuth talks to the GoTrue endpoints under /auth/v1.
type SupabaseAuth struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

var _ Authenticator = (*SupabaseAuth)(nil)

// NewSupabaseAuth creates an auth client for the project at projectURL.
func NewSupabaseAuth(projectURL, anonKey string, client *http.Client) (*SupabaseAuth, error) {
	if projectURL == "" || anonKey == "" {
		return nil, fmt.Errorf("%w: supabase url and anon_key", shared.ErrMissingCredentials)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SupabaseAuth{
		baseURL:    strings.TrimRight(projectURL, "/") + "/auth/v1",
		anonKey:    anonKey,
		httpClient: client,
	}, nil
}

// signUpResponse covers both shapes: a session when auto-confirm is on, a bare user otherwise.
type signUpResponse struct {
	Session
	User
}

// SignUp registers email with user metadata.
func (a *SupabaseAuth) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, *User, error) {
	body := map[string]any{"email": email, "password": password, "data": metadata}

	var resp signUpResponse
	if err := a.do(ctx, http.MethodPost, "/signup", "", body, &resp); err != nil {
		return nil, nil, err
	}

	if resp.AccessToken != "" {
		session := resp.Session
		return &session, session.User, nil
	}
	if resp.User.ID != "" {
		user := resp.User
		return nil, &user, nil
	}
	return nil, nil, nil
}

// SignInWithPassword exchanges credentials for a session.
func (a *SupabaseAuth) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshSession exchanges a refresh token for a new session.
func (a *SupabaseAuth) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	var session Session
	body := map[string]string{"refresh_token": refreshToken}
	if err := a.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &session); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	return &session, nil
}

// GetUser returns the user owning accessToken.
func (a *SupabaseAuth) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var user User
	if err := a.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session behind accessToken.
func (a *SupabaseAuth) SignOut(ctx context.Context, accessToken string) error {
	return a.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (a *SupabaseAuth) do(ctx context.Context, method, path, bearer string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if bearer == "" {
		bearer = a.anonKey
	}
	req.Header.Set("apikey", a.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAuthError(resp.StatusCode, data)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
