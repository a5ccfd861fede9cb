package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/secondbrain/internal/shared"
)

func newAuthServer(t *testing.T, h http.HandlerFunc) *SupabaseAuth {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	auth, err := NewSupabaseAuth(srv.URL, "anon", srv.Client())
	require.NoError(t, err)
	return auth
}

func TestSupabaseAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Credentials", func(t *testing.T) {
		_, err := NewSupabaseAuth("", "anon", nil)
		assert.ErrorIs(t, err, shared.ErrMissingCredentials)
	})

	t.Run("SignInWithPassword", func(t *testing.T) {
		auth := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/token", r.URL.Path)
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "anon", r.Header.Get("apikey"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
			w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"expires_at":1700000000,"user":{"id":"u1","email":"a@b.co"}}`))
		})

		session, err := auth.SignInWithPassword(ctx, "a@b.co", "secret")
		require.NoError(t, err)
		assert.Equal(t, "at", session.AccessToken)
		assert.Equal(t, "u1", session.User.ID)
		assert.Equal(t, int64(1700000000), session.Expiry().Unix())

		_, err = auth.SignInWithPassword(ctx, "a@b.co", "wrong")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
		assert.EqualError(t, err, "Invalid login credentials")
	})

	t.Run("SignUp", func(t *testing.T) {
		t.Run("Auto Confirmed", func(t *testing.T) {
			auth := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Data map[string]any `json:"data"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "jdoe", body.Data["username"])
				w.Write([]byte(`{"access_token":"at","user":{"id":"u1","email":"a@b.co"}}`))
			})

			session, user, err := auth.SignUp(ctx, "a@b.co", "pw", map[string]any{"username": "jdoe"})
			require.NoError(t, err)
			require.NotNil(t, session)
			assert.Equal(t, "u1", user.ID)
		})

		t.Run("Confirmation Pending", func(t *testing.T) {
			auth := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id":"u2","email":"a@b.co"}`))
			})

			session, user, err := auth.SignUp(ctx, "a@b.co", "pw", nil)
			require.NoError(t, err)
			assert.Nil(t, session)
			assert.Equal(t, "u2", user.ID)
		})

		t.Run("Already Registered", func(t *testing.T) {
			auth := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
			})

			_, _, err := auth.SignUp(ctx, "a@b.co", "pw", nil)
			assert.ErrorIs(t, err, shared.ErrAccountExists)
			assert.True(t, IsAuthError(err, "user_already_exists"))
		})
	})

	t.Run("GetUser", func(t *testing.T) {
		auth := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer good" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"msg":"invalid JWT"}`))
				return
			}
			w.Write([]byte(`{"id":"u1","email":"a@b.co"}`))
		})

		user, err := auth.GetUser(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, "a@b.co", user.Email)

		_, err = auth.GetUser(ctx, "bad")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)

		_, err = auth.GetUser(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("RefreshSession", func(t *testing.T) {
		auth := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := auth.RefreshSession(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNoRefreshToken)

		_, err = auth.RefreshSession(ctx, "rt")
		assert.ErrorIs(t, err, shared.ErrRefreshFailed)
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("SignOut Session Not Found", func(t *testing.T) {
		auth := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/logout", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error_code":"session_not_found","msg":"Session from session_id claim in JWT does not exist"}`))
		})

		err := auth.SignOut(ctx, "at")
		assert.True(t, errors.Is(err, shared.ErrSessionNotFound))
	})
}

func TestParseAuthError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		want    error
	}{
		{"Message Field", 400, `{"message":"boom"}`, "boom", shared.ErrAuthFailed},
		{"Error Description", 400, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "Invalid login credentials", shared.ErrInvalidCredentials},
		{"Forbidden", 403, `{}`, "auth request failed with status 403", shared.ErrNotAuthenticated},
		{"Unparseable", 502, `<html>`, "auth request failed with status 502", shared.ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseAuthError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.message, err.Error())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
