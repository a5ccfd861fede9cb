package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/secondbrain/internal/shared"
)

// refreshOnlyAuth implements the refresh path and fails everything else.
type refreshOnlyAuth struct {
	Authenticator
	refreshes int
}

func (a *refreshOnlyAuth) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}
	a.refreshes++
	return &Session{
		AccessToken:  "fresh",
		RefreshToken: refreshToken + "-next",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}, nil
}

func TestSessionClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Token", func(t *testing.T) {
		_, _, err := NewSessionClient(ctx, &refreshOnlyAuth{}, &Session{})
		assert.Error(t, err)
	})

	t.Run("Valid Token Is Reused", func(t *testing.T) {
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
		}))
		defer srv.Close()

		a := &refreshOnlyAuth{}
		session := &Session{AccessToken: "current", RefreshToken: "rt", ExpiresAt: time.Now().Add(time.Hour).Unix()}
		client, _, err := NewSessionClient(ctx, a, session)
		require.NoError(t, err)

		_, err = client.Get(srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Bearer current", auth)
		assert.Zero(t, a.refreshes)
	})

	t.Run("Expired Token Is Refreshed", func(t *testing.T) {
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
		}))
		defer srv.Close()

		a := &refreshOnlyAuth{}
		user := &User{ID: "u1"}
		session := &Session{AccessToken: "stale", RefreshToken: "rt", ExpiresAt: time.Now().Add(-time.Minute).Unix(), User: user}
		client, src, err := NewSessionClient(ctx, a, session)
		require.NoError(t, err)

		_, err = client.Get(srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Bearer fresh", auth)
		assert.Equal(t, 1, a.refreshes)
		assert.Equal(t, "rt-next", src.Session().RefreshToken)
		assert.Equal(t, user, src.Session().User)
	})
}

func TestSessionToken(t *testing.T) {
	tok := SessionToken(&Session{AccessToken: "at", ExpiresAt: 1700000000})
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, int64(1700000000), tok.Expiry.Unix())
}
