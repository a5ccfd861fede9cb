package functions

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/sessions"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// RequireSession rejects requests without a valid session with 401 and attaches the session record otherwise.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, rec := h.resolve(r.Context(), r)
		if !state.Authenticated || rec == nil {
			h.fail(w, r, http.StatusUnauthorized, shared.ErrUnauthorized.Error(), nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(sessions.WithRecord(r.Context(), rec)))
	})
}

// resolve maps the request's session cookie onto an auth state.
//
// The stored session doubles as the cached session in sandboxed environments; otherwise it is loaded
// through the breaker and refreshed if its access token has expired.
func (h *Handlers) resolve(ctx context.Context, r *http.Request) (auth.State, *sessions.Record) {
	id := sessions.ID(r)
	if id == "" {
		return auth.State{}, nil
	}

	rec, err := h.sessions.Get(ctx, id)
	if err != nil {
		h.logger.Debug("session lookup failed", "err", err)
		return auth.State{}, nil
	}

	snapshot := *rec
	state := h.manager.Initialize(ctx, auth.DetectRequest(r), rec.Auth, func(ctx context.Context) (*services.Session, error) {
		return h.refresh(ctx, snapshot)
	})
	if !state.Authenticated {
		return state, nil
	}

	if state.Session != nil {
		rec.Auth = state.Session
	}
	if state.User != nil {
		rec.UserID, rec.Email = state.User.ID, state.User.Email
	}
	return state, rec
}

// refresh returns rec's session, exchanging the refresh token first when the access token has expired.
// A rotated session is written back to the store.
func (h *Handlers) refresh(ctx context.Context, rec sessions.Record) (*services.Session, error) {
	if rec.Auth == nil {
		return nil, shared.ErrNoSession
	}
	if h.auth == nil {
		return rec.Auth, nil
	}

	src := services.NewSessionTokenSource(ctx, h.auth, rec.Auth)
	tok, err := oauth2.ReuseTokenSource(services.SessionToken(rec.Auth), src).Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == rec.Auth.AccessToken {
		return rec.Auth, nil
	}

	rec.Auth = src.Session()
	if err := h.sessions.Update(ctx, &rec); err != nil {
		h.logger.Warn("failed to persist refreshed session", "session", rec.ID, "err", err)
	}
	h.logger.Debug("session refreshed", "session", rec.ID)
	return rec.Auth, nil
}

func (h *Handlers) sessionTTL() time.Duration {
	if ttl := h.cfg.Server.SessionTTL.Duration; ttl > 0 {
		return ttl
	}
	return sessions.DefaultTTL
}

// startSession stores state's session and sets the cookie.
func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request, state auth.State) error {
	rec, err := h.sessions.Create(r.Context(), state.Session)
	if err != nil {
		return err
	}
	sessions.SetCookie(w, r, rec.ID, h.sessionTTL())
	return nil
}

// currentUserID is the user attached by [Handlers.RequireSession].
func currentUserID(r *http.Request) string {
	if rec, ok := sessions.FromContext(r.Context()); ok {
		return rec.UserID
	}
	return ""
}
