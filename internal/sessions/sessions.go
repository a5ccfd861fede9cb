// Package sessions keeps server-side sessions keyed by an opaque cookie value.
//
// The cookie only carries a random id; the hosted-auth token pair stays on the server in a
// [MemoryStore] or a [RedisStore].
package sessions

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// CookieName is the session cookie.
const CookieName = services.SessionCookie

// DefaultTTL applies when no session TTL is configured.
const DefaultTTL = 7 * 24 * time.Hour

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = fmt.Errorf("%w: session not found", shared.ErrNotAuthenticated)

// Record is a stored session.
type Record struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Email     string            `json:"email"`
	Auth      *services.Session `json:"auth"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store persists session records.
type Store interface {
	// Create stores auth under a new random id.
	Create(ctx context.Context, auth *services.Session) (*Record, error)
	// Get returns [ErrNotFound] for unknown or expired ids.
	Get(ctx context.Context, id string) (*Record, error)
	// Update replaces the record without extending its lifetime.
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewStore returns a Redis store when cfg.Addr is set and reachable, otherwise a memory store.
func NewStore(ctx context.Context, cfg shared.RedisConfig, ttl time.Duration, logger *log.Logger) Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if cfg.Addr == "" {
		return NewMemoryStore(ttl)
	}

	store, err := NewRedisStore(ctx, cfg, ttl)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory sessions", "addr", cfg.Addr, "err", err)
		return NewMemoryStore(ttl)
	}
	logger.Info("connected to redis session store", "addr", cfg.Addr, "db", cfg.DB)
	return store
}

func newRecord(auth *services.Session, now time.Time) (*Record, error) {
	if auth == nil || auth.AccessToken == "" {
		return nil, fmt.Errorf("%w: session has no access token", shared.ErrNoSession)
	}
	rec := &Record{ID: shared.GenerateID(), Auth: auth, CreatedAt: now.UTC()}
	if auth.User != nil {
		rec.UserID, rec.Email = auth.User.ID, auth.User.Email
	}
	return rec, nil
}

type contextKey struct{}

// WithRecord attaches rec to ctx.
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, contextKey{}, rec)
}

// FromContext returns the record attached by [WithRecord].
func FromContext(ctx context.Context) (*Record, bool) {
	rec, ok := ctx.Value(contextKey{}).(*Record)
	return rec, ok && rec != nil
}

// ID returns the session id carried by r's cookie, or "".
func ID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetCookie writes the session cookie.
func SetCookie(w http.ResponseWriter, r *http.Request, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
