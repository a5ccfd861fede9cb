package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
)

const (
	DefaultAuthTimeout        = 3 * time.Second
	DefaultSandboxAuthTimeout = 15 * time.Second
	DefaultLoadingBuffer      = 5 * time.Second
	DefaultCacheMinTTL        = 5 * time.Minute
)

var sandboxIndicators = []string{"stackblitz", "webcontainer", "local-credentialless", "bolt.new"}

// Environment describes where a client is running.
type Environment struct {
	Sandboxed bool
}

// DetectEnvironment reports a sandbox when any indicator appears in the user agent or host.
func DetectEnvironment(userAgent, host string) Environment {
	ua, h := strings.ToLower(userAgent), strings.ToLower(host)
	for _, indicator := range sandboxIndicators {
		if strings.Contains(ua, indicator) || strings.Contains(h, indicator) {
			return Environment{Sandboxed: true}
		}
	}
	return Environment{}
}

// DetectRequest is [DetectEnvironment] for an incoming request.
func DetectRequest(r *http.Request) Environment {
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return DetectEnvironment(r.UserAgent(), host)
}

// AuthTimeout bounds session retrieval.
func (e Environment) AuthTimeout(cfg shared.AuthConfig) time.Duration {
	if e.Sandboxed {
		return orDefault(cfg.SandboxAuthTimeout.Duration, DefaultSandboxAuthTimeout)
	}
	return orDefault(cfg.AuthTimeout.Duration, DefaultAuthTimeout)
}

// LoadingTimeout is the auth timeout plus the loading buffer.
func (e Environment) LoadingTimeout(cfg shared.AuthConfig) time.Duration {
	return e.AuthTimeout(cfg) + orDefault(cfg.LoadingBuffer.Duration, DefaultLoadingBuffer)
}

// UseCachedSession reports whether a client-held session may be resumed without a lookup.
func (e Environment) UseCachedSession() bool {
	return e.Sandboxed
}

// ValidCachedSession accepts a session with an access token that expires more than minTTL after now.
func ValidCachedSession(s *services.Session, now time.Time, minTTL time.Duration) bool {
	if s == nil || s.AccessToken == "" || s.ExpiresAt <= 0 {
		return false
	}
	return time.Unix(s.ExpiresAt, 0).Sub(now) > minTTL
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
