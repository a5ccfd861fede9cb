package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/secondbrain/internal/forms"
	"github.com/desertthunder/secondbrain/internal/metrics"
	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/resilience"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// ErrBreakerPreventedLogin is returned by [Manager.ValidateToken] when the breaker fallback ran.
var ErrBreakerPreventedLogin = fmt.Errorf("%w: circuit breaker prevented login", shared.ErrCircuitOpen)

var errBreakerFallback = fmt.Errorf("%w: circuit breaker fallback", shared.ErrCircuitOpen)

// Store is the persistence needed by registration.
type Store interface {
	CreateProfile(ctx context.Context, p *models.Profile) error
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	CreateSignupLog(ctx context.Context, l *models.SignupLog) error
}

// Retriever loads the session a request refers to, refreshing it if needed.
type Retriever func(ctx context.Context) (*services.Session, error)

// State is the outcome of resolving a session.
type State struct {
	Authenticated bool              `json:"authenticated"`
	User          *services.User    `json:"user"`
	Session       *services.Session `json:"-"`
}

// RegistrationPayload is the registration webhook body.
type RegistrationPayload struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager runs the login, registration and session flows.
type Manager struct {
	auth     services.Authenticator
	breaker  *resilience.CircuitBreaker
	store    Store
	notifier services.Notifier
	cfg      shared.AuthConfig
	logger   *log.Logger
	now      func() time.Time
}

// NewManager wires a manager. notifier may be nil to skip the registration webhook.
func NewManager(auth services.Authenticator, breaker *resilience.CircuitBreaker, store Store, notifier services.Notifier, cfg shared.AuthConfig, logger *log.Logger) *Manager {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("auth",
			resilience.WithThreshold(cfg.Threshold),
			resilience.WithResetTimeout(cfg.ResetTimeout.Duration))
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{
		auth:     auth,
		breaker:  breaker,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   shared.WithLogger(logger, "component", "auth"),
		now:      time.Now,
	}
}

// Breaker exposes the shared breaker for status and reset endpoints.
func (m *Manager) Breaker() *resilience.CircuitBreaker {
	return m.breaker
}

// Initialize resolves a request to a [State].
//
// In sandboxed environments a cached session with enough time left is validated first. Otherwise
// retrieve is raced against the auth timeout; a timeout or breaker rejection yields an anonymous
// state rather than an error.
func (m *Manager) Initialize(ctx context.Context, env Environment, cached *services.Session, retrieve Retriever) State {
	var session *services.Session
	if env.UseCachedSession() {
		session = m.cachedSession(ctx, cached)
	}
	if session == nil && retrieve != nil {
		session = m.retrieveSession(ctx, env.AuthTimeout(m.cfg), retrieve)
	}
	return m.resolve(ctx, session)
}

func (m *Manager) cachedSession(ctx context.Context, cached *services.Session) *services.Session {
	minTTL := orDefault(m.cfg.CacheMinTTL.Duration, DefaultCacheMinTTL)
	if !ValidCachedSession(cached, m.now(), minTTL) {
		if cached != nil {
			m.logger.Debug("cached session expires soon, discarding")
		}
		return nil
	}

	res, err := m.lookupUser(ctx, cached.AccessToken, func() userResult { return userResult{} })
	if err != nil || res.err != nil || res.user == nil {
		m.logger.Debug("cached session invalid, discarding", "err", errors.Join(err, res.err))
		return nil
	}
	return cached
}

func (m *Manager) retrieveSession(ctx context.Context, timeout time.Duration, retrieve Retriever) *services.Session {
	session, err := resilience.Execute(ctx, m.breaker, func(ctx context.Context) (*services.Session, error) {
		return raceTimeout(ctx, timeout, retrieve)
	}, func() *services.Session { return nil })
	if err != nil {
		m.logger.Warn("session request failed", "err", err)
		return nil
	}
	return session
}

// resolve validates session's token and maps the result onto a State.
func (m *Manager) resolve(ctx context.Context, session *services.Session) State {
	if session == nil || session.AccessToken == "" {
		return State{}
	}

	res, err := m.lookupUser(ctx, session.AccessToken, func() userResult { return userResult{err: errBreakerFallback} })
	if err == nil {
		err = res.err
	}
	if err != nil || res.user == nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			if err := m.auth.SignOut(ctx, session.AccessToken); err != nil {
				m.logger.Debug("sign out after missing session failed", "err", err)
			}
		}
		m.logger.Debug("user validation failed", "err", err)
		return State{}
	}

	if session.User == nil {
		session.User = res.user
	}
	return State{Authenticated: true, User: res.user, Session: session}
}

// Login validates the form, signs in and validates the issued token.
func (m *Manager) Login(ctx context.Context, form forms.LoginForm) (state State, err error) {
	defer func() { metrics.RecordAuthOutcome("login", err == nil) }()

	if err := form.Validate(); err != nil {
		return State{}, err
	}

	session, err := m.auth.SignInWithPassword(ctx, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			return State{}, shared.ErrInvalidCredentials
		}
		return State{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if session == nil || session.AccessToken == "" {
		return State{}, fmt.Errorf("%w: no session token received", shared.ErrNoSession)
	}

	user, err := m.ValidateToken(ctx, session.AccessToken)
	if err != nil {
		return State{}, err
	}
	if session.User == nil {
		session.User = user
	}
	m.logger.Info("login successful", "user", user.ID)
	return State{Authenticated: true, User: user, Session: session}, nil
}

// ValidateToken looks up the token's user through the breaker.
func (m *Manager) ValidateToken(ctx context.Context, accessToken string) (*services.User, error) {
	res, err := m.lookupUser(ctx, accessToken, func() userResult { return userResult{err: ErrBreakerPreventedLogin} })
	if err != nil {
		return nil, err
	}
	if errors.Is(res.err, shared.ErrCircuitOpen) {
		return nil, res.err
	}
	if res.err != nil || res.user == nil {
		return nil, fmt.Errorf("%w: invalid token", shared.ErrNotAuthenticated)
	}
	return res.user, nil
}

// Logout revokes the session. Breaker rejections and already-revoked sessions succeed silently;
// callers clear their local session regardless of the result.
func (m *Manager) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	_, err := resilience.Execute(ctx, m.breaker, func(ctx context.Context) (struct{}, error) {
		err := m.auth.SignOut(ctx, accessToken)
		if err != nil && transient(err) {
			return struct{}{}, err
		}
		if err != nil {
			m.logger.Debug("sign out rejected", "err", err)
		}
		return struct{}{}, nil
	}, func() struct{} { return struct{}{} })
	metrics.RecordAuthOutcome("logout", err == nil)
	return err
}

// Register validates the form and creates the account. A failure after validation is recorded
// in signup_logs before it is returned.
func (m *Manager) Register(ctx context.Context, form forms.RegisterForm) (State, error) {
	if err := form.Validate(); err != nil {
		return State{}, err
	}

	state, err := m.register(ctx, form)
	metrics.RecordAuthOutcome("register", err == nil)
	if err != nil {
		m.logger.Error("registration failed", "email", form.Email, "err", err)
		m.logSignupFailure(ctx, form, err)
		return State{}, err
	}
	return state, nil
}

func (m *Manager) register(ctx context.Context, form forms.RegisterForm) (State, error) {
	username := form.NormalizedUsername()

	available, err := m.store.UsernameAvailable(ctx, username)
	switch {
	case err != nil:
		m.logger.Warn("username availability check failed", "err", err)
	case !available:
		return State{}, shared.ErrUsernameTaken
	}

	metadata := map[string]any{"full_name": form.FullName, "username": username}
	session, user, err := m.auth.SignUp(ctx, form.Email, form.Password, metadata)
	if err != nil {
		if errors.Is(err, shared.ErrAccountExists) {
			return State{}, shared.ErrAccountExists
		}
		return State{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if session == nil || user == nil {
		return State{}, fmt.Errorf("%w: no session or user data returned from signup", shared.ErrNoSession)
	}

	profile := &models.Profile{ID: user.ID, Username: username, FullName: form.FullName}
	if err := m.store.CreateProfile(ctx, profile); err != nil {
		return State{}, fmt.Errorf("failed to create user profile: %w", err)
	}

	m.notifyRegistration(ctx, user, form)

	validated, err := m.ValidateToken(ctx, session.AccessToken)
	if err != nil {
		return State{}, err
	}
	if session.User == nil {
		session.User = validated
	}
	m.logger.Info("registration complete", "user", validated.ID)
	return State{Authenticated: true, User: validated, Session: session}, nil
}

func (m *Manager) notifyRegistration(ctx context.Context, user *services.User, form forms.RegisterForm) {
	if m.notifier == nil {
		return
	}
	payload := RegistrationPayload{
		Type:      "user_registration",
		UserID:    user.ID,
		Email:     user.Email,
		Username:  form.Username,
		FullName:  form.FullName,
		CreatedAt: m.now().UTC(),
	}
	if err := m.notifier.Notify(ctx, services.WebhookRegistration, payload); err != nil {
		m.logger.Warn("registration webhook failed, continuing", "err", err)
	}
}

func (m *Manager) logSignupFailure(ctx context.Context, form forms.RegisterForm, cause error) {
	entry := &models.SignupLog{
		Email:        form.Email,
		Username:     form.Username,
		Success:      false,
		ErrorMessage: cause.Error(),
	}
	if err := m.store.CreateSignupLog(ctx, entry); err != nil {
		m.logger.Error("failed to log signup attempt", "err", err)
	}
}

type userResult struct {
	user *services.User
	err  error
}

// lookupUser calls GetUser through the breaker. Rejections by the auth service are carried in the
// result so they do not trip the breaker.
func (m *Manager) lookupUser(ctx context.Context, accessToken string, fallback func() userResult) (userResult, error) {
	return resilience.Execute(ctx, m.breaker, func(ctx context.Context) (userResult, error) {
		user, err := m.auth.GetUser(ctx, accessToken)
		if err != nil && transient(err) {
			return userResult{}, err
		}
		return userResult{user: user, err: err}, nil
	}, fallback)
}

func transient(err error) bool {
	return errors.Is(err, shared.ErrServiceUnavailable) ||
		errors.Is(err, shared.ErrAPIRequest) ||
		errors.Is(err, shared.ErrSessionTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// raceTimeout returns fn's result or [shared.ErrSessionTimeout], whichever comes first.
//
// fn keeps running after a timeout until it observes the canceled context.
func raceTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, shared.ErrSessionTimeout
		}
		return zero, ctx.Err()
	}
}
