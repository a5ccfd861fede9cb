// Package servicestest provides in-memory fakes for the hosted service clients.
package servicestest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
)

type account struct {
	user     services.User
	password string
}

// FakeAuth is an in-memory [services.Authenticator].
//
// Delay is applied before every call so timeout paths can be exercised; Err, when set, is
// returned by every call after the delay.
type FakeAuth struct {
	mu       sync.Mutex
	accounts map[string]*account
	tokens   map[string]string
	refresh  map[string]string
	seq      int

	Delay time.Duration
	Err   error
	// Unconfirmed makes SignUp return no session.
	Unconfirmed bool
	Calls       map[string]int
}

var _ services.Authenticator = (*FakeAuth)(nil)

// NewFakeAuth creates an empty fake.
func NewFakeAuth() *FakeAuth {
	return &FakeAuth{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		refresh:  make(map[string]string),
		Calls:    make(map[string]int),
	}
}

// AddUser registers an account directly and returns its user.
func (f *FakeAuth) AddUser(email, password string) *services.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	acct := &account{
		user:     services.User{ID: fmt.Sprintf("user-%d", f.seq), Email: email, CreatedAt: time.Now().UTC()},
		password: password,
	}
	f.accounts[strings.ToLower(email)] = acct
	u := acct.user
	return &u
}

func (f *FakeAuth) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	f.Calls[name]++
	delay, err := f.Delay, f.Err
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// issue must be called with mu held.
func (f *FakeAuth) issue(user services.User) *services.Session {
	f.seq++
	access := fmt.Sprintf("access-%d", f.seq)
	refresh := fmt.Sprintf("refresh-%d", f.seq)
	f.tokens[access] = user.ID
	f.refresh[refresh] = user.ID
	return &services.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         &user,
	}
}

func (f *FakeAuth) byID(id string) (services.User, bool) {
	for _, a := range f.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return services.User{}, false
}

func (f *FakeAuth) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*services.Session, *services.User, error) {
	if err := f.enter(ctx, "SignUp"); err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := f.accounts[key]; ok {
		return nil, nil, &services.AuthError{Status: 422, Code: "user_already_exists", Message: "User already registered"}
	}
	f.seq++
	acct := &account{
		user:     services.User{ID: fmt.Sprintf("user-%d", f.seq), Email: email, CreatedAt: time.Now().UTC(), UserMetadata: metadata},
		password: password,
	}
	f.accounts[key] = acct

	u := acct.user
	if f.Unconfirmed {
		return nil, &u, nil
	}
	return f.issue(acct.user), &u, nil
}

func (f *FakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*services.Session, error) {
	if err := f.enter(ctx, "SignInWithPassword"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[strings.ToLower(email)]
	if !ok || acct.password != password {
		return nil, &services.AuthError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return f.issue(acct.user), nil
}

func (f *FakeAuth) GetUser(ctx context.Context, accessToken string) (*services.User, error) {
	if err := f.enter(ctx, "GetUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.tokens[accessToken]
	if !ok {
		return nil, &services.AuthError{Status: 401, Message: "invalid JWT"}
	}
	user, ok := f.byID(id)
	if !ok {
		return nil, &services.AuthError{Status: 404, Code: "user_not_found", Message: "User not found"}
	}
	return &user, nil
}

func (f *FakeAuth) RefreshSession(ctx context.Context, refreshToken string) (*services.Session, error) {
	if err := f.enter(ctx, "RefreshSession"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.refresh[refreshToken]
	if !ok {
		return nil, fmt.Errorf("%w: unknown refresh token", shared.ErrRefreshFailed)
	}
	delete(f.refresh, refreshToken)
	user, _ := f.byID(id)
	return f.issue(user), nil
}

func (f *FakeAuth) SignOut(ctx context.Context, accessToken string) error {
	if err := f.enter(ctx, "SignOut"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tokens[accessToken]; !ok {
		return &services.AuthError{Status: 404, Code: "session_not_found", Message: "session_not_found"}
	}
	delete(f.tokens, accessToken)
	return nil
}

// CallCount returns how many times the named method was invoked.
func (f *FakeAuth) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[name]
}

// FakePayments is an in-memory [services.Payments].
type FakePayments struct {
	mu    sync.Mutex
	Err   error
	Users []string
}

var _ services.Payments = (*FakePayments)(nil)

func (p *FakePayments) CreateCheckoutSession(ctx context.Context, userID string) (*services.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	p.Users = append(p.Users, userID)
	id := fmt.Sprintf("cs_test_%d", len(p.Users))
	return &services.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (p *FakePayments) CreatePaymentIntent(ctx context.Context, userID string) (*services.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	p.Users = append(p.Users, userID)
	id := fmt.Sprintf("pi_test_%d", len(p.Users))
	return &services.PaymentIntent{ID: id, ClientSecret: id + "_secret"}, nil
}
