package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/boot"
	"github.com/desertthunder/secondbrain/internal/forms"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// AuthLogin signs in against the server and stores the session cookie.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	form := forms.LoginForm{
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
	}
	if err := form.Validate(); err != nil {
		return err
	}

	r.logger.Info("signing in", "email", form.Email)
	return r.startSession(ctx, "/api/auth/login", form)
}

// AuthRegister creates an account and stores the resulting session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	form := forms.RegisterForm{
		Username:        cmd.String("username"),
		FullName:        cmd.String("full-name"),
		Email:           cmd.String("email"),
		Password:        password,
		ConfirmPassword: password,
		AcceptTerms:     cmd.Bool("accept-terms"),
	}
	if err := form.Validate(); err != nil {
		return err
	}

	r.logger.Info("registering", "email", form.Email, "username", form.NormalizedUsername())
	return r.startSession(ctx, "/api/auth/register", form)
}

func (r *Runner) startSession(ctx context.Context, path string, form any) error {
	resp, err := r.api.PostJSON(ctx, path, form)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkResponse(resp, shared.ErrAuthFailed); err != nil {
		return err
	}

	var state auth.State
	if err := resp.Decode(&state); err != nil {
		return err
	}
	id := sessionFromHeaders(resp.Headers)
	if id == "" {
		return shared.ErrNoSession
	}
	if err := r.saveSession(id); err != nil {
		return err
	}

	r.logger.Info("session stored", "path", r.sessionPath)
	if state.User != nil {
		return r.writePlain("✓ Signed in as %s\n", state.User.Email)
	}
	return r.writePlain("✓ Signed in\n")
}

// AuthLogout revokes the stored session and removes it locally, even when the server is unreachable.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	id, err := r.loadSession()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.writePlain("Not signed in\n")
	} else if err != nil {
		return err
	}

	if _, err := r.api.WithSession(id).Post(ctx, "/api/auth/logout", nil); err != nil {
		r.logger.Warn("logout request failed", "error", err)
	}
	if err := r.clearSession(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus resolves the stored session through the boot loader, printing its progress.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	api := r.api
	if id, err := r.loadSession(); err == nil {
		api = api.WithSession(id)
	}

	loader := boot.NewLoader(sessionInitializer(api, r.logger.Warn), auth.Environment{}, r.config.Auth)
	progress := make(chan boot.ProgressUpdate, 8)
	done := make(chan struct{})
	useJSON := cmd.Bool("json")

	go func() {
		defer close(done)
		last := ""
		for u := range progress {
			if useJSON || u.Message == last {
				continue
			}
			last = u.Message
			r.writePlain("%3.0f%% %s\n", u.Progress, u.Message)
		}
	}()

	state, err := loader.Run(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}
	if useJSON {
		return r.writeJSON(state, true)
	}
	if !state.Authenticated || state.User == nil {
		return r.writePlain("✗ Not signed in. Run 'brain auth login'.\n")
	}
	return r.writePlain("✓ Signed in as %s (%s)\n", state.User.Email, state.User.ID)
}

// sessionInitializer resolves auth state from the server's session endpoint. Failures resolve anonymous.
func sessionInitializer(api *services.APIService, warn func(msg any, kv ...any)) boot.Initializer {
	return func(ctx context.Context) auth.State {
		resp, err := api.Get(ctx, "/api/auth/session")
		if err != nil {
			warn("session request failed", "error", err)
			return auth.State{}
		}
		var state auth.State
		if !resp.OK() {
			warn("session request rejected", "status", resp.StatusCode)
			return state
		}
		if err := resp.Decode(&state); err != nil {
			warn("session response invalid", "error", err)
			return auth.State{}
		}
		return state
	}
}

// authedAPI returns the API client carrying the stored session.
func (r *Runner) authedAPI() (*services.APIService, error) {
	id, err := r.loadSession()
	if err != nil {
		return nil, err
	}
	return r.api.WithSession(id), nil
}

// currentUser resolves the signed-in user through the server.
func (r *Runner) currentUser(ctx context.Context) (*services.User, error) {
	api, err := r.authedAPI()
	if err != nil {
		return nil, err
	}
	resp, err := api.Get(ctx, "/api/auth/session")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkResponse(resp, shared.ErrAPIRequest); err != nil {
		return nil, err
	}
	var state auth.State
	if err := resp.Decode(&state); err != nil {
		return nil, err
	}
	if !state.Authenticated || state.User == nil {
		return nil, fmt.Errorf("%w: session expired, run 'brain auth login'", shared.ErrNotAuthenticated)
	}
	return state.User, nil
}

func sessionFromHeaders(h http.Header) string {
	for _, c := range (&http.Response{Header: h}).Cookies() {
		if c.Name == services.SessionCookie && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func (r *Runner) loadSession() (string, error) {
	data, err := os.ReadFile(r.sessionPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: run 'brain auth login'", shared.ErrNotAuthenticated)
	} else if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("%w: run 'brain auth login'", shared.ErrNotAuthenticated)
	}
	return id, nil
}

func (r *Runner) saveSession(id string) error {
	if err := os.MkdirAll(filepath.Dir(r.sessionPath), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(r.sessionPath, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (r *Runner) clearSession() error {
	if err := os.Remove(r.sessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
