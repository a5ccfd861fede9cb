package functions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/boot"
	"github.com/desertthunder/secondbrain/internal/forms"
	"github.com/desertthunder/secondbrain/internal/server"
	"github.com/desertthunder/secondbrain/internal/sessions"
	"github.com/desertthunder/secondbrain/internal/shared"
)

const errAuthUnavailable = "Authentication is temporarily unavailable. Please try again shortly."

// Register creates an account, its profile and a session.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var form forms.RegisterForm
	if err := server.DecodeJSON(r, &form); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	state, err := h.manager.Register(r.Context(), form)
	if err != nil {
		h.authFailure(w, r, "Registration failed. Please try again.", err)
		return
	}
	if err := h.startSession(w, r, state); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to start session", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, state)
}

// Login signs in and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var form forms.LoginForm
	if err := server.DecodeJSON(r, &form); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	state, err := h.manager.Login(r.Context(), form)
	if err != nil {
		h.authFailure(w, r, "Login failed. Please try again.", err)
		return
	}
	if err := h.startSession(w, r, state); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to start session", err)
		return
	}
	server.WriteJSON(w, http.StatusOK, state)
}

// Logout revokes the session upstream and always clears it locally.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if id := sessions.ID(r); id != "" {
		if rec, err := h.sessions.Get(ctx, id); err == nil && rec.Auth != nil {
			if err := h.manager.Logout(ctx, rec.Auth.AccessToken); err != nil {
				h.logger.Warn("logout failed upstream", "err", err)
			}
		}
		if err := h.sessions.Delete(ctx, id); err != nil {
			h.logger.Warn("failed to delete session", "session", id, "err", err)
		}
	}
	sessions.ClearCookie(w)
	server.WriteJSON(w, http.StatusOK, auth.State{})
}

// Session reports the current auth state.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	state, _ := h.resolve(r.Context(), r)
	server.WriteJSON(w, http.StatusOK, state)
}

// BreakerStatus reports the auth circuit breaker.
func (h *Handlers) BreakerStatus(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, h.manager.Breaker().Status())
}

// BreakerReset closes the auth circuit breaker.
func (h *Handlers) BreakerReset(w http.ResponseWriter, r *http.Request) {
	cb := h.manager.Breaker()
	cb.ForceReset()
	h.logger.Info("circuit breaker reset", "breaker", cb.Name())
	server.WriteJSON(w, http.StatusOK, cb.Status())
}

type progressEvent struct {
	Phase    string               `json:"phase"`
	Progress float64              `json:"progress"`
	Message  string               `json:"message"`
	Options  *boot.TimeoutOptions `json:"options,omitempty"`
	State    *auth.State          `json:"state,omitempty"`
}

func newProgressEvent(u boot.ProgressUpdate) progressEvent {
	ev := progressEvent{Phase: u.Phase.String(), Progress: u.Progress, Message: u.Message}
	switch data := u.Data.(type) {
	case boot.TimeoutOptions:
		ev.Options = &data
	case auth.State:
		ev.State = &data
	}
	return ev
}

type bootResult struct {
	state auth.State
	err   error
}

// Boot streams loading-screen progress as server-sent events while the session resolves.
//
// Events are "progress" while checking, then one of "done" or "timeout".
func (h *Handlers) Boot(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.fail(w, r, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	env := auth.DetectRequest(r)
	loader := boot.NewLoader(func(ctx context.Context) auth.State {
		state, _ := h.resolve(ctx, r)
		return state
	}, env, h.cfg.Auth)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	progress := make(chan boot.ProgressUpdate, 16)
	results := make(chan bootResult, 1)
	go func() {
		state, err := loader.Run(r.Context(), progress)
		results <- bootResult{state, err}
	}()

	pct := 0.0
	for {
		select {
		case u := <-progress:
			pct = u.Progress
			writeEvent(w, "progress", newProgressEvent(u))
			flusher.Flush()
		case res := <-results:
			switch {
			case errors.Is(res.err, shared.ErrTimeout):
				writeEvent(w, "timeout", newProgressEvent(boot.TimedOutUpdate(pct, env)))
			case res.err != nil:
				return
			default:
				writeEvent(w, "done", newProgressEvent(boot.CompleteUpdate(res.state)))
			}
			flusher.Flush()
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

// authFailure maps login and registration errors onto responses.
func (h *Handlers) authFailure(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	var verrs forms.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		h.invalid(w, r, err)
	case errors.Is(err, shared.ErrCircuitOpen):
		h.fail(w, r, http.StatusServiceUnavailable, errAuthUnavailable, err)
	case errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrAccountExists),
		errors.Is(err, shared.ErrUsernameTaken):
		h.fail(w, r, server.StatusFor(err), err.Error(), err)
	case errors.Is(err, shared.ErrNotAuthenticated):
		h.fail(w, r, http.StatusUnauthorized, shared.ErrUnauthorized.Error(), err)
	default:
		h.fail(w, r, http.StatusInternalServerError, fallback, err)
	}
}
