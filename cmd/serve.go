package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/functions"
	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/repositories"
	"github.com/desertthunder/secondbrain/internal/resilience"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/sessions"
	"github.com/desertthunder/secondbrain/internal/shared"
)

const shutdownTimeout = 10 * time.Second

// Serve wires the backends from config and runs the HTTP server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd.String("config")); err != nil {
		return err
	}
	if h := cmd.String("host"); h != "" {
		r.config.Server.Host = h
	}
	if p := cmd.Int("port"); p > 0 {
		r.config.Server.Port = int(p)
	}
	if cmd.Bool("pwa") {
		r.config.Server.PWA = true
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := r.buildHandler(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              r.config.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.logger.Info("server listening", "addr", srv.Addr, "driver", r.config.Database.Driver, "pwa", r.config.Server.PWA)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildHandler constructs every collaborator of the function handlers. cleanup releases the backend and session store.
func (r *Runner) buildHandler(ctx context.Context) (http.Handler, func(), error) {
	cfg := r.config
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				r.logger.Warn("cleanup failed", "error", err)
			}
		}
	}

	backend, closeBackend, err := r.openBackend()
	if err != nil {
		return nil, cleanup, err
	}
	if closeBackend != nil {
		closers = append(closers, closeBackend)
	}

	supa := cfg.Credentials.Supabase
	authn, err := services.NewSupabaseAuth(supa.URL, supa.AnonKey, r.httpClient)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	var payments services.Payments
	if stripe, err := services.NewStripeClient(cfg.Credentials.Stripe, r.httpClient, r.logger); err != nil {
		r.logger.Warn("payments disabled", "error", err)
	} else {
		payments = stripe
	}

	webhooks := services.NewWebhookClient(cfg.Webhooks, r.httpClient, r.logger)

	store := sessions.NewStore(ctx, cfg.Redis, cfg.Server.SessionTTL.Duration, r.logger)
	closers = append(closers, store.Close)

	breaker := resilience.NewCircuitBreaker("auth",
		resilience.WithThreshold(cfg.Auth.Threshold),
		resilience.WithResetTimeout(cfg.Auth.ResetTimeout.Duration))
	manager := auth.NewManager(authn, breaker, backend, webhooks, cfg.Auth, r.logger)

	h := functions.New(functions.Deps{
		Backend:  backend,
		Auth:     authn,
		Manager:  manager,
		Sessions: store,
		Payments: payments,
		Webhooks: webhooks,
		Config:   cfg,
		Logger:   r.logger,
	})
	return h.Router(), cleanup, nil
}

// openBackend selects the task and profile store from database.driver.
func (r *Runner) openBackend() (models.Backend, func() error, error) {
	cfg := r.config
	switch cfg.Database.Driver {
	case "supabase":
		supa := cfg.Credentials.Supabase
		tables, err := services.NewSupabaseTables(supa.URL, supa.ServiceRoleKey, r.httpClient)
		if err != nil {
			return nil, nil, err
		}
		return tables, nil, nil
	default:
		db, err := shared.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		store := repositories.NewStore(db)
		return store, store.Close, nil
	}
}
