package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/secondbrain/internal/auth"
	"github.com/desertthunder/secondbrain/internal/boot"
	"github.com/desertthunder/secondbrain/internal/services"
	"github.com/desertthunder/secondbrain/internal/shared"
	"github.com/desertthunder/secondbrain/internal/ui"
)

// TUI launches the interactive checklist. The session is resolved through the boot loader first.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	logPath := cmd.String("log-file")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	r.SetLogger(fileLogger)

	api := r.api
	if id, err := r.loadSession(); err == nil {
		api = api.WithSession(id)
	}

	host := os.Getenv("BRAIN_SERVER")
	if host == "" {
		host = r.config.Server.Host
	}
	env := auth.DetectEnvironment(os.Getenv("TERM_PROGRAM"), host)
	loader := boot.NewLoader(sessionInitializer(api, fileLogger.Warn), env, r.config.Auth)

	model := ui.NewModel(ctx, loader, services.NewChecklistClient(api))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
