package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/secondbrain/internal/shared"
)

// SetupConfig writes the embedded config template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Wrote %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in credentials.supabase (or export SUPABASE_URL and SUPABASE_ANON_KEY)\n")
	r.writePlain("2. Run 'brain setup database' for the local store\n")
	return r.writePlain("3. Run 'brain serve'\n")
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	if config.Database.Driver != "sqlite" {
		return fmt.Errorf("%w: setup database only applies to the sqlite driver, got %q", shared.ErrInvalidConfig, config.Database.Driver)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writeMigrations(db)
}

// SetupRollback reverts the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openSQLite(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	r.logger.Info("rolled back latest migration")
	return r.writeMigrations(db)
}

// SetupMigrations lists the applied migrations.
func (r *Runner) SetupMigrations(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openSQLite(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()
	return r.writeMigrations(db)
}

// openSQLite opens the configured database without running migrations.
func (r *Runner) openSQLite(configPath string) (*sql.DB, error) {
	if err := r.loadConfig(configPath); err != nil {
		return nil, err
	}
	if r.config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("%w: migrations only apply to the sqlite driver", shared.ErrInvalidConfig)
	}
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func (r *Runner) writeMigrations(db *sql.DB) error {
	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return err
	}
	r.writePlainHeader("Applied Migrations")
	if len(applied) == 0 {
		return r.writePlain("none\n")
	}
	for _, m := range applied {
		r.writePlain("%04d  %s\n", m.Version, m.AppliedAt.Local().Format(time.DateTime))
	}
	return nil
}
