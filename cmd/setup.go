package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ytlists/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example config to the --config path. It refuses to overwrite an existing file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set youtube.api_key (or YTLISTS_YOUTUBE_API_KEY)\n")
	r.writePlain("2. Run 'ytlists serve'\n")
	return nil
}

// SetupDatabase creates the SQLite database at storage.sqlite_path and applies pending migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	path := config.Storage.SQLitePath
	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("✓ %s ready (%d migrations applied)\n", path, applied)
	if config.Storage.Backend != shared.BackendSQLite {
		r.writePlain("Set storage.backend = \"%s\" to use it.\n", shared.BackendSQLite)
	}
	return nil
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(config.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	version, err := shared.RollbackMigration(db)
	if errors.Is(err, shared.ErrNoMigrations) {
		r.writePlain("Nothing to roll back\n")
		return nil
	} else if err != nil {
		return err
	}

	r.logger.Info("rolled back migration", "version", version)
	r.writePlain("✓ Rolled back migration %d\n", version)
	return nil
}
