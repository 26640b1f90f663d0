package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytlists/internal/shared"
	"github.com/desertthunder/ytlists/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for a user's playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	b, err := r.openBackend(config)
	if err != nil {
		return err
	}
	defer b.close()

	username, err := r.resolveUser(b, cmd.String("user"))
	if err != nil {
		return err
	}

	return ui.Run(ctx, b.playlists, username)
}
