package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ytlists/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search runs a video search and prints the normalized results as JSON.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	limit := config.YouTube.DefaultMaxResults
	if cmd.IsSet("max") {
		limit = int(cmd.Int("max"))
	}
	if limit < 1 {
		return fmt.Errorf("%w: --max must be a positive integer", shared.ErrInvalidArgument)
	}

	r.logger.Debug("searching videos", "query", query, "max", limit)
	videos, err := r.newSearcher(config).Search(ctx, query, limit)
	if err != nil {
		return err
	}

	return r.writeJSON(videos, cmd.Bool("pretty"))
}
