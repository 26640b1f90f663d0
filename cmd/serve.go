package main

import (
	"context"
	"fmt"
	"net"

	"github.com/desertthunder/ytlists/internal/auth"
	"github.com/desertthunder/ytlists/internal/server"
	"github.com/desertthunder/ytlists/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	loaded, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	config := *loaded
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if cmd.IsSet("port") {
		config.Server.Port = int(cmd.Int("port"))
	}
	if err := config.Validate(); err != nil {
		return err
	}

	b, err := r.openBackend(&config)
	if err != nil {
		return err
	}
	defer b.close()

	sessions := auth.NewSessionStore()
	defer sessions.Close()

	accounts, err := r.newAccounts(&config, b, sessions)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Server.Addr(), err)
	}

	srv := server.New(&config, server.Deps{
		Accounts:  accounts,
		Sessions:  sessions,
		Playlists: b.playlists,
		Searcher:  r.newSearcher(&config),
		Logger:    r.logger,
	})

	url := "http://" + ln.Addr().String()
	r.writePlain("Serving on %s (storage: %s)\n", url, config.Storage.Backend)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "url", url, "error", err)
		}
	}

	return srv.Serve(ctx, ln)
}
