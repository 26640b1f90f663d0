package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytlists/internal/formatter"
	"github.com/desertthunder/ytlists/internal/shared"
	"github.com/desertthunder/ytlists/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints a user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	b, err := r.openBackend(config)
	if err != nil {
		return err
	}
	defer b.close()

	username, err := r.resolveUser(b, cmd.String("user"))
	if err != nil {
		return err
	}

	playlists, err := b.playlists.ListForUser(username)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		r.writePlain("No playlists found for %s\n", username)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("%s's playlists", username))
	for _, p := range playlists {
		r.writePlain("%s  %s (%d videos, %s)\n", p.ID, p.Name, len(p.Items), shared.FormatDuration(p.TotalDuration()))
	}
	r.writePlain("\nTotal: %d playlists\n", len(playlists))
	return nil
}

// PlaylistsExport writes one playlist to --output, or runs a bulk export with a manifest when zero or
// several --id values are given.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	b, err := r.openBackend(config)
	if err != nil {
		return err
	}
	defer b.close()

	username, err := r.resolveUser(b, cmd.String("user"))
	if err != nil {
		return err
	}

	ids := cmd.StringSlice("id")
	if len(ids) == 1 {
		return r.exportOne(ctx, b, username, ids[0], format, cmd)
	}

	r.logger.Info("starting bulk export", "user", username, "format", format)
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadPlaylists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportPlaylist:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	exporter := tasks.NewExporter(b.playlists, r.httpClient, r.logger)
	result, err := exporter.BulkExport(ctx, progressCh, username, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  config.YouTube.RequestsPerSecond,
		Covers:     cmd.Bool("covers"),
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d/%d playlists\n", result.SuccessfulExports, result.TotalPlaylists)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed (%d):\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %s: %s\n", res.PlaylistName, res.ErrorMessage)
			}
		}
	}
	return nil
}

func (r *Runner) exportOne(ctx context.Context, b *backend, username, id string, format formatter.Format, cmd *cli.Command) error {
	p, err := b.playlists.Get(username, id)
	if err != nil {
		return err
	}

	files, err := formatter.Write(ctx, format, &p, cmd.String("output"), formatter.MarkdownOptions{
		Cover:  cmd.Bool("covers"),
		Client: r.httpClient,
		Logger: r.logger,
	})
	if err != nil {
		return fmt.Errorf("%s export failed: %w", format, err)
	}

	r.logger.Info("exported playlist", "id", p.ID, "format", format)
	r.writePlain("✓ Exported %q (%d videos)\n", p.Name, len(p.Items))
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}
