package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/ytlists/internal/formatter"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 5
	maxWorkers     = 10
	defaultRate    = 5.0
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // csv, markdown or txt
	OutputDir  string           // Base output directory (default: {username}_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Cover downloads per second (default: 5)
	Covers     bool             // Download a cover image for Markdown exports
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlistId"`
	PlaylistName string   `json:"playlistName"`
	Success      bool     `json:"success"`
	Files        []string `json:"files"`
	Error        error    `json:"-"`
	ErrorMessage string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export. It is also the manifest written next to the exports.
type BulkExportResult struct {
	Username          string                 `json:"username"`
	Format            formatter.Format       `json:"format"`
	ExportedAt        time.Time              `json:"exportedAt"`
	TotalPlaylists    int                    `json:"totalPlaylists"`
	SuccessfulExports int                    `json:"successfulExports"`
	FailedExports     int                    `json:"failedExports"`
	OutputDirectory   string                 `json:"outputDirectory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

type exportJob struct {
	index    int
	playlist models.Playlist
}

type indexedResult struct {
	index int
	PlaylistExportResult
}

// BulkExport exports username's playlists concurrently and writes a manifest.
//
// When ids is empty every playlist is exported. Requested ids the user does not own are reported as failed
// results, never as a hard error. A cancelled ctx stops the workers and returns the partial result with ctx.Err().
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	username string,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username required", shared.ErrMissingArgument)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatCSV
	}
	format, err := formatter.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("%s_export_%d", username, time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	opts.NumWorkers = min(opts.NumWorkers, maxWorkers)
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRate
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.sendProgress(prog, loadingPlaylistsUpdate(username))
	owned, err := e.store.ListForUser(username)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}

	result := &BulkExportResult{
		Username:        username,
		Format:          opts.Format,
		ExportedAt:      time.Now().UTC(),
		OutputDirectory: opts.OutputDir,
	}

	jobs, missing := selectPlaylists(owned, ids)
	total := len(jobs) + len(missing)
	result.TotalPlaylists = total
	e.sendProgress(prog, loadedPlaylistsUpdate(total))

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	client := e.throttled(rate.NewLimiter(rate.Limit(opts.RateLimit), 1))

	jobCh := make(chan exportJob)
	results := make(chan indexedResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobCh, results, opts, client)
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobCh <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]indexedResult, 0, total)
	completed := 0
	for _, res := range missing {
		completed++
		collected = append(collected, res)
		e.sendProgress(prog, exportFailedUpdate(completed, total, res.PlaylistName, res.Error))
	}

	for res := range results {
		completed++
		collected = append(collected, res)
		if res.Success {
			e.sendProgress(prog, exportCompletedUpdate(completed, total, res.PlaylistName, len(res.Files)))
		} else {
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, total, res.PlaylistName, res.Error))
		}
	}

	slices.SortFunc(collected, func(a, b indexedResult) int { return a.index - b.index })
	result.Results = make([]PlaylistExportResult, 0, len(collected))
	for _, res := range collected {
		if res.Success {
			result.SuccessfulExports++
		} else {
			result.FailedExports++
		}
		result.Results = append(result.Results, res.PlaylistExportResult)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	return result, nil
}

// selectPlaylists returns the jobs to run and failed results for ids that are not in owned.
func selectPlaylists(owned []models.Playlist, ids []string) ([]exportJob, []indexedResult) {
	if len(ids) == 0 {
		jobs := make([]exportJob, len(owned))
		for i, p := range owned {
			jobs[i] = exportJob{index: i, playlist: p}
		}
		return jobs, nil
	}

	var (
		jobs    []exportJob
		missing []indexedResult
	)
	for i, id := range ids {
		j := slices.IndexFunc(owned, func(p models.Playlist) bool { return p.ID == id })
		if j < 0 {
			err := fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
			missing = append(missing, indexedResult{
				index: i,
				PlaylistExportResult: PlaylistExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Files:        []string{},
					Error:        err,
					ErrorMessage: err.Error(),
				},
			})
			continue
		}
		jobs = append(jobs, exportJob{index: i, playlist: owned[j]})
	}
	return jobs, missing
}

// exportWorker exports playlists from jobs until it is closed or ctx is cancelled.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- indexedResult,
	opts BulkExportOpts,
	client *http.Client,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- indexedResult{index: job.index, PlaylistExportResult: e.exportSinglePlaylist(ctx, job.playlist, opts, client)}
	}
}

// exportSinglePlaylist writes one playlist under opts.OutputDir, named by playlist id.
func (e *Exporter) exportSinglePlaylist(ctx context.Context, p models.Playlist, opts BulkExportOpts, client *http.Client) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   p.ID,
		PlaylistName: p.Name,
		Files:        []string{},
	}

	var dest string
	switch opts.Format {
	case formatter.FormatCSV, formatter.FormatMarkdown:
		dest = filepath.Join(opts.OutputDir, p.ID)
	case formatter.FormatText:
		dest = filepath.Join(opts.OutputDir, p.ID+"_items.txt")
	}

	files, err := formatter.Write(ctx, opts.Format, &p, dest, formatter.MarkdownOptions{
		Cover:  opts.Covers,
		Client: client,
		Logger: e.logger,
	})
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		result.ErrorMessage = result.Error.Error()
		return result
	}

	result.Files = files
	result.Success = true
	return result
}

// writeManifest writes result as pretty JSON to path.
func writeManifest(result *BulkExportResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
