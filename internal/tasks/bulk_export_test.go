package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ytlists/internal/formatter"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/repositories"
	"github.com/desertthunder/ytlists/internal/shared"
)

func seedStore(t *testing.T, n int, thumb string) (*repositories.PlaylistStore, []models.Playlist) {
	t.Helper()
	store := repositories.NewPlaylistStore(repositories.NewFileDocuments(t.TempDir()))

	playlists := make([]models.Playlist, 0, n)
	for i := range n {
		p, err := store.Create("alice", fmt.Sprintf("Playlist %d", i+1))
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		p, err = store.AddItem("alice", p.ID, models.PlaylistItem{
			VideoID:      fmt.Sprintf("vid%d", i+1),
			Title:        "Song",
			ThumbnailURL: thumb,
			DurationSec:  90,
		})
		if err != nil {
			t.Fatalf("failed to add item: %v", err)
		}
		playlists = append(playlists, p)
	}

	if _, err := store.Create("bob", "Bob's"); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	return store, playlists
}

func TestBulkExport_SuccessfulExport(t *testing.T) {
	tests := []struct {
		name          string
		format        formatter.Format
		playlistCount int
		filesEach     int
	}{
		{name: "multiple playlists csv export", format: formatter.FormatCSV, playlistCount: 3, filesEach: 2},
		{name: "text export", format: formatter.FormatText, playlistCount: 2, filesEach: 1},
		{name: "markdown export", format: formatter.FormatMarkdown, playlistCount: 1, filesEach: 1},
		{name: "alias format", format: "md", playlistCount: 1, filesEach: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, playlists := seedStore(t, tt.playlistCount, "")
			outDir := filepath.Join(t.TempDir(), "export")

			result, err := NewExporter(store, nil, nil).BulkExport(context.Background(), nil, "alice", nil, BulkExportOpts{
				Format:    tt.format,
				OutputDir: outDir,
			})
			if err != nil {
				t.Fatalf("BulkExport failed: %v", err)
			}

			if result.TotalPlaylists != tt.playlistCount || result.SuccessfulExports != tt.playlistCount || result.FailedExports != 0 {
				t.Errorf("unexpected counts %+v", result)
			}
			for i, res := range result.Results {
				if res.PlaylistID != playlists[i].ID {
					t.Errorf("results should keep store order: got %s at %d", res.PlaylistID, i)
				}
				if len(res.Files) != tt.filesEach {
					t.Errorf("expected %d files, got %v", tt.filesEach, res.Files)
				}
				for _, f := range res.Files {
					if _, err := os.Stat(f); err != nil {
						t.Errorf("missing export file %s: %v", f, err)
					}
				}
			}

			if result.ManifestPath != filepath.Join(outDir, "export_manifest.json") {
				t.Errorf("unexpected manifest path %s", result.ManifestPath)
			}
		})
	}
}

func TestBulkExport_Selection(t *testing.T) {
	store, playlists := seedStore(t, 3, "")
	bobs, _ := store.ListForUser("bob")
	outDir := t.TempDir()

	ids := []string{playlists[2].ID, "pl_missing", bobs[0].ID, playlists[0].ID}
	result, err := NewExporter(store, nil, nil).BulkExport(context.Background(), nil, "alice", ids, BulkExportOpts{
		Format:    formatter.FormatText,
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}

	if result.TotalPlaylists != 4 || result.SuccessfulExports != 2 || result.FailedExports != 2 {
		t.Fatalf("unexpected counts %+v", result)
	}

	for i, id := range ids {
		if result.Results[i].PlaylistID != id {
			t.Errorf("result %d: expected %s, got %s", i, id, result.Results[i].PlaylistID)
		}
	}
	if result.Results[2].Success {
		t.Error("another user's playlist must not be exported")
	}
	if !errors.Is(result.Results[1].Error, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", result.Results[1].Error)
	}
}

func TestBulkExport_Manifest(t *testing.T) {
	store, _ := seedStore(t, 2, "")
	outDir := t.TempDir()

	result, err := NewExporter(store, nil, nil).BulkExport(context.Background(), nil, "alice", []string{"nope"}, BulkExportOpts{
		Format:    formatter.FormatCSV,
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}

	data, err := os.ReadFile(result.ManifestPath)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}

	var manifest BulkExportResult
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if manifest.Username != "alice" || manifest.Format != formatter.FormatCSV || manifest.FailedExports != 1 {
		t.Errorf("unexpected manifest %+v", manifest)
	}
	if !strings.Contains(string(data), `"error": "not found: playlist nope"`) {
		t.Errorf("manifest should carry the failure message, got %s", data)
	}
}

func TestWriteManifest(t *testing.T) {
	t.Run("writes indented JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export_manifest.json")
		result := &BulkExportResult{Username: "bob", Format: formatter.FormatMarkdown, TotalPlaylists: 1, SuccessfulExports: 1}
		if err := writeManifest(result, path); err != nil {
			t.Fatalf("writeManifest failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		if !strings.Contains(string(data), "\n  \"username\": \"bob\"") {
			t.Errorf("expected indented manifest, got %s", data)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gone", "export_manifest.json")
		if err := writeManifest(&BulkExportResult{}, path); err == nil {
			t.Error("expected an error for a missing directory")
		}
	})
}

func TestBulkExport_Covers(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	store, playlists := seedStore(t, 3, srv.URL+"/mq.jpg")
	outDir := t.TempDir()

	start := time.Now()
	result, err := NewExporter(store, srv.Client(), nil).BulkExport(context.Background(), nil, "alice", nil, BulkExportOpts{
		Format:     formatter.FormatMarkdown,
		OutputDir:  outDir,
		NumWorkers: 3,
		RateLimit:  20,
		Covers:     true,
	})
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}

	if hits.Load() != 3 {
		t.Errorf("expected 3 cover downloads, got %d", hits.Load())
	}
	for _, p := range playlists {
		if _, err := os.Stat(filepath.Join(outDir, p.ID, "cover.jpg")); err != nil {
			t.Errorf("missing cover for %s: %v", p.ID, err)
		}
	}
	for _, res := range result.Results {
		if len(res.Files) != 2 {
			t.Errorf("expected README and cover, got %v", res.Files)
		}
	}

	// burst 1 at 20/s: three downloads need at least two intervals
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("cover downloads were not throttled (%v)", elapsed)
	}
}

func TestBulkExport_Errors(t *testing.T) {
	t.Run("missing username", func(t *testing.T) {
		store, _ := seedStore(t, 1, "")
		_, err := NewExporter(store, nil, nil).BulkExport(context.Background(), nil, "", nil, BulkExportOpts{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		store, _ := seedStore(t, 1, "")
		_, err := NewExporter(store, nil, nil).BulkExport(context.Background(), nil, "alice", nil, BulkExportOpts{Format: "pdf", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		store, _ := seedStore(t, 2, "")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewExporter(store, nil, nil).BulkExport(ctx, nil, "alice", nil, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "playlists.json"), []byte("{broken"), 0644); err != nil {
			t.Fatal(err)
		}
		store := repositories.NewPlaylistStore(repositories.NewFileDocuments(dir))

		_, err := NewExporter(store, nil, nil).BulkExport(context.Background(), nil, "alice", nil, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrCorruptData) {
			t.Errorf("expected ErrCorruptData, got %v", err)
		}
	})
}

func TestBulkExport_Progress(t *testing.T) {
	store, _ := seedStore(t, 3, "")
	progress := make(chan ProgressUpdate, 20)

	_, err := NewExporter(store, nil, nil).BulkExport(context.Background(), progress, "alice", nil, BulkExportOpts{
		Format:    formatter.FormatText,
		OutputDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}
	close(progress)

	phases := map[Phase]int{}
	for u := range progress {
		phases[u.Phase]++
	}
	if phases[LoadPlaylists] != 2 || phases[ExportPlaylist] != 3 || phases[WriteManifest] != 1 {
		t.Errorf("unexpected progress phases %v", phases)
	}
}

func TestSendProgressNeverBlocks(t *testing.T) {
	e := NewExporter(nil, nil, nil)
	full := make(chan ProgressUpdate)

	done := make(chan struct{})
	go func() {
		e.sendProgress(full, ProgressUpdate{Message: "dropped"})
		e.sendProgress(nil, ProgressUpdate{Message: "ignored"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendProgress blocked")
	}
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		LoadPlaylists:  "load_playlists",
		ExportPlaylist: "export_playlist",
		WriteManifest:  "write_manifest",
		Phase(99):      "",
	} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
