// package formatter exports playlists to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat maps user input to a [Format]. "md" and "text" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// WatchURL is the public page of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ExportToCSV writes one row per item: Video ID, Title, Duration, Views, Rating, Added, URL
func ExportToCSV(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Video ID", "Title", "Duration", "Views", "Rating", "Added", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range p.Items {
		record := []string{
			item.VideoID,
			item.Title,
			strconv.Itoa(item.DurationSec),
			strconv.FormatInt(item.Views, 10),
			strconv.Itoa(item.Rating),
			item.AddedAt.UTC().Format(time.RFC3339),
			WatchURL(item.VideoID),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// stars renders a 0-5 rating.
func stars(rating int) string {
	rating = max(models.MinRating, min(rating, models.MaxRating))
	return strings.Repeat("★", rating) + strings.Repeat("☆", models.MaxRating-rating)
}

// ExportToMarkdown renders p as a Markdown document with an optional cover image
func ExportToMarkdown(p *models.Playlist, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Owner**: %s\n", p.Username)
	fmt.Fprintf(&buf, "**Videos**: %d\n", len(p.Items))
	fmt.Fprintf(&buf, "**Total duration**: %s\n\n", shared.FormatDuration(p.TotalDuration()))

	buf.WriteString("## Videos\n\n")
	for i, item := range p.Items {
		fmt.Fprintf(&buf, "%d. [%s](%s) [%s] %s\n",
			i+1, item.Title, WatchURL(item.VideoID), shared.FormatDuration(item.DurationSec), stars(item.Rating))
	}

	return buf.Bytes(), nil
}

// ExportToText renders p as plain text
func ExportToText(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	fmt.Fprintf(&buf, "Videos: %d\n\n", len(p.Items))

	for i, item := range p.Items {
		fmt.Fprintf(&buf, "%d. %s (%s) %d/%d\n", i+1, item.Title, shared.FormatDuration(item.DurationSec), item.Rating, models.MaxRating)
	}

	return buf.Bytes(), nil
}

// DownloadImage fetches url and returns the raw bytes.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// Metadata is a playlist without its items.
type Metadata struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	CreatedAt     time.Time `json:"createdAt"`
	ItemCount     int       `json:"itemCount"`
	TotalDuration int       `json:"totalDurationSec"`
}

// ToMetadataJSON generates the pretty JSON form of p's [Metadata]
func ToMetadataJSON(p *models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(Metadata{
		ID:            p.ID,
		Name:          p.Name,
		Username:      p.Username,
		CreatedAt:     p.CreatedAt,
		ItemCount:     len(p.Items),
		TotalDuration: p.TotalDuration(),
	}, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	MetadataFile string
}

// WriteCSVExport writes {base}_items.csv and {base}_metadata.json.
//
// base defaults to the playlist ID.
func WriteCSVExport(p *models.Playlist, base string) (*CSVExportResult, error) {
	if base == "" {
		base = p.ID
	}

	csvData, err := ExportToCSV(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	itemsFile := base + "_items.csv"
	if err := os.WriteFile(itemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := base + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{ItemsFile: itemsFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// MarkdownOptions controls [WriteMarkdownExport]. A zero value skips the cover image.
type MarkdownOptions struct {
	// Cover downloads the first item's thumbnail into cover.jpg.
	Cover  bool
	Client *http.Client
	Logger *log.Logger
}

// WriteMarkdownExport writes {dir}/README.md and, optionally, {dir}/cover.jpg.
//
// dir defaults to the playlist ID. A failed cover download is logged and skipped.
func WriteMarkdownExport(ctx context.Context, p *models.Playlist, dir string, opts MarkdownOptions) (*MarkdownExportResult, error) {
	if dir == "" {
		dir = p.ID
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: dir, Files: []string{}}

	var coverImageFilename string
	if opts.Cover && len(p.Items) > 0 && p.Items[0].ThumbnailURL != "" {
		imageData, err := DownloadImage(ctx, opts.Client, p.Items[0].ThumbnailURL)
		if err != nil {
			logger.Warn("failed to download cover image", "error", err)
		} else {
			coverPath := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(coverPath, imageData, 0644); err != nil {
				logger.Warn("failed to save cover image", "error", err)
			} else {
				coverImageFilename = "cover.jpg"
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(p, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport writes p as plain text, defaulting to {playlist.ID}_items.txt.
func WriteTextExport(p *models.Playlist, path string) (string, error) {
	if path == "" {
		path = p.ID + "_items.txt"
	}

	textData, err := ExportToText(p)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// Write exports p in format to dest and returns every file written.
//
// dest is a base path for CSV, a directory for Markdown and a file for text.
func Write(ctx context.Context, format Format, p *models.Playlist, dest string, opts MarkdownOptions) ([]string, error) {
	switch format {
	case FormatCSV:
		res, err := WriteCSVExport(p, dest)
		if err != nil {
			return nil, err
		}
		return []string{res.ItemsFile, res.MetadataFile}, nil
	case FormatMarkdown:
		res, err := WriteMarkdownExport(ctx, p, dest, opts)
		if err != nil {
			return nil, err
		}
		return res.Files, nil
	case FormatText:
		path, err := WriteTextExport(p, dest)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}
