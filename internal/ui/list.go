package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = videoItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	n := len(i.playlist.Items)
	noun := "videos"
	if n == 1 {
		noun = "video"
	}
	return fmt.Sprintf("%d %s • %s", n, noun, shared.FormatDuration(i.playlist.TotalDuration()))
}

// videoItem wraps [models.PlaylistItem] to implement [list.Item].
type videoItem struct {
	item models.PlaylistItem
}

func (i videoItem) FilterValue() string { return i.item.Title }
func (i videoItem) Title() string       { return i.item.Title }
func (i videoItem) Description() string {
	return fmt.Sprintf("%s • %s • %d views", stars(i.item.Rating), shared.FormatDuration(i.item.DurationSec), i.item.Views)
}

func stars(rating int) string {
	rating = max(models.MinRating, min(rating, models.MaxRating))
	return strings.Repeat("★", rating) + strings.Repeat("☆", models.MaxRating-rating)
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, pl := range playlists {
		items[i] = playlistItem{playlist: pl}
	}
	return items
}

func videoItems(p *models.Playlist) []list.Item {
	items := make([]list.Item, len(p.Items))
	for i, it := range p.Items {
		items[i] = videoItem{item: it}
	}
	return items
}
