package ui

import (
	"github.com/desertthunder/ytlists/internal/models"
)

// playlistsLoadedMsg carries the result of a [Store.ListForUser] call.
type playlistsLoadedMsg struct {
	playlists []models.Playlist
	err       error
}

// playlistChangedMsg carries the playlist returned by a rating or removal.
type playlistChangedMsg struct {
	playlist models.Playlist
	status   string
	err      error
}

// playlistDeletedMsg reports a finished delete.
type playlistDeletedMsg struct {
	id   string
	name string
	err  error
}
