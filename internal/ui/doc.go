// Package ui implements an interactive terminal browser for one user's playlists using bubbletea's Elm architecture.
//
// Views:
//  1. [PlaylistListView] : browse the user's playlists
//  2. [ItemListView] : browse, rate and remove the videos of one playlist
//  3. [ConfirmDeleteView] : confirm deleting a playlist
//
// Every change goes through a [Store] scoped to the chosen user, so the TUI and the HTTP API share the same
// ownership and validation rules.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
