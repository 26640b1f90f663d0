package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/repositories"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

// press sends msg and feeds back the message produced by the returned command, if it is one of ours.
func press(m *Model, msg tea.Msg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	switch out.(type) {
	case playlistsLoadedMsg, playlistChangedMsg, playlistDeletedMsg:
		m.Update(out)
	}
	return out
}

func seed(t *testing.T) (*repositories.PlaylistStore, models.Playlist) {
	t.Helper()
	store := repositories.NewPlaylistStore(repositories.NewFileDocuments(t.TempDir()))

	p, err := store.Create("alice", "Focus")
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	for _, item := range []models.PlaylistItem{
		{VideoID: "a", Title: "First", DurationSec: 60},
		{VideoID: "b", Title: "Second", DurationSec: 120},
	} {
		if p, err = store.AddItem("alice", p.ID, item); err != nil {
			t.Fatalf("failed to add item: %v", err)
		}
	}
	if _, err := store.Create("bob", "Not yours"); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	return store, p
}

func newLoadedModel(t *testing.T, store Store) *Model {
	t.Helper()
	m := NewModel(store, "alice")
	m.Update(m.Init()())
	return m
}

func TestModel(t *testing.T) {
	t.Run("Init loads only the user's playlists", func(t *testing.T) {
		store, _ := seed(t)
		m := newLoadedModel(t, store)

		if len(m.playlists) != 1 || m.playlists[0].Name != "Focus" {
			t.Fatalf("unexpected playlists %+v", m.playlists)
		}
		if got := len(m.playlistList.Items()); got != 1 {
			t.Errorf("expected one list entry, got %d", got)
		}
		if !strings.Contains(m.View(), "Focus") {
			t.Errorf("view should show the playlist, got %q", m.View())
		}
	})

	t.Run("enter opens and esc goes back", func(t *testing.T) {
		store, p := seed(t)
		m := newLoadedModel(t, store)

		press(m, enter)
		if m.view != ItemListView || m.selected == nil || m.selected.ID != p.ID {
			t.Fatalf("expected item view for %s, got view %d", p.ID, m.view)
		}
		if got := len(m.itemList.Items()); got != 2 {
			t.Errorf("expected two items, got %d", got)
		}

		press(m, esc)
		if m.view != PlaylistListView || m.selected != nil {
			t.Errorf("expected playlist view after esc, got %d", m.view)
		}
	})

	t.Run("digits rate the selected item", func(t *testing.T) {
		store, p := seed(t)
		m := newLoadedModel(t, store)
		press(m, enter)
		m.itemList.Select(1)

		out := press(m, runes("4"))
		if changed, ok := out.(playlistChangedMsg); !ok || changed.err != nil {
			t.Fatalf("expected a successful change, got %#v", out)
		}

		stored, _ := store.Get("alice", p.ID)
		if stored.Items[1].Rating != 4 || stored.Items[0].Rating != 0 {
			t.Errorf("unexpected ratings %+v", stored.Items)
		}
		if m.itemList.Index() != 1 {
			t.Errorf("cursor should stay on the rated item, got %d", m.itemList.Index())
		}
		if !strings.Contains(m.status, "Rated \"Second\" 4/5") {
			t.Errorf("unexpected status %q", m.status)
		}

		press(m, runes("0"))
		stored, _ = store.Get("alice", p.ID)
		if stored.Items[1].Rating != 0 {
			t.Errorf("expected rating reset to 0, got %d", stored.Items[1].Rating)
		}
	})

	t.Run("x removes the selected item", func(t *testing.T) {
		store, p := seed(t)
		m := newLoadedModel(t, store)
		press(m, enter)

		press(m, runes("x"))

		stored, _ := store.Get("alice", p.ID)
		if len(stored.Items) != 1 || stored.Items[0].VideoID != "b" {
			t.Errorf("unexpected items %+v", stored.Items)
		}
		if len(m.itemList.Items()) != 1 {
			t.Errorf("item list not refreshed")
		}
		if len(m.playlists[0].Items) != 1 {
			t.Errorf("playlist cache not refreshed")
		}
	})

	t.Run("delete asks for confirmation", func(t *testing.T) {
		store, p := seed(t)
		m := newLoadedModel(t, store)

		press(m, runes("d"))
		if m.view != ConfirmDeleteView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if !strings.Contains(m.View(), "Delete 'Focus'?") {
			t.Errorf("unexpected confirm view %q", m.View())
		}

		press(m, runes("n"))
		if m.view != PlaylistListView {
			t.Errorf("n should cancel, got view %d", m.view)
		}
		if _, err := store.Get("alice", p.ID); err != nil {
			t.Fatalf("playlist should survive a cancel: %v", err)
		}

		press(m, runes("d"))
		press(m, runes("y"))
		if m.view != PlaylistListView || len(m.playlists) != 0 {
			t.Errorf("expected an empty playlist view, got view %d with %d playlists", m.view, len(m.playlists))
		}
		if _, err := store.Get("alice", p.ID); err == nil {
			t.Error("playlist should be gone")
		}
		if !strings.Contains(m.View(), "No playlists yet") {
			t.Errorf("expected empty state, got %q", m.View())
		}
	})

	t.Run("delete from the item view returns there on cancel", func(t *testing.T) {
		store, _ := seed(t)
		m := newLoadedModel(t, store)
		press(m, enter)

		press(m, runes("d"))
		press(m, esc)
		if m.view != ItemListView || m.selected == nil {
			t.Errorf("expected to return to the item view, got %d", m.view)
		}
	})

	t.Run("reload picks up outside changes", func(t *testing.T) {
		store, p := seed(t)
		m := newLoadedModel(t, store)
		press(m, enter)

		if _, err := store.SetRating("alice", p.ID, "a", 3); err != nil {
			t.Fatal(err)
		}
		press(m, runes("r"))

		if m.selected.Items[0].Rating != 3 {
			t.Errorf("expected reloaded rating 3, got %d", m.selected.Items[0].Rating)
		}

		if err := store.Delete("alice", p.ID); err != nil {
			t.Fatal(err)
		}
		press(m, runes("r"))
		if m.view != PlaylistListView || m.selected != nil {
			t.Errorf("a vanished playlist should return to the list, got view %d", m.view)
		}
	})

	t.Run("store errors become status lines", func(t *testing.T) {
		store, _ := seed(t)
		m := newLoadedModel(t, failingStore{PlaylistStore: store})
		press(m, enter)

		press(m, runes("5"))
		if !m.statusErr || m.status != "Item not found." {
			t.Errorf("expected error status, got %q (err=%v)", m.status, m.statusErr)
		}
	})

	t.Run("load errors are shown", func(t *testing.T) {
		m := NewModel(failingStore{loadErr: errors.New("disk on fire")}, "alice")
		m.Update(m.Init()())

		if !strings.Contains(m.View(), "disk on fire") {
			t.Errorf("expected error view, got %q", m.View())
		}
	})

	t.Run("q quits", func(t *testing.T) {
		store, _ := seed(t)
		m := newLoadedModel(t, store)

		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

// failingStore wraps a real store and fails ratings with the store's not-found error.
type failingStore struct {
	*repositories.PlaylistStore
	loadErr error
}

func (s failingStore) ListForUser(username string) ([]models.Playlist, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.PlaylistStore.ListForUser(username)
}

func (s failingStore) SetRating(username, id, _ string, rating int) (models.Playlist, error) {
	return s.PlaylistStore.SetRating(username, id, "missing", rating)
}
