package ui

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
)

// Store is the subset of the playlist store the TUI drives.
type Store interface {
	ListForUser(username string) ([]models.Playlist, error)
	Delete(username, id string) error
	SetRating(username, id, videoID string, rating int) (models.Playlist, error)
	RemoveItem(username, id, videoID string) (models.Playlist, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ItemListView
	ConfirmDeleteView
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Model represents the TUI application state.
type Model struct {
	store        Store
	username     string
	view         ViewState
	returnTo     ViewState
	width        int
	height       int
	playlistList list.Model
	itemList     list.Model
	playlists    []models.Playlist
	selected     *models.Playlist
	status       string
	statusErr    bool
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model that browses username's playlists in store.
func NewModel(store Store, username string) *Model {
	m := &Model{
		store:    store,
		username: username,
		view:     PlaylistListView,
		width:    defaultWidth,
		height:   defaultHeight,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.playlistList = m.newList(fmt.Sprintf("%s's playlists", username), nil)
	m.itemList = m.newList("", nil)
	return m
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, store Store, username string) error {
	p := tea.NewProgram(NewModel(store, username), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// Init loads the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.itemList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ItemListView:
			return m.handleItemListKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case playlistsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.playlists = msg.playlists
		m.playlistList.SetItems(playlistItems(m.playlists))
		if m.selected != nil {
			if p := m.find(m.selected.ID); p != nil {
				m.open(*p)
			} else {
				m.selected = nil
				m.view = PlaylistListView
			}
		}
		return m, nil

	case playlistChangedMsg:
		if msg.err != nil {
			m.setStatus(errorText(msg.err), true)
			return m, nil
		}
		m.replace(msg.playlist)
		if m.selected != nil && m.selected.ID == msg.playlist.ID {
			m.open(msg.playlist)
		}
		m.setStatus(msg.status, false)
		return m, nil

	case playlistDeletedMsg:
		if msg.err != nil {
			m.view = m.returnTo
			m.setStatus(errorText(msg.err), true)
			return m, nil
		}
		m.playlists = slices.DeleteFunc(m.playlists, func(p models.Playlist) bool { return p.ID == msg.id })
		m.playlistList.SetItems(playlistItems(m.playlists))
		m.selected = nil
		m.view = PlaylistListView
		m.setStatus(fmt.Sprintf("Deleted %q", msg.name), false)
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ItemListView:
		return m.renderItemList()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		return m, m.load()
	case key.Matches(msg, m.keys.back):
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.open(pl.playlist)
			m.view = ItemListView
			m.clearStatus()
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			p := pl.playlist
			m.selected = &p
			m.returnTo = PlaylistListView
			m.view = ConfirmDeleteView
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleItemListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.itemList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.selected = nil
		m.view = PlaylistListView
		m.clearStatus()
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.load()
	case key.Matches(msg, m.keys.rate):
		if it, ok := m.itemList.SelectedItem().(videoItem); ok {
			return m, m.rate(it.item, int(msg.String()[0]-'0'))
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if it, ok := m.itemList.SelectedItem().(videoItem); ok {
			return m, m.remove(it.item)
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		m.returnTo = ItemListView
		m.view = ConfirmDeleteView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes):
		if m.selected == nil {
			m.view = PlaylistListView
			return m, nil
		}
		return m, m.deletePlaylist(*m.selected)
	case key.Matches(msg, m.keys.no):
		if m.returnTo == PlaylistListView {
			m.selected = nil
		}
		m.view = m.returnTo
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ItemListView:
		m.itemList, cmd = m.itemList.Update(msg)
	}
	return m, cmd
}

func (m *Model) newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-8)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// open shows p in the item view, keeping the cursor where it was when p is already open.
func (m *Model) open(p models.Playlist) {
	cursor := 0
	if m.selected != nil && m.selected.ID == p.ID {
		cursor = m.itemList.Index()
	}
	m.selected = &p
	m.itemList.Title = p.Name
	m.itemList.SetItems(videoItems(&p))
	if n := len(p.Items); n > 0 {
		m.itemList.Select(min(cursor, n-1))
	}
}

func (m *Model) find(id string) *models.Playlist {
	for i := range m.playlists {
		if m.playlists[i].ID == id {
			return &m.playlists[i]
		}
	}
	return nil
}

func (m *Model) replace(p models.Playlist) {
	if existing := m.find(p.ID); existing != nil {
		*existing = p
		m.playlistList.SetItems(playlistItems(m.playlists))
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m *Model) clearStatus() {
	m.setStatus("", false)
}

func errorText(err error) string {
	if msg, ok := shared.PublicMessage(err); ok {
		return msg
	}
	return err.Error()
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.store.ListForUser(m.username)
		return playlistsLoadedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) rate(item models.PlaylistItem, rating int) tea.Cmd {
	id := m.selected.ID
	return func() tea.Msg {
		p, err := m.store.SetRating(m.username, id, item.VideoID, rating)
		return playlistChangedMsg{
			playlist: p,
			status:   fmt.Sprintf("Rated %q %d/%d", item.Title, rating, models.MaxRating),
			err:      err,
		}
	}
}

func (m *Model) remove(item models.PlaylistItem) tea.Cmd {
	id := m.selected.ID
	return func() tea.Msg {
		p, err := m.store.RemoveItem(m.username, id, item.VideoID)
		return playlistChangedMsg{playlist: p, status: fmt.Sprintf("Removed %q", item.Title), err: err}
	}
}

func (m *Model) deletePlaylist(p models.Playlist) tea.Cmd {
	return func() tea.Msg {
		err := m.store.Delete(m.username, p.ID)
		return playlistDeletedMsg{id: p.ID, name: p.Name, err: err}
	}
}

func (m *Model) renderStatus() string {
	switch {
	case m.status == "":
		return ""
	case m.statusErr:
		return "\n" + styles.err.Render(m.status)
	default:
		return "\n" + styles.ok.Render(m.status)
	}
}

func (m *Model) renderPlaylistList() string {
	body := m.playlistList.View()
	if len(m.playlists) == 0 {
		body = styles.help.Render("No playlists yet. Create one from the web app.")
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.delete, m.keys.reload, m.keys.quit})
	return fmt.Sprintf("%s%s\n\n%s", body, m.renderStatus(), helpView)
}

func (m *Model) renderItemList() string {
	body := m.itemList.View()
	if m.selected != nil && len(m.selected.Items) == 0 {
		body = styles.title.Render(m.selected.Name) + "\n" + styles.help.Render("This playlist is empty.")
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.rate, m.keys.remove, m.keys.delete, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s%s\n\n%s", body, m.renderStatus(), helpView)
}

func (m *Model) renderConfirm() string {
	if m.selected == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Delete '%s'?", m.selected.Name))
	info := styles.warn.Render(fmt.Sprintf("%d videos will be removed. This cannot be undone.", len(m.selected.Items)))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
