package repositories

import (
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
)

var (
	errNotAuthenticated = shared.NewRequestError(shared.ErrNotAuthenticated, "Not authenticated")
	errPlaylistNotFound = shared.NewRequestError(shared.ErrNotFound, "Playlist not found.")
	errItemNotFound     = shared.NewRequestError(shared.ErrNotFound, "Item not found.")
	errNameRequired     = shared.NewRequestError(shared.ErrInvalidInput, "Playlist name required.")
	errInvalidItem      = shared.NewRequestError(shared.ErrInvalidInput, "Invalid item payload.")
	errInvalidRating    = shared.NewRequestError(shared.ErrInvalidInput, "Rating must be an integer between 0 and 5.")
)

// PlaylistStore holds every user's playlists in one document.
//
// All operations are scoped to the acting username. A playlist owned by someone else is reported
// exactly like a missing one.
type PlaylistStore struct {
	coll  *collection[models.Playlist]
	now   func() time.Time
	newID func() string
}

// NewPlaylistStore creates a [PlaylistStore] over the playlists document of docs.
func NewPlaylistStore(docs Documents, opts ...Option) *PlaylistStore {
	o := buildOptions(opts)
	return &PlaylistStore{
		coll:  newCollection[models.Playlist](docs, PlaylistsDocument, o),
		now:   o.now,
		newID: o.newID,
	}
}

// ListForUser returns the playlists owned by username in creation order.
func (s *PlaylistStore) ListForUser(username string) ([]models.Playlist, error) {
	if username == "" {
		return nil, errNotAuthenticated
	}

	mine := []models.Playlist{}
	err := s.coll.view(func(all []models.Playlist) error {
		for _, p := range all {
			if p.OwnedBy(username) {
				mine = append(mine, p)
			}
		}
		return nil
	})
	return mine, err
}

// Get returns a single playlist owned by username.
func (s *PlaylistStore) Get(username, id string) (models.Playlist, error) {
	if username == "" {
		return models.Playlist{}, errNotAuthenticated
	}

	var found models.Playlist
	err := s.coll.view(func(all []models.Playlist) error {
		i := indexOwned(all, username, id)
		if i < 0 {
			return errPlaylistNotFound
		}
		found = all[i]
		return nil
	})
	return found, err
}

// Create appends an empty playlist named name (trimmed) for username.
func (s *PlaylistStore) Create(username, name string) (models.Playlist, error) {
	if username == "" {
		return models.Playlist{}, errNotAuthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, errNameRequired
	}

	p := models.Playlist{
		ID:        s.newID(),
		Username:  username,
		Name:      name,
		Items:     []models.PlaylistItem{},
		CreatedAt: s.now().UTC(),
	}
	err := s.coll.update(func(all []models.Playlist) ([]models.Playlist, bool, error) {
		return append(all, p), true, nil
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return p, nil
}

// Delete removes the playlist if username owns it.
func (s *PlaylistStore) Delete(username, id string) error {
	if username == "" {
		return errNotAuthenticated
	}

	return s.coll.update(func(all []models.Playlist) ([]models.Playlist, bool, error) {
		i := indexOwned(all, username, id)
		if i < 0 {
			return nil, false, errPlaylistNotFound
		}
		return slices.Delete(all, i, i+1), true, nil
	})
}

// AddItem appends item unless a video with the same id is already in the playlist, in which case
// the playlist is returned unchanged.
func (s *PlaylistStore) AddItem(username, id string, item models.PlaylistItem) (models.Playlist, error) {
	if username == "" {
		return models.Playlist{}, errNotAuthenticated
	}
	if item.Validate() != nil || !models.ValidRating(item.Rating) {
		return models.Playlist{}, errInvalidItem
	}

	var out models.Playlist
	err := s.coll.update(func(all []models.Playlist) ([]models.Playlist, bool, error) {
		i := indexOwned(all, username, id)
		if i < 0 {
			return nil, false, errPlaylistNotFound
		}

		p := &all[i]
		if p.IndexOf(item.VideoID) >= 0 {
			out = *p
			return all, false, nil
		}

		item.AddedAt = s.now().UTC()
		p.Items = append(p.Items, item)
		out = *p
		return all, true, nil
	})
	return out, err
}

// SetRating overwrites the rating of one item.
func (s *PlaylistStore) SetRating(username, id, videoID string, rating int) (models.Playlist, error) {
	if username == "" {
		return models.Playlist{}, errNotAuthenticated
	}
	if !models.ValidRating(rating) {
		return models.Playlist{}, errInvalidRating
	}

	var out models.Playlist
	err := s.coll.update(func(all []models.Playlist) ([]models.Playlist, bool, error) {
		i := indexOwned(all, username, id)
		if i < 0 {
			return nil, false, errPlaylistNotFound
		}

		item := all[i].Find(videoID)
		if item == nil {
			return nil, false, errItemNotFound
		}
		item.Rating = rating
		out = all[i]
		return all, true, nil
	})
	return out, err
}

// RemoveItem deletes one item and returns the updated playlist.
func (s *PlaylistStore) RemoveItem(username, id, videoID string) (models.Playlist, error) {
	if username == "" {
		return models.Playlist{}, errNotAuthenticated
	}

	var out models.Playlist
	err := s.coll.update(func(all []models.Playlist) ([]models.Playlist, bool, error) {
		i := indexOwned(all, username, id)
		if i < 0 {
			return nil, false, errPlaylistNotFound
		}

		j := all[i].IndexOf(videoID)
		if j < 0 {
			return nil, false, errItemNotFound
		}
		all[i].Items = slices.Delete(all[i].Items, j, j+1)
		out = all[i]
		return all, true, nil
	})
	return out, err
}

func indexOwned(all []models.Playlist, username, id string) int {
	return slices.IndexFunc(all, func(p models.Playlist) bool {
		return p.ID == id && p.OwnedBy(username)
	})
}
