// package models defines the data model for the playlist service
package models

import (
	"errors"
	"strings"
	"time"
)

// Rating bounds for [PlaylistItem.Rating].
const (
	MinRating = 0
	MaxRating = 5
)

var (
	ErrMissingVideoID = errors.New("item videoId is required")
	ErrMissingTitle   = errors.New("item title is required")
	ErrNegativeValue  = errors.New("item durationSec and views must be non-negative")
)

// User is a registered account. Username is unique ignoring case.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	FirstName    string `json:"firstName"`
	ImageURL     string `json:"imageUrl"`
}

// PublicUser is the client-facing view of a [User].
type PublicUser struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	ImageURL  string `json:"imageUrl"`
}

// Public strips the password digest.
func (u User) Public() PublicUser {
	return PublicUser{Username: u.Username, FirstName: u.FirstName, ImageURL: u.ImageURL}
}

// SameUsername reports whether name refers to this user, ignoring case.
func (u User) SameUsername(name string) bool {
	return strings.EqualFold(u.Username, name)
}

// Session maps an opaque token to an authenticated username for the life of the process.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
}

// Playlist is an ordered list of videos owned by a single user.
type Playlist struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Name      string         `json:"name"`
	Items     []PlaylistItem `json:"items"`
	CreatedAt time.Time      `json:"createdAt"`
}

// IndexOf returns the position of the item with videoID, or -1.
func (p *Playlist) IndexOf(videoID string) int {
	for i := range p.Items {
		if p.Items[i].VideoID == videoID {
			return i
		}
	}
	return -1
}

// Find returns a pointer into Items for videoID, or nil.
func (p *Playlist) Find(videoID string) *PlaylistItem {
	if i := p.IndexOf(videoID); i >= 0 {
		return &p.Items[i]
	}
	return nil
}

// OwnedBy reports whether username owns the playlist.
func (p *Playlist) OwnedBy(username string) bool {
	return p.Username == username
}

// TotalDuration sums the durations of every item in seconds.
func (p *Playlist) TotalDuration() int {
	total := 0
	for _, item := range p.Items {
		total += item.DurationSec
	}
	return total
}

// PlaylistItem is a saved video. VideoID is unique within its playlist.
type PlaylistItem struct {
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	DurationSec  int       `json:"durationSec"`
	Views        int64     `json:"views"`
	Rating       int       `json:"rating"`
	AddedAt      time.Time `json:"addedAt"`
}

// Validate checks the fields a client must supply when adding an item.
func (i PlaylistItem) Validate() error {
	if strings.TrimSpace(i.VideoID) == "" {
		return ErrMissingVideoID
	}
	if strings.TrimSpace(i.Title) == "" {
		return ErrMissingTitle
	}
	if i.DurationSec < 0 || i.Views < 0 {
		return ErrNegativeValue
	}
	return nil
}

// ValidRating reports whether r lies in [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
