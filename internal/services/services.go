// package services defines the video search dependency and its metadata normalizer
package services

import (
	"context"

	"github.com/desertthunder/ytlists/internal/models"
)

// VideoSearcher finds videos matching a free-text query.
type VideoSearcher interface {
	Search(ctx context.Context, query string, max int) ([]Video, error)
}

// RawVideo is an upstream search result before normalization.
//
// Duration is a letter-coded span such as PT1H2M3S. Views may be a string, a number or absent.
type RawVideo struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     string `json:"duration"`
	Views        any    `json:"views"`
}

// Video is a normalized search result, shaped like a [models.PlaylistItem].
type Video struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DurationSec  int    `json:"durationSec"`
	Views        int64  `json:"views"`
}

// Item converts v into an unrated playlist item.
func (v Video) Item() models.PlaylistItem {
	return models.PlaylistItem{
		VideoID:      v.VideoID,
		Title:        v.Title,
		ThumbnailURL: v.ThumbnailURL,
		DurationSec:  v.DurationSec,
		Views:        v.Views,
	}
}
