// YouTube Data API v3 [VideoSearcher] implementation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultYTBaseURL     string = "https://www.googleapis.com/youtube/v3"
	defaultMaxResults    int    = 12
	maxResultsUpperLimit int    = 50
)

type youtubeThumbnail struct {
	URL string `json:"url"`
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title      string                      `json:"title"`
			Thumbnails map[string]youtubeThumbnail `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubeVideosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount json.Number `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type youtubeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// YouTubeService searches the YouTube Data API.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	defaultMax int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewYouTubeService creates a [YouTubeService] from cfg.
func NewYouTubeService(cfg shared.YouTubeConfig, logger *log.Logger) *YouTubeService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	defaultMax := cfg.DefaultMaxResults
	if defaultMax <= 0 {
		defaultMax = defaultMaxResults
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &YouTubeService{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		defaultMax: defaultMax,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     shared.WithLogger(logger, "component", "youtube"),
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Search returns up to max normalized videos for query, in upstream relevance order.
//
// A max of zero or less uses the configured default; larger values are capped at 50.
func (y *YouTubeService) Search(ctx context.Context, query string, max int) ([]Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, shared.NewRequestError(shared.ErrInvalidInput, "Query required.")
	}
	if y.apiKey == "" {
		return nil, fmt.Errorf("%w: youtube api_key is not configured", shared.ErrServiceUnavailable)
	}

	if max <= 0 {
		max = y.defaultMax
	}
	max = min(max, maxResultsUpperLimit)

	var found youtubeSearchResponse
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"q":          {query},
		"maxResults": {strconv.Itoa(max)},
	}
	if err := y.get(ctx, "/search", params, &found); err != nil {
		return nil, err
	}

	raws := make([]RawVideo, 0, len(found.Items))
	ids := make([]string, 0, len(found.Items))
	for _, item := range found.Items {
		if item.ID.VideoID == "" {
			continue
		}
		raws = append(raws, RawVideo{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ThumbnailURL: pickThumbnail(item.Snippet.Thumbnails),
		})
		ids = append(ids, item.ID.VideoID)
	}

	if len(ids) > 0 {
		var details youtubeVideosResponse
		params := url.Values{
			"part": {"contentDetails,statistics"},
			"id":   {strings.Join(ids, ",")},
		}
		if err := y.get(ctx, "/videos", params, &details); err != nil {
			return nil, err
		}

		byID := make(map[string]int, len(raws))
		for i, raw := range raws {
			byID[raw.VideoID] = i
		}
		for _, d := range details.Items {
			if i, ok := byID[d.ID]; ok {
				raws[i].Duration = d.ContentDetails.Duration
				raws[i].Views = d.Statistics.ViewCount
			}
		}
	}

	videos := make([]Video, len(raws))
	for i, raw := range raws {
		videos[i] = Normalize(raw)
	}

	y.logger.Debug("search complete", "query", query, "results", len(videos))
	return videos, nil
}

func (y *YouTubeService) get(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
	}

	params.Set("key", y.apiKey)
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp youtubeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%w: youtube %s (status %d): %s", shared.ErrAPIRequest, endpoint, resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("%w: youtube %s: status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, endpoint, err)
	}
	return nil
}

// pickThumbnail prefers the medium rendition, then high, then default.
func pickThumbnail(thumbs map[string]youtubeThumbnail) string {
	for _, size := range []string{"medium", "high", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
