// Package services talks to the upstream video catalog and normalizes what it returns.
//
// # Normalization
//
// Upstream records carry durations as letter-coded time spans (PT3M33S) and view counts as strings.
// [Normalize] turns a [RawVideo] into a [Video] with whole seconds and a non-negative view count.
// Normalization never fails: unrecognized durations and unparseable counts become 0.
//
// # Search
//
// [VideoSearcher] is the search dependency of the HTTP layer and the CLI. [YouTubeService] implements
// it against the YouTube Data API v3 with two calls per search:
//   - GET {base}/search?part=snippet&type=video : ids, titles and thumbnails
//   - GET {base}/videos?part=contentDetails,statistics : durations and view counts
//
// Outbound calls are throttled with a token bucket and honor context cancellation.
//
// # Error Handling
//
// Upstream failures wrap [shared.ErrAPIRequest]; a missing API key wraps [shared.ErrServiceUnavailable].
package services
