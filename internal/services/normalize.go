package services

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration converts a span like PT3M33S or P1DT2H into seconds. Anything else is 0.
func ParseDuration(s string) int {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}

	total := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil || n > math.MaxInt32 {
			return 0
		}
		total += n * unit
	}
	return total
}

// CoerceViews turns a view count of any JSON-ish representation into a non-negative integer.
func CoerceViews(v any) int64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return clampViews(int64(n))
	case int64:
		return clampViews(n)
	case float64:
		f = n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return clampViews(i)
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return clampViews(i)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

func clampViews(n int64) int64 {
	return max(n, 0)
}

// Normalize converts an upstream record into a [Video].
func Normalize(raw RawVideo) Video {
	return Video{
		VideoID:      raw.VideoID,
		Title:        raw.Title,
		ThumbnailURL: raw.ThumbnailURL,
		DurationSec:  ParseDuration(raw.Duration),
		Views:        CoerceViews(raw.Views),
	}
}
