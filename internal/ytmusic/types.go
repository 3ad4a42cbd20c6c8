package ytmusic

import (
	"strconv"
	"strings"
)

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Song is one song-shaped item from the proxy. Fields that could not be
// extracted are left empty; callers decide whether the item is usable.
type Song struct {
	DurationSeconds *int        `json:"durationSeconds,omitempty"`
	VideoID         string      `json:"videoId"`
	Title           string      `json:"title"`
	Album           string      `json:"album,omitempty"`
	DurationText    string      `json:"durationText,omitempty"`
	Artists         []string    `json:"artists"`
	Thumbnails      []Thumbnail `json:"thumbnails,omitempty"`
}

// PrimaryArtist returns the first credited artist, or "".
func (s *Song) PrimaryArtist() string {
	if len(s.Artists) == 0 {
		return ""
	}
	return s.Artists[0]
}

// ParseDuration converts "m:ss" or "h:mm:ss" into seconds.
func ParseDuration(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		if i > 0 && n >= 60 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}
