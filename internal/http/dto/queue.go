package dto

import (
	"strconv"
	"strings"

	"github.com/cesargomez89/radioqueue/internal/app"
	"github.com/cesargomez89/radioqueue/internal/domain"
	"github.com/cesargomez89/radioqueue/internal/ytmusic"
)

// QueueEntryRequest is the POST /api/queue body.
type QueueEntryRequest struct {
	DurationSeconds *int   `json:"durationSeconds,omitempty"`
	ExternalTrackID string `json:"externalTrackId"`
	TrackName       string `json:"trackName"`
	ArtistName      string `json:"artistName"`
	ReleaseName     string `json:"releaseName,omitempty"`
	CoverURL        string `json:"coverUrl,omitempty"`
	PlayableURL     string `json:"playableUrl"`
	DurationText    string `json:"durationText,omitempty"`
}

// ToSubmission passes the body through unchanged; the service validates it.
func (r *QueueEntryRequest) ToSubmission() app.TrackSubmission {
	return app.TrackSubmission{
		ExternalTrackID: r.ExternalTrackID,
		TrackName:       r.TrackName,
		ArtistName:      r.ArtistName,
		ReleaseName:     r.ReleaseName,
		CoverURL:        r.CoverURL,
		PlayableURL:     r.PlayableURL,
		DurationSeconds: r.DurationSeconds,
		DurationText:    r.DurationText,
	}
}

// SongResult is one normalized song-search hit.
type SongResult struct {
	DurationSeconds *int     `json:"durationSeconds,omitempty"`
	VideoID         string   `json:"videoId"`
	Title           string   `json:"title"`
	Album           string   `json:"album,omitempty"`
	DurationText    string   `json:"durationText,omitempty"`
	ThumbnailURL    string   `json:"thumbnailUrl,omitempty"`
	YoutubeURL      string   `json:"youtubeUrl"`
	Artists         []string `json:"artists"`
}

// SongResults converts proxy songs, dropping items without an id or title.
func SongResults(songs []ytmusic.Song, limit int) []SongResult {
	out := make([]SongResult, 0, len(songs))
	for i := range songs {
		s := &songs[i]
		if !domain.IsExternalTrackID(s.VideoID) || s.Title == "" {
			continue
		}
		artists := s.Artists
		if artists == nil {
			artists = []string{}
		}
		out = append(out, SongResult{
			VideoID:         s.VideoID,
			Title:           s.Title,
			Artists:         artists,
			Album:           s.Album,
			DurationText:    s.DurationText,
			DurationSeconds: s.DurationSeconds,
			ThumbnailURL:    lastThumbnail(s.Thumbnails),
			YoutubeURL:      domain.WatchURL(s.VideoID),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// lastThumbnail returns the final entry; the proxy orders thumbnails by size.
func lastThumbnail(thumbs []ytmusic.Thumbnail) string {
	for i := len(thumbs) - 1; i >= 0; i-- {
		if thumbs[i].URL != "" {
			return thumbs[i].URL
		}
	}
	return ""
}

// MessageResponse is the JSON error body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ParseLimit reads a positive limit capped at ceiling, falling back to def.
func ParseLimit(s string, def, ceiling int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

// ParseFlag accepts 1/true/yes/on.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
