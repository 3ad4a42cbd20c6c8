package domain

import (
	"regexp"
	"strings"

	"github.com/cesargomez89/radioqueue/internal/constants"
)

var (
	playableURLPattern = regexp.MustCompile(`^(?i)(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/|music\.youtube\.com/watch\?v=)[A-Za-z0-9_-]+`)
	trackIDPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// IsPlayableURL reports whether u is a recognised media link.
func IsPlayableURL(u string) bool {
	return playableURLPattern.MatchString(strings.TrimSpace(u))
}

// IsExternalTrackID reports whether id looks like a video identifier.
func IsExternalTrackID(id string) bool {
	return trackIDPattern.MatchString(id)
}

// WatchURL builds the canonical playable link for a video identifier.
func WatchURL(id string) string {
	return constants.WatchURLPrefix + id
}
