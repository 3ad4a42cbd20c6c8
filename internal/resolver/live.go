package resolver

import (
	"regexp"
	"strings"
)

// liveWords are matched case-insensitively on word boundaries.
var liveWords = []string{"live", "ao vivo", "en vivo", "en directo", "directo"}

var liveAlt = `(?:` + strings.Join(liveWords, "|") + `)`

var (
	bracketedLiveRe = regexp.MustCompile(`(?i)[\(\[][^\)\]]*\b` + liveAlt + `\b[^\)\]]*[\)\]]`)
	separatorLiveRe = regexp.MustCompile(`(?i)(?:\s[-–—]|\|)\s*` + liveAlt + `\b`)
	liveAtRe        = regexp.MustCompile(`(?i)(?:\s[-–—]|[|(\[])\s*[^)\]]*?\blive\s+(?:at|from)\b`)
	liveWordRe      = regexp.MustCompile(`(?i)\b` + liveAlt + `\b`)
)

// hasBracketedLiveMarker matches "Song (Live)" or "Song [En Vivo 2004]".
func hasBracketedLiveMarker(title string) bool {
	return bracketedLiveRe.MatchString(title)
}

// hasSeparatorLiveMarker matches "Song - Live" or "Song|Ao Vivo". Dashes need
// leading space so hyphenated words like "Re-Live" stay studio titles.
func hasSeparatorLiveMarker(title string) bool {
	return separatorLiveRe.MatchString(title)
}

// hasLiveAtVenue matches "Song - Live at Wembley" or "Song (Live from Paris)".
func hasLiveAtVenue(title string) bool {
	return liveAtRe.MatchString(title)
}

// isLiveAlbum matches album names that start with or contain a live marker.
func isLiveAlbum(album string) bool {
	return album != "" && liveWordRe.MatchString(album)
}

// IsLiveRecording reports whether the title or album marks a live take.
func IsLiveRecording(title, album string) bool {
	return hasBracketedLiveMarker(title) ||
		hasSeparatorLiveMarker(title) ||
		hasLiveAtVenue(title) ||
		isLiveAlbum(album)
}
