package listenbrainz

import (
	"regexp"
	"strings"
)

var (
	topicSuffixRe = regexp.MustCompile(`(?i)\s*-\s*topic\s*$`)
	vevoSuffixRe  = regexp.MustCompile(`(?i)\s*vevo\s*$`)
	featRe        = regexp.MustCompile(`(?i)\s*[\(\[]?\s*\b(?:feat\.?|ft\.|featuring)(?:\s|$).*$`)
	quotesRe      = regexp.MustCompile("[\"'`‘’“”«»]")
	parensRe      = regexp.MustCompile(`[\(\)\[\]]`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// NormalizeArtistName cleans an artist credit for use as a radio seed.
func NormalizeArtistName(name string) string {
	s := strings.TrimSpace(name)
	s = topicSuffixRe.ReplaceAllString(s, "")
	s = vevoSuffixRe.ReplaceAllString(s, "")
	s = featRe.ReplaceAllString(s, "")
	s = quotesRe.ReplaceAllString(s, "")
	s = parensRe.ReplaceAllString(s, "")
	return collapse(s)
}

// NormalizeTrackName produces a comparison key; never displayed.
func NormalizeTrackName(name string) string {
	s := strings.ToLower(name)
	s = quotesRe.ReplaceAllString(s, "")
	return collapse(s)
}

// ArtistPrompt builds an LB Radio artist prompt, or "" for an empty name.
func ArtistPrompt(artist string) string {
	n := NormalizeArtistName(artist)
	if n == "" {
		return ""
	}
	return "artist:(" + n + ")"
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
