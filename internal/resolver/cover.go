package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cesargomez89/radioqueue/internal/ytmusic"
)

// squareTolerance is the largest width/height ratio deviation still treated
// as album art rather than a video frame.
const squareTolerance = 0.1

var (
	videoFrameMarkers = []string{"/vi/", "/vi_webp/", "hqdefault", "mqdefault", "sddefault", "maxresdefault"}
	resizableHosts    = []string{"googleusercontent.com", "ggpht.com"}

	sizeWHRe = regexp.MustCompile(`=w\d+-h\d+`)
	sizeSRe  = regexp.MustCompile(`=s\d+`)
)

func isNearSquare(t ytmusic.Thumbnail) bool {
	if t.Width <= 0 || t.Height <= 0 {
		return false
	}
	ratio := float64(t.Width) / float64(t.Height)
	return ratio >= 1-squareTolerance && ratio <= 1+squareTolerance
}

// looksLikeVideoFrame reports a generic video-still thumbnail URL.
func looksLikeVideoFrame(u string) bool {
	lower := strings.ToLower(u)
	for _, m := range videoFrameMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func isResizableHost(u string) bool {
	lower := strings.ToLower(u)
	for _, h := range resizableHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// bestThumbnail prefers the largest near-square image, then the largest of any
// shape. Returns "" when there are none.
func bestThumbnail(thumbs []ytmusic.Thumbnail) string {
	var square, largest *ytmusic.Thumbnail
	for i := range thumbs {
		t := &thumbs[i]
		if t.URL == "" {
			continue
		}
		if isNearSquare(*t) && (square == nil || area(*t) > area(*square)) {
			square = t
		}
		if largest == nil || area(*t) >= area(*largest) {
			largest = t
		}
	}
	switch {
	case square != nil:
		return square.URL
	case largest != nil:
		return largest.URL
	}
	return ""
}

func area(t ytmusic.Thumbnail) int {
	return t.Width * t.Height
}

// upscaleCover rewrites the size suffix of a resizable image host URL to
// size x size. Other URLs are returned unchanged.
func upscaleCover(u string, size int) string {
	if u == "" || !isResizableHost(u) {
		return u
	}
	n := strconv.Itoa(size)
	if sizeWHRe.MatchString(u) {
		return sizeWHRe.ReplaceAllString(u, "=w"+n+"-h"+n)
	}
	if sizeSRe.MatchString(u) {
		return sizeSRe.ReplaceAllString(u, "=s"+n)
	}
	return u
}
