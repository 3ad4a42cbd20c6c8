package dto

import (
	"testing"

	"github.com/cesargomez89/radioqueue/internal/ytmusic"
)

func TestQueueEntryRequest_ToSubmission(t *testing.T) {
	req := QueueEntryRequest{ExternalTrackID: "dQw4w9WgXcQ", TrackName: "Song", ArtistName: "Artist"}
	if got := req.ToSubmission().PlayableURL; got != "" {
		t.Errorf("missing playable URL must stay empty, got %q", got)
	}

	req.PlayableURL = "https://youtu.be/dQw4w9WgXcQ"
	sub := req.ToSubmission()
	if sub.PlayableURL != "https://youtu.be/dQw4w9WgXcQ" || sub.ExternalTrackID != "dQw4w9WgXcQ" {
		t.Errorf("unexpected submission %+v", sub)
	}
}

func TestSongResults(t *testing.T) {
	songs := []ytmusic.Song{
		{VideoID: "dQw4w9WgXcQ", Title: "Song", Thumbnails: []ytmusic.Thumbnail{{URL: "small"}, {URL: "big"}}},
		{VideoID: "", Title: "No id"},
		{VideoID: "abcdefghijk", Title: "Two", Artists: []string{"A"}},
		{VideoID: "bcdefghijkl", Title: "Three"},
	}

	got := SongResults(songs, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ThumbnailURL != "big" || got[0].YoutubeURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected first result %+v", got[0])
	}
	if got[0].Artists == nil {
		t.Error("artists must serialise as an array")
	}
	if got[1].VideoID != "abcdefghijk" {
		t.Errorf("expected invalid ids skipped, got %+v", got[1])
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 10}, {"abc", 10}, {"-1", 10}, {"5", 5}, {"500", 25},
	}
	for _, tt := range tests {
		if got := ParseLimit(tt.in, 10, 25); got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " on "} {
		if !ParseFlag(s) {
			t.Errorf("ParseFlag(%q) should be true", s)
		}
	}
	for _, s := range []string{"", "0", "nope"} {
		if ParseFlag(s) {
			t.Errorf("ParseFlag(%q) should be false", s)
		}
	}
}
