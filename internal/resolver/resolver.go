// Package resolver matches an artist/title pair to a playable studio
// recording on YouTube Music.
package resolver

import (
	"context"
	"strings"

	"github.com/cesargomez89/radioqueue/internal/constants"
	"github.com/cesargomez89/radioqueue/internal/domain"
	"github.com/cesargomez89/radioqueue/internal/logger"
	"github.com/cesargomez89/radioqueue/internal/ytmusic"
)

// querySuffixes bias later search passes toward studio versions.
var querySuffixes = []string{"", " official audio", " audio"}

type Resolver struct {
	search ytmusic.Searcher
	logger *logger.Logger
}

func New(search ytmusic.Searcher, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Default()
	}
	return &Resolver{
		search: search,
		logger: log.WithComponent("resolver"),
	}
}

// Queries returns the search variants tried for artist and title, in order.
func Queries(artist, title string) []string {
	base := strings.TrimSpace(artist) + " - " + strings.TrimSpace(title)
	out := make([]string, 0, len(querySuffixes))
	for _, s := range querySuffixes {
		out = append(out, base+s)
	}
	return out
}

// Resolve returns the first acceptable match, or nil when every query variant
// is exhausted. Search failures skip to the next variant; only context
// cancellation is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, artist, title string) (*domain.ResolvedTrack, error) {
	for _, q := range Queries(artist, title) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		songs, err := r.search.SearchSongs(ctx, q)
		if err != nil {
			r.logger.Warn("Song search failed", "query", q, "error", err)
			continue
		}

		for i := range songs {
			if track := r.accept(ctx, &songs[i]); track != nil {
				return track, nil
			}
		}
	}

	r.logger.Debug("No playable match", "artist", artist, "title", title)
	return nil, nil
}

func (r *Resolver) accept(ctx context.Context, song *ytmusic.Song) *domain.ResolvedTrack {
	artist := song.PrimaryArtist()
	if !domain.IsExternalTrackID(song.VideoID) || song.Title == "" || artist == "" {
		return nil
	}
	if IsLiveRecording(song.Title, song.Album) {
		r.logger.Debug("Skipping live recording", "title", song.Title, "album", song.Album)
		return nil
	}
	playable := domain.WatchURL(song.VideoID)
	if !domain.IsPlayableURL(playable) {
		return nil
	}

	return &domain.ResolvedTrack{
		ExternalID:      song.VideoID,
		Title:           song.Title,
		ArtistName:      artist,
		AlbumName:       song.Album,
		CoverURL:        r.cover(ctx, song),
		PlayableURL:     playable,
		DurationSeconds: song.DurationSeconds,
	}
}

// cover picks the search thumbnail, falling back to one full-metadata lookup
// when the search result only carries a video still.
func (r *Resolver) cover(ctx context.Context, song *ytmusic.Song) string {
	best := bestThumbnail(song.Thumbnails)
	if best == "" || looksLikeVideoFrame(best) {
		full, err := r.search.GetSong(ctx, song.VideoID)
		if err != nil {
			r.logger.Debug("Cover lookup failed", "video_id", song.VideoID, "error", err)
		} else if full != nil {
			if alt := bestThumbnail(full.Thumbnails); alt != "" && (best == "" || !looksLikeVideoFrame(alt)) {
				best = alt
			}
		}
	}
	return upscaleCover(best, constants.CoverTargetSize)
}
