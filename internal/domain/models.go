package domain

import (
	"context"
	"time"
)

// QueueEntry is one persisted track request.
// DeleteAt nil means pending; non-nil means delivered and awaiting removal.
type QueueEntry struct {
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	DeleteAt        *time.Time `json:"deleteAt,omitempty" db:"delete_at"`
	ReleaseName     *string    `json:"releaseName,omitempty" db:"release_name"`
	CoverURL        *string    `json:"coverUrl,omitempty" db:"cover_url"`
	DurationSeconds *int       `json:"durationSeconds,omitempty" db:"duration_seconds"`
	ID              string     `json:"id" db:"id"`
	ExternalTrackID string     `json:"externalTrackId" db:"external_track_id"`
	TrackName       string     `json:"trackName" db:"track_name"`
	ArtistName      string     `json:"artistName" db:"artist_name"`
	PlayableURL     string     `json:"playableUrl" db:"playable_url"`
	Origin          string     `json:"origin" db:"origin"`
}

// IsPending reports whether the entry has never been handed to the encoder.
func (e *QueueEntry) IsPending() bool {
	return e.DeleteAt == nil
}

// RecommendationCandidate is raw recommender output; never persisted.
type RecommendationCandidate struct {
	Title  string
	Artist string
	Album  string
}

// ResolvedTrack is a candidate matched to a playable media link.
type ResolvedTrack struct {
	ExternalID      string
	Title           string
	ArtistName      string
	AlbumName       string
	CoverURL        string
	PlayableURL     string
	DurationSeconds *int
}

// QueueRepository is the storage contract the queue service relies on.
type QueueRepository interface {
	CountPending(ctx context.Context) (int, error)
	ListPending(ctx context.Context) ([]*QueueEntry, error)
	PeekOldestPending(ctx context.Context) (*QueueEntry, error)
	LatestEntry(ctx context.Context) (*QueueEntry, error)
	LatestDelivered(ctx context.Context) (*QueueEntry, error)
	ExistsByPlayableURL(ctx context.Context, playableURL string) (bool, error)
	InsertEntry(ctx context.Context, entry *QueueEntry) error
	MarkDelivered(ctx context.Context, id string, until time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// WithTx runs fn against a transactional view of the repository.
	WithTx(ctx context.Context, fn func(tx QueueRepository) error) error
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
