package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cesargomez89/radioqueue/internal/domain"
)

var _ domain.QueueRepository = (*DB)(nil)

const queueColumns = `id, external_track_id, track_name, artist_name, release_name, cover_url,
	playable_url, duration_seconds, origin, created_at, delete_at`

func (db *DB) CountPending(ctx context.Context) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM queue WHERE delete_at IS NULL`)
	return count, err
}

func (db *DB) ListPending(ctx context.Context) ([]*domain.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue WHERE delete_at IS NULL ORDER BY created_at ASC, id ASC`

	entries := []*domain.QueueEntry{}
	err := db.SelectContext(ctx, &entries, query)
	return entries, err
}

func (db *DB) PeekOldestPending(ctx context.Context) (*domain.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue WHERE delete_at IS NULL ORDER BY created_at ASC, id ASC LIMIT 1`
	return db.getEntry(ctx, query)
}

// LatestEntry returns the most recently created row regardless of state.
func (db *DB) LatestEntry(ctx context.Context) (*domain.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue ORDER BY created_at DESC, id DESC LIMIT 1`
	return db.getEntry(ctx, query)
}

// LatestDelivered returns the row most recently handed to the encoder.
func (db *DB) LatestDelivered(ctx context.Context) (*domain.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue WHERE delete_at IS NOT NULL ORDER BY delete_at DESC, id DESC LIMIT 1`
	return db.getEntry(ctx, query)
}

func (db *DB) ExistsByPlayableURL(ctx context.Context, playableURL string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM queue WHERE playable_url = ?`, playableURL)
	return count > 0, err
}

func (db *DB) InsertEntry(ctx context.Context, entry *domain.QueueEntry) error {
	query := `INSERT INTO queue (` + queueColumns + `)
		VALUES (:id, :external_track_id, :track_name, :artist_name, :release_name, :cover_url,
			:playable_url, :duration_seconds, :origin, :created_at, :delete_at)`

	if _, err := db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}
	return nil
}

// MarkDelivered sets delete_at only while the row is still pending, so a
// delivered row is never re-extended or resurrected. It reports whether this
// call performed the transition.
func (db *DB) MarkDelivered(ctx context.Context, id string, until time.Time) (bool, error) {
	result, err := db.ExecContext(ctx, `UPDATE queue SET delete_at = ? WHERE id = ? AND delete_at IS NULL`, until.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark entry delivered: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (db *DB) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM queue WHERE delete_at IS NOT NULL AND delete_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) WithTx(ctx context.Context, fn func(tx domain.QueueRepository) error) error {
	return db.RunInTx(ctx, func(txDB *DB) error {
		return fn(txDB)
	})
}

func (db *DB) getEntry(ctx context.Context, query string, args ...interface{}) (*domain.QueueEntry, error) {
	entry := &domain.QueueEntry{}
	err := db.GetContext(ctx, entry, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}
