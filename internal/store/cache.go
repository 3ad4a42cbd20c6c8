package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Lookup cache for upstream metadata. Expiry is stored as unix milliseconds;
// a NULL expiry never expires.

func (db *DB) GetCache(key string) ([]byte, error) {
	var data []byte
	err := db.GetContext(context.Background(), &data,
		"SELECT data FROM cache WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)",
		key, time.Now().UnixMilli())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return data, err
}

func (db *DB) SetCache(key string, data []byte, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: time.Now().Add(ttl).UnixMilli(), Valid: true}
	}

	_, err := db.ExecContext(context.Background(), `
		INSERT INTO cache (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`, key, data, expiresAt)
	return err
}

// InvalidateCache drops every entry whose key starts with prefix.
// An empty prefix clears the whole cache.
func (db *DB) InvalidateCache(ctx context.Context, prefix string) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM cache WHERE substr(key, 1, ?) = ?", len(prefix), prefix)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpiredCache removes entries that expired at or before now.
func (db *DB) PurgeExpiredCache(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM cache WHERE expires_at IS NOT NULL AND expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
