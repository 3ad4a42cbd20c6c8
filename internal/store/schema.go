package store

const Schema = `
CREATE TABLE IF NOT EXISTS queue (
	id TEXT PRIMARY KEY,
	external_track_id TEXT NOT NULL,
	track_name TEXT NOT NULL,
	artist_name TEXT NOT NULL,
	release_name TEXT,
	cover_url TEXT,
	playable_url TEXT NOT NULL,
	duration_seconds INTEGER,
	origin TEXT NOT NULL DEFAULT 'user',
	created_at DATETIME NOT NULL,
	delete_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_queue_pending ON queue(delete_at, created_at, id);
CREATE INDEX IF NOT EXISTS idx_queue_playable_url ON queue(playable_url);

CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at INTEGER
);
`
