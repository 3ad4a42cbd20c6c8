package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// dbOps is the query surface shared by *sqlx.DB and *sqlx.Tx.
type dbOps interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type DB struct {
	dbOps
	root *sqlx.DB
	inTx bool
}

func NewSQLiteDB(dsn string) (*DB, error) {
	// Transactions take the write lock up front so concurrent deliveries
	// serialise instead of failing a lock upgrade.
	dsn = withParam(dsn, "_txlock", "immediate")
	dsn = withParam(dsn, "_pragma", "busy_timeout(30000)")

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Set pragmas for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{dbOps: db, root: db}, nil
}

// RunInTx executes fn inside one transaction. Nested calls reuse the outer one.
func (db *DB) RunInTx(ctx context.Context, fn func(txDB *DB) error) error {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	txDB := &DB{
		dbOps: tx,
		root:  db.root,
		inTx:  true,
	}

	if err := fn(txDB); err != nil {
		return err
	}
	return tx.Commit()
}

// withParam appends key=value to a DSN unless the key is already present.
func withParam(dsn, key, value string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}

func (db *DB) Close() error {
	return db.root.Close()
}
