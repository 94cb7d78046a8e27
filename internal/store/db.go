// Package store is the SQLite database of a profile: the hub backend's
// messages collection and the background task registrations.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the profile's SQLite database.
type DB struct {
	*sql.DB
	path string
}

// Open creates the database file if needed and connects with WAL mode and a
// busy timeout, so the daemon and local tools can share it. Writes take the
// lock up front to avoid upgrade deadlocks between readers.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{DB: db, path: path}, nil
}

// Path returns the database file.
func (db *DB) Path() string {
	return db.path
}
