package store

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/huddle/internal/remote"
)

// InsertMessage appends a record under id. Records are never updated afterwards.
func (db *DB) InsertMessage(ctx context.Context, id string, r remote.Record) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO messages (id, username, text, time, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, r.Username, r.Text, r.Time, r.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Snapshot reads the whole collection in insertion order.
func (db *DB) Snapshot(ctx context.Context) (*remote.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, username, text, time, timestamp
		FROM messages
		ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := remote.NewSnapshot()
	for rows.Next() {
		var (
			id string
			r  remote.Record
		)
		if err := rows.Scan(&id, &r.Username, &r.Text, &r.Time, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		snap.Put(id, r)
	}
	return snap, rows.Err()
}
