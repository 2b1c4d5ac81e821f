// Package journal provides a SQLite-backed ledger of processed events.
//
// Every upsert the engine performs is recorded here. The ledger powers
// deduplication for keyless completed-task events (which cannot be upserted
// by key) and gives an audit trail for manual repair when a document drifts.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	source     TEXT NOT NULL,
	action     TEXT NOT NULL,
	path       TEXT NOT NULL,
	section    TEXT NOT NULL DEFAULT '',
	entry_key  TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	day        TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_records_dedup ON records(source, day, content);
CREATE INDEX IF NOT EXISTS idx_records_path ON records(path);
`

// Record is one processed event.
type Record struct {
	ID        int64
	Source    string
	Action    string
	Path      string
	Section   string
	EntryKey  string
	Content   string
	Day       string // effective date, YYYY-MM-DD
	CreatedAt time.Time
}

// DB wraps a sql.DB with journal operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Append records a processed event.
func (db *DB) Append(ctx context.Context, r Record) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO records (source, action, path, section, entry_key, content, day)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Source, r.Action, r.Path, r.Section, r.EntryKey, r.Content, r.Day)
	if err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

// SeenTask reports whether a keyless task with the same content was already
// mirrored to both of its fan-out targets for the given effective day. A
// partial write (only one leg recorded) stays unseen, so a redelivery can
// heal the missing leg.
func (db *DB) SeenTask(ctx context.Context, source, day, content string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT path) FROM records WHERE source = ? AND day = ? AND content = ?`,
		source, day, content).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("journal: seen task: %w", err)
	}
	return n >= 2, nil
}

// Recent returns the most recent records, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, source, action, path, section, entry_key, content, day, created_at
		 FROM records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Source, &r.Action, &r.Path, &r.Section,
			&r.EntryKey, &r.Content, &r.Day, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
