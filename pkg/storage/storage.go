package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB is a Store backed by a single SQLite table.
type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS kv (
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func (d *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (d *DB) Set(ctx context.Context, key string, value []byte) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (d *DB) Remove(ctx context.Context, key string) error {
	if _, err := d.sql.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// KeyInfo describes one stored key for the CLI listing.
type KeyInfo struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// ListKeys returns every stored key with its payload size, ordered by key.
func (d *DB) ListKeys(ctx context.Context) ([]KeyInfo, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT key, length(value), updated_at FROM kv ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KeyInfo
	for rows.Next() {
		var k KeyInfo
		var updatedAtStr string
		if err := rows.Scan(&k.Key, &k.Size, &updatedAtStr); err != nil {
			return nil, err
		}
		// Parse SQLite CURRENT_TIMESTAMP format
		// Try "2006-01-02 15:04:05" then RFC3339
		if t, perr := time.Parse("2006-01-02 15:04:05", updatedAtStr); perr == nil {
			k.UpdatedAt = t
		} else if t2, perr2 := time.Parse(time.RFC3339, updatedAtStr); perr2 == nil {
			k.UpdatedAt = t2
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
