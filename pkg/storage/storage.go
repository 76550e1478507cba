// Package storage provides the key/value persistence backends the timeline
// and profile stores write to. The contract mirrors browser local storage:
// string keys, string values, whole-value overwrite on every write.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultTimeout bounds every single SQLite statement.
const DefaultTimeout = 5 * time.Second

// Storage is a string key/value store.
type Storage interface {
	// GetItem returns the value stored under key. ok is false when the key
	// has never been written.
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys() ([]string, error)
	Clear() error
}

type SQLite struct {
	sql     *sql.DB
	timeout time.Duration
}

var _ Storage = (*SQLite)(nil)

func Open(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("storage: empty path")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", dir, err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS kv (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{sql: db, timeout: DefaultTimeout}, nil
}

func (d *SQLite) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func (d *SQLite) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.timeout)
}

func (d *SQLite) GetItem(key string) (string, bool, error) {
	ctx, cancel := d.ctx()
	defer cancel()

	var value string
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (d *SQLite) SetItem(key, value string) error {
	ctx, cancel := d.ctx()
	defer cancel()

	_, err := d.sql.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	return err
}

func (d *SQLite) RemoveItem(key string) error {
	ctx, cancel := d.ctx()
	defer cancel()

	_, err := d.sql.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

func (d *SQLite) Keys() ([]string, error) {
	ctx, cancel := d.ctx()
	defer cancel()

	rows, err := d.sql.QueryContext(ctx, "SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (d *SQLite) Clear() error {
	ctx, cancel := d.ctx()
	defer cancel()

	_, err := d.sql.ExecContext(ctx, "DELETE FROM kv")
	return err
}

// KeyStat describes one stored key.
type KeyStat struct {
	Key       string
	Bytes     int
	UpdatedAt time.Time
}

// Stats returns the size and last write time of every key.
func (d *SQLite) Stats(ctx context.Context) ([]KeyStat, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT key, LENGTH(value), updated_at FROM kv ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []KeyStat
	for rows.Next() {
		var s KeyStat
		var updatedAt string
		if err := rows.Scan(&s.Key, &s.Bytes, &updatedAt); err != nil {
			return nil, err
		}
		// Parse SQLite CURRENT_TIMESTAMP format
		// Try "2006-01-02 15:04:05" then RFC3339
		if t, perr := time.Parse("2006-01-02 15:04:05", updatedAt); perr == nil {
			s.UpdatedAt = t
		} else if t2, perr2 := time.Parse(time.RFC3339, updatedAt); perr2 == nil {
			s.UpdatedAt = t2
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
