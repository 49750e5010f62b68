// Package cache stores fetched README text in SQLite so repeated runs
// within the TTL skip the network round trip.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a README cache backed by a SQLite file. A nil *Cache is a
// valid no-op cache: every lookup misses and every store is dropped.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	schema := `
		CREATE TABLE IF NOT EXISTS readmes (
			full_name  TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached README for a repository if it was fetched
// within the TTL. Any read error is treated as a miss; a broken cache
// must never fail a run.
func (c *Cache) Get(fullName string, now time.Time, ttl time.Duration) (string, bool) {
	if c == nil {
		return "", false
	}

	var (
		content   string
		fetchedAt int64
	)
	err := c.db.QueryRow(
		`SELECT content, fetched_at FROM readmes WHERE full_name = ?`, fullName,
	).Scan(&content, &fetchedAt)
	if err != nil {
		// Includes sql.ErrNoRows and corrupt rows: miss, not failure.
		return "", false
	}

	if now.Sub(time.Unix(fetchedAt, 0)) > ttl {
		return "", false
	}
	return content, true
}

// Put stores a fetched README. Write errors are returned but callers may
// ignore them; the cache is an optimization, not a source of truth.
func (c *Cache) Put(fullName, content string, now time.Time) error {
	if c == nil {
		return nil
	}
	_, err := c.db.Exec(
		`INSERT INTO readmes (full_name, content, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(full_name) DO UPDATE SET content = excluded.content, fetched_at = excluded.fetched_at`,
		fullName, content, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("caching readme for %s: %w", fullName, err)
	}
	return nil
}

// Prune removes entries older than the TTL.
func (c *Cache) Prune(now time.Time, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	cutoff := now.Add(-ttl).Unix()
	if _, err := c.db.Exec(`DELETE FROM readmes WHERE fetched_at < ?`, cutoff); err != nil {
		return fmt.Errorf("pruning cache: %w", err)
	}
	return nil
}
