package linkmeta

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Database is an optional sqlite cache for link metadata. Failed fetches are
// cached too, with a shorter lifetime, so a flaky page is not hammered on
// every run.
type Database struct {
	db *sql.DB
	mu sync.RWMutex
}

// failureTTL is the lifetime of a negative cache entry.
const failureTTL = time.Hour

// OpenDatabase opens (creating if needed) the metadata cache at path.
func OpenDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure SQLite for better concurrency and performance
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cache := &Database{db: db}
	if err := cache.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("Link metadata cache opened", "path", path)
	return cache, nil
}

// createSchema creates the necessary tables
func (d *Database) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS linkmeta_cache (
		url TEXT PRIMARY KEY,
		title TEXT DEFAULT '',
		description TEXT DEFAULT '',
		image_url TEXT DEFAULT '',
		fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP NOT NULL,
		fetch_success BOOLEAN DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_linkmeta_expires ON linkmeta_cache(expires_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

// Lookup returns the cached metadata for a URL. ok is true for both positive
// hits and still-fresh negative entries; expired rows are misses.
func (d *Database) Lookup(url string) (Metadata, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var meta Metadata
	var success bool
	var expiresAt time.Time

	row := d.db.QueryRow(
		`SELECT title, description, image_url, fetch_success, expires_at
		 FROM linkmeta_cache WHERE url = ?`, url)
	if err := row.Scan(&meta.Title, &meta.Description, &meta.ImageURL, &success, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, err
	}

	if time.Now().After(expiresAt) {
		return Metadata{}, false, nil
	}
	if !success {
		return Metadata{}, true, nil
	}
	return meta, true, nil
}

// Save upserts the result of a metadata fetch. Failures get a shorter expiry
// than successes.
func (d *Database) Save(url string, meta Metadata, success bool, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	expiresAt := now.Add(ttl)
	if !success {
		expiresAt = now.Add(failureTTL)
	}

	_, err := d.db.Exec(
		`INSERT INTO linkmeta_cache (url, title, description, image_url, fetched_at, expires_at, fetch_success)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image_url = excluded.image_url,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at,
			fetch_success = excluded.fetch_success`,
		url, meta.Title, meta.Description, meta.ImageURL, now, expiresAt, success)
	return err
}

// Cleanup removes expired cache rows and returns how many were deleted.
func (d *Database) Cleanup() (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.Exec(`DELETE FROM linkmeta_cache WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
