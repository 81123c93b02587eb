// Package cache persists a snapshot of the last data fetched from the
// backend in a local SQLite file so a new session can start warm.
//
// Only this package may open or query the database. Other packages receive a
// [*Cache] and call its methods.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/njoerd114/kvault/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot (
    field    TEXT PRIMARY KEY CHECK (field IN ('categories', 'items', 'stats')),
    payload  TEXT NOT NULL,
    saved_at TEXT NOT NULL DEFAULT ''
);
`

// Field names one persisted slice of store state.
type Field string

const (
	FieldCategories Field = "categories"
	FieldItems      Field = "items"
	FieldStats      Field = "stats"
)

// Snapshot is the persisted state. Missing fields stay zero; SavedAt holds the
// save time of every field that was present.
type Snapshot struct {
	Categories []model.Category
	Items      []model.Item
	Stats      *model.Stats
	SavedAt    map[Field]time.Time
}

// Empty reports whether nothing was ever saved.
func (s *Snapshot) Empty() bool { return len(s.SavedAt) == 0 }

// Cache is the SQLite-backed snapshot store.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns ~/.local/share/kvault/cache.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "kvault", "cache.db"), nil
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache %q: %w", path, err)
	}

	// Single writer to avoid SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Close releases the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveCategories replaces the stored category list.
func (c *Cache) SaveCategories(ctx context.Context, cats []model.Category) error {
	return c.save(ctx, FieldCategories, cats)
}

// SaveItems replaces the stored item list.
func (c *Cache) SaveItems(ctx context.Context, items []model.Item) error {
	return c.save(ctx, FieldItems, items)
}

// SaveStats replaces the stored stats.
func (c *Cache) SaveStats(ctx context.Context, stats *model.Stats) error {
	return c.save(ctx, FieldStats, stats)
}

func (c *Cache) save(ctx context.Context, f Field, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f, err)
	}
	const q = `
		INSERT INTO snapshot (field, payload, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(field) DO UPDATE SET
		    payload  = excluded.payload,
		    saved_at = excluded.saved_at`
	if _, err := c.db.ExecContext(ctx, q, string(f), string(payload), formatTime(c.now())); err != nil {
		return fmt.Errorf("saving %s: %w", f, err)
	}
	return nil
}

// Load returns the stored snapshot. A fresh database yields an empty snapshot
// and no error.
func (c *Cache) Load(ctx context.Context) (*Snapshot, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT field, payload, saved_at FROM snapshot`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := &Snapshot{SavedAt: map[Field]time.Time{}}
	for rows.Next() {
		if err := scanField(rows, snap); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return snap, nil
}

// Clear removes every stored field.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM snapshot`); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}
	return nil
}

// --- helpers -----------------------------------------------------------------

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanField(s scanner, snap *Snapshot) error {
	var field, payload, savedAt string
	if err := s.Scan(&field, &payload, &savedAt); err != nil {
		return fmt.Errorf("scanning snapshot row: %w", err)
	}

	var err error
	switch Field(field) {
	case FieldCategories:
		err = json.Unmarshal([]byte(payload), &snap.Categories)
	case FieldItems:
		err = json.Unmarshal([]byte(payload), &snap.Items)
	case FieldStats:
		err = json.Unmarshal([]byte(payload), &snap.Stats)
	default:
		err = errors.New("unknown field")
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", field, err)
	}

	snap.SavedAt[Field(field)], _ = parseTime(savedAt)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
