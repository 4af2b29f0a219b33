// Package artwork maps imported payloads to known release titles and box art.
package artwork

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Entry is one known release in the catalog.
type Entry struct {
	ID       int64   `json:"id"`
	System   string  `json:"system"`
	Title    string  `json:"title"`
	Identity *string `json:"identity,omitempty"` // content identity of the canonical dump, when known
	URL      string  `json:"url"`
}

// Catalog stores artwork entries in SQLite.
type Catalog struct {
	db  *sql.DB
	log *slog.Logger
}

// NewCatalog creates a catalog backed by db.
func NewCatalog(db *sql.DB, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{db: db, log: log.With("component", "artwork")}
}

// Add inserts an entry, replacing the URL and identity of an existing
// (system, title) pair. Sets ID on the struct.
func (c *Catalog) Add(e *Entry) error {
	if e.System == "" || e.Title == "" || e.URL == "" {
		return fmt.Errorf("artwork entry requires system, title and url")
	}
	if e.Identity != nil {
		lower := strings.ToLower(*e.Identity)
		e.Identity = &lower
	}

	err := c.db.QueryRow(`
		INSERT INTO artwork (system, title, identity, url) VALUES (?, ?, ?, ?)
		ON CONFLICT (system, title) DO UPDATE SET identity = excluded.identity, url = excluded.url
		RETURNING id`,
		e.System, e.Title, e.Identity, e.URL,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert artwork %s/%s: %w", e.System, e.Title, err)
	}
	return nil
}

// List returns the entries of a system ordered by title.
// An empty system lists every entry.
func (c *Catalog) List(system string) ([]*Entry, error) {
	query := `SELECT id, system, title, identity, url FROM artwork`
	var args []any
	if system != "" {
		query += ` WHERE system = ?`
		args = append(args, system)
	}
	query += ` ORDER BY system, title`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artwork: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.System, &e.Title, &e.Identity, &e.URL); err != nil {
			return nil, fmt.Errorf("scan artwork: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artwork: %w", err)
	}
	return results, nil
}

// LookupByIdentity returns the entry recorded for a content identity.
func (c *Catalog) LookupByIdentity(identity string) (*Entry, error) {
	e := &Entry{}
	err := c.db.QueryRow(`
		SELECT id, system, title, identity, url FROM artwork
		WHERE identity = ? ORDER BY id LIMIT 1`, strings.ToLower(identity),
	).Scan(&e.ID, &e.System, &e.Title, &e.Identity, &e.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup artwork by identity: %w", err)
	}
	return e, nil
}

// Lookup resolves artwork for an imported payload: an exact identity match
// wins, otherwise the closest title of the same system above MatchThreshold.
// Returns ErrNotFound when neither applies.
func (c *Catalog) Lookup(system, identity, name string) (*Entry, error) {
	if identity != "" {
		e, err := c.LookupByIdentity(identity)
		if err == nil && e.System == system {
			return e, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	if name == "" {
		return nil, ErrNotFound
	}

	entries, err := c.List(system)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Title
	}

	m := MatchTitle(name, titles)
	if !m.Matched() {
		c.log.Debug("no artwork match", "system", system, "name", name, "best", m.Title, "score", m.Score)
		return nil, ErrNotFound
	}
	c.log.Debug("artwork matched", "system", system, "name", name, "title", m.Title, "score", m.Score)
	return entries[m.Index], nil
}
