// CLAUDE:SUMMARY SQLite snapshot persistence for the page arena: schema, transactional Save, ordered Load.

// Package store persists page-tree snapshots to SQLite.
//
// The arena remains the source of truth at runtime; Save rewrites the
// pages and components tables from a full snapshot in one transaction,
// and Load rebuilds the snapshot at startup. Component rows carry a
// state column ("draft" or "published") so both lists share one table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/arbo/dbopen"
	"github.com/hazyhaar/arbo/site/internal/tree"
)

// Schema contains the DDL for the site tables.
const Schema = `
CREATE TABLE IF NOT EXISTS pages (
    id          TEXT PRIMARY KEY,
    parent_id   TEXT,
    slug        TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    template    TEXT NOT NULL DEFAULT 'default',
    position    INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_parent ON pages(parent_id, position);

CREATE TABLE IF NOT EXISTS components (
    id         TEXT NOT NULL,
    page_id    TEXT NOT NULL,
    state      TEXT NOT NULL CHECK (state IN ('draft', 'published')),
    position   INTEGER NOT NULL DEFAULT 0,
    type       TEXT NOT NULL DEFAULT 'markdown',
    title      TEXT NOT NULL DEFAULT '',
    body       TEXT NOT NULL DEFAULT '',
    template   TEXT NOT NULL DEFAULT 'default',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (id, state)
);
CREATE INDEX IF NOT EXISTS idx_components_page ON components(page_id, state, position);
`

// Store is the site database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the site SQLite database at path, applies the
// production pragmas and the site schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Save rewrites both tables from the snapshot in one transaction, with
// retry on SQLITE_BUSY. Readers of a previous snapshot never observe a
// half-written tree.
func (s *Store) Save(ctx context.Context, snap *tree.Snapshot) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM components`); err != nil {
			return fmt.Errorf("clear components: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
			return fmt.Errorf("clear pages: %w", err)
		}

		pageStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO pages (id, parent_id, slug, title, description, template, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer pageStmt.Close()
		for _, p := range snap.Pages {
			if _, err := pageStmt.ExecContext(ctx,
				p.ID, nullable(p.ParentID), p.Slug, p.Title, p.Description, p.Template,
				p.Position, p.CreatedAt.Unix(), p.UpdatedAt.Unix()); err != nil {
				return fmt.Errorf("insert page %s: %w", p.ID, err)
			}
		}

		compStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO components (id, page_id, state, position, type, title, body, template, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer compStmt.Close()
		insert := func(state string, list []*tree.Component) error {
			for _, c := range list {
				if _, err := compStmt.ExecContext(ctx,
					c.ID, c.PageID, state, c.Position, c.Type, c.Title, c.Body, c.Template,
					c.CreatedAt.Unix(), c.UpdatedAt.Unix()); err != nil {
					return fmt.Errorf("insert %s component %s: %w", state, c.ID, err)
				}
			}
			return nil
		}
		if err := insert("draft", snap.Draft); err != nil {
			return err
		}
		return insert("published", snap.Published)
	})
}

// Load reads the persisted snapshot. Returns (nil, nil) when the database
// holds no pages, so callers can fall back to a fresh tree.
func (s *Store) Load(ctx context.Context) (*tree.Snapshot, error) {
	snap := &tree.Snapshot{}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, COALESCE(parent_id, ''), slug, title, description, template, position, created_at, updated_at
		FROM pages
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p tree.Page
		var created, updated int64
		if err := rows.Scan(&p.ID, &p.ParentID, &p.Slug, &p.Title, &p.Description,
			&p.Template, &p.Position, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		p.UpdatedAt = time.Unix(updated, 0).UTC()
		if p.ParentID == "" {
			snap.RootID = p.ID
		}
		snap.Pages = append(snap.Pages, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snap.Pages) == 0 {
		return nil, nil
	}

	crows, err := s.DB.QueryContext(ctx, `
		SELECT id, page_id, state, position, type, title, body, template, created_at, updated_at
		FROM components
		ORDER BY page_id, state, position`)
	if err != nil {
		return nil, fmt.Errorf("load components: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c tree.Component
		var state string
		var created, updated int64
		if err := crows.Scan(&c.ID, &c.PageID, &state, &c.Position, &c.Type,
			&c.Title, &c.Body, &c.Template, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		c.CreatedAt = time.Unix(created, 0).UTC()
		c.UpdatedAt = time.Unix(updated, 0).UTC()
		if state == "published" {
			snap.Published = append(snap.Published, &c)
		} else {
			snap.Draft = append(snap.Draft, &c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
