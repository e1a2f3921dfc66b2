package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"media-gallery/internal/mediatypes"
)

// InsertItem inserts an item with INSERT OR IGNORE semantics inside tx.
// It returns the new rowid and true when a row was actually added, or zero
// and false when a duplicate path suppressed the insert.
func (d *Database) InsertItem(tx *sql.Tx, item *Item) (int64, bool, error) {
	result, err := tx.ExecContext(context.Background(),
		`INSERT OR IGNORE INTO items (name, path, type) VALUES (?, ?, ?)`,
		item.Name, item.Path, string(item.Type),
	)
	if err != nil {
		return 0, false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if rows == 0 {
		return 0, false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// InsertShadow writes the full-text shadow row for an item rowid. Must run
// in the same transaction as the item insert.
func (d *Database) InsertShadow(tx *sql.Tx, rowid int64, tokens string) error {
	_, err := tx.ExecContext(context.Background(),
		`INSERT INTO items_fts (rowid, name) VALUES (?, ?)`,
		rowid, tokens,
	)
	return err
}

// ReplaceShadow rewrites the shadow row for an existing item rowid.
func (d *Database) ReplaceShadow(tx *sql.Tx, rowid int64, tokens string) error {
	if _, err := tx.ExecContext(context.Background(),
		`DELETE FROM items_fts WHERE rowid = ?`, rowid); err != nil {
		return err
	}
	return d.InsertShadow(tx, rowid, tokens)
}

// ItemByPathTx looks up an item by path inside tx. Returns sql.ErrNoRows
// when absent.
func (d *Database) ItemByPathTx(tx *sql.Tx, path string) (*Item, error) {
	var item Item
	var typ string
	err := tx.QueryRowContext(context.Background(),
		`SELECT id, name, path, type FROM items WHERE path = ?`, path,
	).Scan(&item.ID, &item.Name, &item.Path, &typ)
	if err != nil {
		return nil, err
	}
	item.Type = mediatypes.ItemType(typ)
	return &item, nil
}

// UpdateItemType rewrites the stored classification of an item.
func (d *Database) UpdateItemType(tx *sql.Tx, rowid int64, typ mediatypes.ItemType) error {
	_, err := tx.ExecContext(context.Background(),
		`UPDATE items SET type = ? WHERE id = ?`, string(typ), rowid)
	return err
}

// WipeItems deletes every item and every shadow row inside tx.
func (d *Database) WipeItems(tx *sql.Tx) error {
	if _, err := tx.ExecContext(context.Background(), `DELETE FROM items_fts`); err != nil {
		return err
	}
	_, err := tx.ExecContext(context.Background(), `DELETE FROM items`)
	return err
}

// DeleteByPathOrPrefix removes the item at path plus every descendant whose
// path starts with path + "/", from both tables, inside tx. Hierarchy lives
// in the path strings, so this is an explicit prefix query rather than a
// referential cascade. Returns the number of items removed.
func (d *Database) DeleteByPathOrPrefix(tx *sql.Tx, path string) (int64, error) {
	ctx := context.Background()
	prefix := path + "/%"

	// Shadow rows first, while the item rowids still exist.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM items_fts WHERE rowid IN (SELECT id FROM items WHERE path = ? OR path LIKE ?)`,
		path, prefix,
	); err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM items WHERE path = ? OR path LIKE ?`,
		path, prefix,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountItems returns the number of catalog entries.
func (d *Database) CountItems(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_items", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var count int
	err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	return count, err
}

// ShadowCount returns the number of full-text shadow rows.
func (d *Database) ShadowCount(ctx context.Context) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_shadow", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var count int
	err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items_fts`).Scan(&count)
	return count, err
}

// ListMedia returns the path and type of every photo and video in the
// catalog, ordered by path.
func (d *Database) ListMedia(ctx context.Context) ([]Item, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_media", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, path, type FROM items WHERE type IN ('photo', 'video') ORDER BY path`,
	)
	if err != nil {
		return nil, fmt.Errorf("list media query failed: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// prepareMatchQuery turns a space-separated gram string into an FTS5 MATCH
// expression. Each gram is quoted as a phrase so punctuation in it cannot be
// read as query syntax. Grams holding no letters or digits are dropped: the
// shadow table's unicode61 tokenizer never indexes them, so they could only
// ever match nothing.
func prepareMatchQuery(grams string) string {
	var phrases []string
	for _, gram := range strings.Fields(grams) {
		if !strings.ContainsFunc(gram, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) {
			continue
		}
		phrases = append(phrases, `"`+strings.ReplaceAll(gram, `"`, `""`)+`"`)
	}
	return strings.Join(phrases, " ")
}

// Search matches items whose tokenized path contains the query grams.
func (d *Database) Search(ctx context.Context, grams string) ([]Item, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search", start, err) }()

	match := prepareMatchQuery(grams)
	if match == "" {
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx,
		`SELECT i.id, i.name, i.path, i.type
		 FROM items_fts f JOIN items i ON i.id = f.rowid
		 WHERE items_fts MATCH ?
		 ORDER BY i.path`,
		match,
	)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var item Item
		var typ string
		if err := rows.Scan(&item.ID, &item.Name, &item.Path, &typ); err != nil {
			return nil, err
		}
		item.Type = mediatypes.ItemType(typ)
		items = append(items, item)
	}
	return items, rows.Err()
}
