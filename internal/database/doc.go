// Package database provides the SQLite index store for the gallery
// background-processing subsystem.
//
// It holds three tables:
//   - items: the canonical catalog (albums, photos, videos keyed by path)
//   - items_fts: the full-text shadow table, one row per item sharing the
//     item's rowid and holding its tokenized n-gram string
//   - view_history: per-user viewed timestamps for items and their ancestors
//
// Shadow rows are written and deleted explicitly in the same transaction as
// their items; there are no triggers and no foreign-key cascades. Hierarchy
// is expressed through slash-separated paths, so descendant removal is an
// explicit prefix query.
//
// The database uses WAL mode for improved concurrent read performance and
// includes automatic schema initialization.
package database
