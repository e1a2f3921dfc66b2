package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// UpsertViewRecord writes a per-user viewed timestamp inside tx with
// insert-or-replace semantics on (user_id, item_path). Timestamps are stored
// with millisecond precision so back-to-back views within the same second
// still advance the record.
func (d *Database) UpsertViewRecord(tx *sql.Tx, userID, itemPath string, viewedAt time.Time) error {
	_, err := tx.ExecContext(context.Background(),
		`INSERT OR REPLACE INTO view_history (user_id, item_path, viewed_at) VALUES (?, ?, ?)`,
		userID, itemPath, viewedAt.UnixMilli(),
	)
	return err
}

// ViewedAt returns the viewed timestamp for a user/path pair, or false when
// the pair was never recorded.
func (d *Database) ViewedAt(ctx context.Context, userID, itemPath string) (time.Time, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("viewed_at", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var ts int64
	err = d.db.QueryRowContext(ctx,
		`SELECT viewed_at FROM view_history WHERE user_id = ? AND item_path = ?`,
		userID, itemPath,
	).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ts), true, nil
}

// ViewedPaths returns every path a user has viewed, for listing annotation.
func (d *Database) ViewedPaths(ctx context.Context, userID string) (map[string]time.Time, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("viewed_paths", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx,
		`SELECT item_path, viewed_at FROM view_history WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	viewed := make(map[string]time.Time)
	for rows.Next() {
		var path string
		var ts int64
		if err := rows.Scan(&path, &ts); err != nil {
			return nil, err
		}
		viewed[path] = time.UnixMilli(ts)
	}
	return viewed, rows.Err()
}
