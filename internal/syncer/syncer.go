package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-gallery/internal/database"
	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"
	"media-gallery/internal/metrics"
	"media-gallery/internal/tokenizer"
	"media-gallery/internal/walker"
)

// EventKind classifies a filesystem change event.
type EventKind string

const (
	// EventAdd is a new file.
	EventAdd EventKind = "add"
	// EventAddDir is a new directory.
	EventAddDir EventKind = "addDir"
	// EventUnlink is a removed file.
	EventUnlink EventKind = "unlink"
	// EventUnlinkDir is a removed directory; descendants are removed too.
	EventUnlinkDir EventKind = "unlinkDir"
)

// ChangeEvent is one discrete filesystem change carrying an absolute path.
type ChangeEvent struct {
	Kind EventKind
	Path string
}

// Syncer keeps the index store consistent with the media root. Both entry
// points are all-or-nothing and must not interleave on the same store; a
// mutex serializes them.
type Syncer struct {
	db       *database.Database
	mediaDir string
	mu       sync.Mutex
}

// New creates a Syncer over the index store and media root.
func New(db *database.Database, mediaDir string) *Syncer {
	return &Syncer{db: db, mediaDir: mediaDir}
}

// Rebuild wipes the catalog and re-indexes the entire media tree in one
// transaction. On any failure the transaction is rolled back and the store
// is left exactly as it was. Returns the number of items processed.
func (s *Syncer) Rebuild(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.SyncRebuildsTotal.Inc()
	start := time.Now()
	logging.Info("Starting full index rebuild of %s", s.mediaDir)

	tx, err := s.db.Begin()
	if err != nil {
		metrics.SyncErrors.Inc()
		return 0, fmt.Errorf("failed to begin rebuild transaction: %w", err)
	}

	count, err := s.rebuildInTx(ctx, tx)
	if endErr := s.db.End(tx, err); endErr != nil {
		metrics.SyncErrors.Inc()
		return 0, fmt.Errorf("rebuild failed: %w", endErr)
	}

	duration := time.Since(start)
	metrics.SyncRebuildDuration.Set(duration.Seconds())
	metrics.SyncItemsIndexed.Add(float64(count))
	logging.Info("Rebuild complete: %d items in %v", count, duration)
	return count, nil
}

func (s *Syncer) rebuildInTx(ctx context.Context, tx *sql.Tx) (int, error) {
	if err := s.db.WipeItems(tx); err != nil {
		return 0, fmt.Errorf("failed to wipe items: %w", err)
	}

	count := 0
	err := walker.Walk(s.mediaDir, func(entry walker.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.insertEntry(tx, entry.Path, entry.Name, entry.Type); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// insertEntry writes an item and, when the insert actually added a row, its
// shadow row using the path with separators as word boundaries.
func (s *Syncer) insertEntry(tx *sql.Tx, relPath, name string, typ mediatypes.ItemType) error {
	item := &database.Item{Name: name, Path: relPath, Type: typ}
	rowid, inserted, err := s.db.InsertItem(tx, item)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", relPath, err)
	}
	if !inserted {
		return nil
	}
	if err := s.db.InsertShadow(tx, rowid, tokenizer.TokenizePath(relPath)); err != nil {
		return fmt.Errorf("failed to insert shadow row for %s: %w", relPath, err)
	}
	return nil
}

// Apply replays an ordered batch of change events against the index inside
// a single transaction, so a burst from the filesystem watcher is either
// fully visible or not at all. An empty batch performs no I/O. The syncer
// never retries; failures are reported upward.
func (s *Syncer) Apply(ctx context.Context, events []ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		metrics.SyncErrors.Inc()
		return fmt.Errorf("failed to begin apply transaction: %w", err)
	}

	err = s.applyInTx(ctx, tx, events)
	if endErr := s.db.End(tx, err); endErr != nil {
		metrics.SyncErrors.Inc()
		return fmt.Errorf("apply failed: %w", endErr)
	}

	logging.Debug("Applied %d change events", len(events))
	return nil
}

func (s *Syncer) applyInTx(ctx context.Context, tx *sql.Tx, events []ChangeEvent) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := s.relativize(event.Path)
		if err != nil {
			logging.Warn("Skipping change event outside media root: %s", event.Path)
			continue
		}

		switch event.Kind {
		case EventAdd:
			typ := mediatypes.TypeForName(path.Base(relPath))
			if typ == mediatypes.ItemTypeOther {
				continue
			}
			if err := s.addOrRefresh(tx, relPath, typ); err != nil {
				return err
			}
		case EventAddDir:
			if mediatypes.IsReservedDir(path.Base(relPath)) {
				continue
			}
			if err := s.addOrRefresh(tx, relPath, mediatypes.ItemTypeAlbum); err != nil {
				return err
			}
		case EventUnlink, EventUnlinkDir:
			deleted, err := s.db.DeleteByPathOrPrefix(tx, relPath)
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", relPath, err)
			}
			logging.Debug("Removed %d items for %s", deleted, relPath)
		default:
			return fmt.Errorf("unknown change event kind %q", event.Kind)
		}

		metrics.SyncChangesApplied.WithLabelValues(string(event.Kind)).Inc()
	}
	return nil
}

// addOrRefresh inserts a new item, or refreshes the stored classification
// when an insert-or-ignore was suppressed by an existing row whose type no
// longer matches (an extension rename re-reported as add).
func (s *Syncer) addOrRefresh(tx *sql.Tx, relPath string, typ mediatypes.ItemType) error {
	if err := s.insertEntry(tx, relPath, path.Base(relPath), typ); err != nil {
		return err
	}

	existing, err := s.db.ItemByPathTx(tx, relPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to look up %s: %w", relPath, err)
	}
	if existing.Type != typ {
		logging.Info("Reclassifying %s: %s -> %s", relPath, existing.Type, typ)
		if err := s.db.UpdateItemType(tx, existing.ID, typ); err != nil {
			return fmt.Errorf("failed to reclassify %s: %w", relPath, err)
		}
		if err := s.db.ReplaceShadow(tx, existing.ID, tokenizer.TokenizePath(relPath)); err != nil {
			return fmt.Errorf("failed to refresh shadow row for %s: %w", relPath, err)
		}
	}
	return nil
}

// relativize converts an absolute event path to the slash-separated path
// relative to the media root used as item identity.
func (s *Syncer) relativize(absPath string) (string, error) {
	rel, err := filepath.Rel(s.mediaDir, absPath)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %s is not under media root", absPath)
	}
	return rel, nil
}
