package history

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"media-gallery/internal/database"
	"media-gallery/internal/kvstore"
	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
)

// DefaultNamespace prefixes cached browse-response keys in the shared store.
const DefaultNamespace = "apicache"

// Tracker records per-user viewed timestamps and purges the cached
// browse-listing responses those views make stale.
type Tracker struct {
	db        *database.Database
	bus       kvstore.Store
	namespace string
}

// New creates a Tracker. An empty namespace selects DefaultNamespace.
func New(db *database.Database, bus kvstore.Store, namespace string) *Tracker {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Tracker{db: db, bus: bus, namespace: namespace}
}

// RecordView marks itemPath and every ancestor path as viewed by userID,
// then deletes the user's cached browse listings for each affected parent
// directory. "Viewed" is transitively marked so albums can surface an
// unread-descendants state. No-op when either argument is empty.
func (t *Tracker) RecordView(ctx context.Context, userID, itemPath string) error {
	if userID == "" || itemPath == "" {
		return nil
	}

	prefixes := ancestorPaths(itemPath)
	now := time.Now()

	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin view transaction: %w", err)
	}
	for _, prefix := range prefixes {
		if err != nil {
			break
		}
		err = t.db.UpsertViewRecord(tx, userID, prefix, now)
	}
	if endErr := t.db.End(tx, err); endErr != nil {
		return fmt.Errorf("failed to record view of %s: %w", itemPath, endErr)
	}

	t.invalidate(ctx, userID, prefixes)
	return nil
}

// Viewed returns whether userID has viewed itemPath, and when.
func (t *Tracker) Viewed(ctx context.Context, userID, itemPath string) (time.Time, bool, error) {
	return t.db.ViewedAt(ctx, userID, itemPath)
}

// invalidate purges the user's cached browse listings for every unique
// parent directory of the given paths. This is the sole mechanism keeping
// cached listings coherent with view state; a missed parent would leave a
// stale page visible.
func (t *Tracker) invalidate(ctx context.Context, userID string, paths []string) {
	seen := make(map[string]struct{})
	for _, p := range paths {
		parent := parentDir(p)
		if _, ok := seen[parent]; ok {
			continue
		}
		seen[parent] = struct{}{}

		pattern := t.browsePattern(userID, parent)
		deleted, err := t.bus.DeleteByPattern(ctx, pattern)
		if err != nil {
			logging.Warn("Cache invalidation for %s failed: %v", pattern, err)
			continue
		}
		if deleted > 0 {
			metrics.InvalidationsTotal.Add(float64(deleted))
			logging.Debug("Invalidated %d cached listings under %q for %s", deleted, parent, userID)
		}
	}
}

// browsePattern builds the key pattern for a user's cached listing of dir.
// The root listing is addressed exactly, never with a trailing wildcard: a
// wildcard there would sweep away every listing the user has cached, not
// just the one a root-level view made stale.
func (t *Tracker) browsePattern(userID, dir string) string {
	if dir == "" {
		return fmt.Sprintf("%s:%s:/api/browse/", t.namespace, userID)
	}
	return fmt.Sprintf("%s:%s:/api/browse/%s*", t.namespace, userID, dir)
}

// ancestorPaths returns every prefix of a slash-separated path, shortest
// first: "x/y/z.jpg" -> ["x", "x/y", "x/y/z.jpg"].
func ancestorPaths(itemPath string) []string {
	segments := strings.Split(strings.Trim(itemPath, "/"), "/")
	prefixes := make([]string, 0, len(segments))
	for i := range segments {
		prefixes = append(prefixes, strings.Join(segments[:i+1], "/"))
	}
	return prefixes
}

// parentDir returns the directory containing p, "" for top-level paths.
func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
