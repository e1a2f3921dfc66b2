package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"
	"media-gallery/internal/syncer"
)

// DefaultDebounce is how long the watcher waits for the filesystem to go
// quiet before handing a batch of changes to the synchronizer. Bulk copies
// produce event storms; one batched apply beats hundreds of tiny ones.
const DefaultDebounce = 2 * time.Second

// Applier receives debounced change batches, in the order the changes were
// observed.
type Applier interface {
	Apply(ctx context.Context, events []syncer.ChangeEvent) error
}

// Watcher translates raw filesystem notifications under the media root into
// ordered change batches for the index synchronizer.
type Watcher struct {
	mediaDir string
	applier  Applier
	debounce time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]struct{}
	pending []syncer.ChangeEvent
	timer   *time.Timer
	flush   chan struct{}
}

// New creates a Watcher over mediaDir. A non-positive debounce selects
// DefaultDebounce.
func New(mediaDir string, applier Applier, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	return &Watcher{
		mediaDir: mediaDir,
		applier:  applier,
		debounce: debounce,
		fsw:      fsw,
		watched:  make(map[string]struct{}),
		flush:    make(chan struct{}, 1),
	}, nil
}

// Start registers watches over the media tree and begins dispatching change
// batches. It blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watchTree(w.mediaDir); err != nil {
		return err
	}
	logging.Info("Watching %s for changes (%d directories)", w.mediaDir, w.watchedCount())

	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Filesystem watcher error: %v", err)
		case <-w.flush:
			w.dispatch(ctx)
		}
	}
}

// watchTree registers event watches on dir and every non-reserved
// subdirectory below it.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Cannot watch %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && mediatypes.IsReservedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logging.Warn("Cannot watch %s: %v", path, err)
			return nil
		}
		w.mu.Lock()
		w.watched[path] = struct{}{}
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) watchedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// handleEvent maps one raw notification onto index change events. Writes and
// metadata changes carry no index-relevant information and are dropped.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if mediatypes.IsReservedDir(name) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.enqueue(syncer.ChangeEvent{Kind: syncer.EventAddDir, Path: event.Name})
			// A directory moved into the tree arrives as one Create; its
			// contents never get their own events, so scan it now.
			w.scanNewTree(event.Name)
		} else if mediatypes.IsMediaFile(name) {
			w.enqueue(syncer.ChangeEvent{Kind: syncer.EventAdd, Path: event.Name})
		}
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.mu.Lock()
		_, wasDir := w.watched[event.Name]
		delete(w.watched, event.Name)
		w.mu.Unlock()
		if wasDir {
			w.enqueue(syncer.ChangeEvent{Kind: syncer.EventUnlinkDir, Path: event.Name})
		} else if mediatypes.IsMediaFile(name) {
			w.enqueue(syncer.ChangeEvent{Kind: syncer.EventUnlink, Path: event.Name})
		}
	}
}

// scanNewTree walks a freshly created directory, watching its directories
// and emitting add events for anything already inside.
func (w *Watcher) scanNewTree(dir string) {
	if err := w.watchTree(dir); err != nil {
		logging.Warn("Failed to watch new directory %s: %v", dir, err)
	}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || path == dir {
			return nil
		}
		if d.IsDir() {
			if mediatypes.IsReservedDir(d.Name()) {
				return filepath.SkipDir
			}
			w.enqueue(syncer.ChangeEvent{Kind: syncer.EventAddDir, Path: path})
		} else if mediatypes.IsMediaFile(d.Name()) {
			w.enqueue(syncer.ChangeEvent{Kind: syncer.EventAdd, Path: path})
		}
		return nil
	})
	if err != nil {
		logging.Warn("Failed to scan new directory %s: %v", dir, err)
	}
}

// enqueue appends an event to the pending batch and (re)arms the debounce
// timer.
func (w *Watcher) enqueue(event syncer.ChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, event)
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, func() {
			select {
			case w.flush <- struct{}{}:
			default:
			}
		})
	} else {
		w.timer.Reset(w.debounce)
	}
}

// dispatch hands the pending batch to the synchronizer.
func (w *Watcher) dispatch(ctx context.Context) {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.timer = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	logging.Debug("Applying %d filesystem changes", len(batch))
	if err := w.applier.Apply(ctx, batch); err != nil {
		logging.Error("Failed to apply filesystem changes: %v", err)
	}
}
