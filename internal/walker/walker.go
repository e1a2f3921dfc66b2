package walker

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"media-gallery/internal/logging"
	"media-gallery/internal/mediatypes"
)

// Entry is one record yielded during traversal. Path is relative to the
// walk root and forward-slash separated.
type Entry struct {
	Type mediatypes.ItemType
	Path string
	Name string
}

// WalkFunc receives entries as they are produced. Returning an error aborts
// the entire walk and is surfaced by Walk.
type WalkFunc func(Entry) error

// Walk traverses root depth-first and calls fn lazily for each album,
// photo, and video found. A directory is yielded as an album before any of
// its children, so consumers always see parents first. Reserved system
// directories are pruned entirely and non-media files are skipped.
//
// I/O failures on a subtree are logged and terminate only that subtree's
// traversal; only errors from fn abort the walk. Each invocation re-walks
// from scratch.
func Walk(root string, fn WalkFunc) error {
	return walkDir(root, "", fn)
}

func walkDir(root, rel string, fn WalkFunc) error {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		logging.Warn("Error reading directory %s: %v", rel, err)
		return nil
	}

	// os.ReadDir sorts by name already; keep the ordering explicit since
	// deterministic yield order is part of the contract.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		childRel := name
		if rel != "" {
			childRel = path.Join(rel, name)
		}

		if entry.IsDir() {
			if mediatypes.IsReservedDir(name) {
				continue
			}
			if err := fn(Entry{Type: mediatypes.ItemTypeAlbum, Path: childRel, Name: name}); err != nil {
				return err
			}
			if err := walkDir(root, childRel, fn); err != nil {
				return err
			}
			continue
		}

		typ := mediatypes.TypeForName(name)
		if typ == mediatypes.ItemTypeOther {
			continue
		}
		if err := fn(Entry{Type: typ, Path: childRel, Name: name}); err != nil {
			return err
		}
	}

	return nil
}
