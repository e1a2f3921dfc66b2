package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"media-gallery/internal/database"
	"media-gallery/internal/mediatypes"
	"media-gallery/internal/tokenizer"
)

func newTestSyncer(t *testing.T) (*Syncer, *database.Database, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "index.db")
	db, err := database.New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mediaDir := t.TempDir()
	return New(db, mediaDir), db, mediaDir
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func itemPaths(t *testing.T, db *database.Database) map[string]mediatypes.ItemType {
	t.Helper()
	media, err := db.ListMedia(context.Background())
	if err != nil {
		t.Fatalf("ListMedia failed: %v", err)
	}
	paths := make(map[string]mediatypes.ItemType)
	for _, item := range media {
		paths[item.Path] = item.Type
	}
	return paths
}

func TestRebuildIsIdempotent(t *testing.T) {
	s, db, mediaDir := newTestSyncer(t)
	writeFile(t, filepath.Join(mediaDir, "albums", "summer", "beach.jpg"))
	writeFile(t, filepath.Join(mediaDir, "albums", "clip.mp4"))
	writeFile(t, filepath.Join(mediaDir, "notes.txt"))

	ctx := context.Background()

	first, err := s.Rebuild(ctx)
	if err != nil {
		t.Fatalf("First rebuild failed: %v", err)
	}
	// albums, albums/summer, beach.jpg, clip.mp4
	if first != 4 {
		t.Errorf("Expected 4 processed items, got %d", first)
	}

	second, err := s.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Second rebuild failed: %v", err)
	}
	if second != first {
		t.Errorf("Expected identical counts across rebuilds, got %d then %d", first, second)
	}

	items, err := db.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	shadows, err := db.ShadowCount(ctx)
	if err != nil {
		t.Fatalf("ShadowCount failed: %v", err)
	}
	if items != 4 {
		t.Errorf("Expected 4 items after rebuilds, got %d", items)
	}
	if shadows != items {
		t.Errorf("Expected shadow count %d to equal item count %d", shadows, items)
	}
}

func TestApplyEmptyBatchIsNoOp(t *testing.T) {
	s, _, _ := newTestSyncer(t)
	if err := s.Apply(context.Background(), nil); err != nil {
		t.Fatalf("Empty apply failed: %v", err)
	}
}

func TestApplyAddThenUnlinkIsNetNoOp(t *testing.T) {
	s, db, mediaDir := newTestSyncer(t)
	ctx := context.Background()
	target := filepath.Join(mediaDir, "a", "b.jpg")

	if err := s.Apply(ctx, []ChangeEvent{{Kind: EventAdd, Path: target}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	count, err := db.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 item after add, got %d", count)
	}

	if err := s.Apply(ctx, []ChangeEvent{{Kind: EventUnlink, Path: target}}); err != nil {
		t.Fatalf("Unlink failed: %v", err)
	}
	count, err = db.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty catalog after unlink, got %d items", count)
	}
	shadows, err := db.ShadowCount(ctx)
	if err != nil {
		t.Fatalf("ShadowCount failed: %v", err)
	}
	if shadows != 0 {
		t.Errorf("Expected no shadow rows after unlink, got %d", shadows)
	}
}

func TestUnlinkDirCascadesByPrefix(t *testing.T) {
	s, db, mediaDir := newTestSyncer(t)
	ctx := context.Background()

	events := []ChangeEvent{
		{Kind: EventAddDir, Path: filepath.Join(mediaDir, "a")},
		{Kind: EventAdd, Path: filepath.Join(mediaDir, "a", "b.jpg")},
		{Kind: EventAdd, Path: filepath.Join(mediaDir, "a", "c.jpg")},
		{Kind: EventAdd, Path: filepath.Join(mediaDir, "ab.jpg")},
	}
	if err := s.Apply(ctx, events); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := s.Apply(ctx, []ChangeEvent{{Kind: EventUnlinkDir, Path: filepath.Join(mediaDir, "a")}}); err != nil {
		t.Fatalf("UnlinkDir failed: %v", err)
	}

	paths := itemPaths(t, db)
	if _, ok := paths["a/b.jpg"]; ok {
		t.Error("Expected a/b.jpg to be removed")
	}
	if _, ok := paths["a/c.jpg"]; ok {
		t.Error("Expected a/c.jpg to be removed")
	}
	if _, ok := paths["ab.jpg"]; !ok {
		t.Error("Expected sibling ab.jpg to survive prefix delete")
	}

	count, err := db.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected only ab.jpg to remain, got %d items", count)
	}
}

func TestApplyDuplicateAddKeepsSingleShadowRow(t *testing.T) {
	s, db, mediaDir := newTestSyncer(t)
	ctx := context.Background()
	target := filepath.Join(mediaDir, "a", "b.jpg")

	for i := 0; i < 2; i++ {
		if err := s.Apply(ctx, []ChangeEvent{{Kind: EventAdd, Path: target}}); err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
	}

	items, err := db.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	shadows, err := db.ShadowCount(ctx)
	if err != nil {
		t.Fatalf("ShadowCount failed: %v", err)
	}
	if items != 1 || shadows != 1 {
		t.Errorf("Expected 1 item and 1 shadow row, got %d and %d", items, shadows)
	}
}

func TestApplyRefreshesTypeOnReclassification(t *testing.T) {
	s, db, mediaDir := newTestSyncer(t)
	ctx := context.Background()

	// Same path re-reported with a different classification: the stored
	// type follows the latest event.
	if err := s.Apply(ctx, []ChangeEvent{{Kind: EventAdd, Path: filepath.Join(mediaDir, "clip.webm")}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Apply(ctx, []ChangeEvent{{Kind: EventAddDir, Path: filepath.Join(mediaDir, "clip.webm")}}); err != nil {
		t.Fatalf("AddDir failed: %v", err)
	}

	items, err := db.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	if items != 1 {
		t.Fatalf("Expected 1 item, got %d", items)
	}

	media, err := db.ListMedia(ctx)
	if err != nil {
		t.Fatalf("ListMedia failed: %v", err)
	}
	if len(media) != 0 {
		t.Errorf("Expected reclassified album to drop out of media listing, got %+v", media)
	}

	// The shadow row is rewritten, not duplicated, and still searchable.
	shadows, err := db.ShadowCount(ctx)
	if err != nil {
		t.Fatalf("ShadowCount failed: %v", err)
	}
	if shadows != 1 {
		t.Errorf("Expected 1 shadow row after reclassification, got %d", shadows)
	}
	results, err := db.Search(ctx, tokenizer.Tokenize("clip", 1, 2))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Path != "clip.webm" {
		t.Errorf("Expected clip.webm to stay searchable, got %+v", results)
	}
}

func TestApplyIgnoresEventsOutsideRoot(t *testing.T) {
	s, db, _ := newTestSyncer(t)
	ctx := context.Background()

	if err := s.Apply(ctx, []ChangeEvent{{Kind: EventAdd, Path: filepath.Join(t.TempDir(), "x.jpg")}}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	count, err := db.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected events outside root to be skipped, got %d items", count)
	}
}
