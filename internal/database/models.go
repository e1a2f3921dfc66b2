package database

import (
	"time"

	"media-gallery/internal/mediatypes"
)

// Item is one catalog entry. Identity is Path (relative to the media root,
// forward-slash separated); Name is the basename, stored for query
// convenience.
type Item struct {
	ID   int64               `json:"id"`
	Name string              `json:"name"`
	Path string              `json:"path"`
	Type mediatypes.ItemType `json:"type"`
}

// ViewRecord is one per-user viewed timestamp. Latest write wins.
type ViewRecord struct {
	UserID   string    `json:"userId"`
	ItemPath string    `json:"itemPath"`
	ViewedAt time.Time `json:"viewedAt"`
}
