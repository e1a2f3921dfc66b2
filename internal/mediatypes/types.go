package mediatypes

import (
	"path/filepath"
	"strings"
)

// ItemType represents the catalog classification of an indexed entry.
type ItemType string

const (
	// ItemTypeAlbum represents a directory.
	ItemTypeAlbum ItemType = "album"
	// ItemTypePhoto represents a raster image file.
	ItemTypePhoto ItemType = "photo"
	// ItemTypeVideo represents a video container file.
	ItemTypeVideo ItemType = "video"
	// ItemTypeOther represents an unknown or unsupported file type.
	ItemTypeOther ItemType = "other"
)

// ReservedDirName is the system metadata directory excluded from traversal.
// Synology NAS devices create these alongside media files.
const ReservedDirName = "@eaDir"

// PhotoExtensions maps file extensions to whether they are supported raster
// image formats.
var PhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are supported video
// container formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// TypeForName returns the ItemType for a file name based on its extension.
// Returns ItemTypeOther if the extension is not recognized.
func TypeForName(name string) ItemType {
	ext := strings.ToLower(filepath.Ext(name))
	if PhotoExtensions[ext] {
		return ItemTypePhoto
	}
	if VideoExtensions[ext] {
		return ItemTypeVideo
	}
	return ItemTypeOther
}

// IsMediaFile returns true if the file name has a supported media extension.
func IsMediaFile(name string) bool {
	return TypeForName(name) != ItemTypeOther
}

// IsReservedDir returns true for directories that must be pruned from
// traversal entirely: the NAS metadata folder and hidden directories.
func IsReservedDir(name string) bool {
	return name == ReservedDirName || strings.HasPrefix(name, ".")
}
