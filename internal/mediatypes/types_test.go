package mediatypes

import "testing"

func TestTypeForName(t *testing.T) {
	tests := []struct {
		name string
		want ItemType
	}{
		{"beach.jpg", ItemTypePhoto},
		{"beach.JPEG", ItemTypePhoto},
		{"scan.heic", ItemTypePhoto},
		{"clip.mp4", ItemTypeVideo},
		{"clip.MKV", ItemTypeVideo},
		{"notes.txt", ItemTypeOther},
		{"noext", ItemTypeOther},
		{"", ItemTypeOther},
	}

	for _, tt := range tests {
		if got := TypeForName(tt.name); got != tt.want {
			t.Errorf("TypeForName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsMediaFile(t *testing.T) {
	if !IsMediaFile("a.png") {
		t.Error("Expected a.png to be a media file")
	}
	if IsMediaFile("a.pdf") {
		t.Error("Expected a.pdf to not be a media file")
	}
}

func TestIsReservedDir(t *testing.T) {
	if !IsReservedDir("@eaDir") {
		t.Error("Expected @eaDir to be reserved")
	}
	if !IsReservedDir(".thumbnails") {
		t.Error("Expected dot-prefixed directory to be reserved")
	}
	if IsReservedDir("holidays") {
		t.Error("Expected holidays to not be reserved")
	}
}
