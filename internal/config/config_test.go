package config

import (
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) string {
	t.Helper()
	mediaDir := t.TempDir()
	t.Setenv("MEDIA_DIR", mediaDir)
	t.Setenv("DATABASE_DIR", filepath.Join(t.TempDir(), "db"))
	return mediaDir
}

func TestLoadConfigDefaults(t *testing.T) {
	mediaDir := setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MediaDir != mediaDir {
		t.Errorf("MediaDir = %s", cfg.MediaDir)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %s", cfg.RedisAddr)
	}
	if cfg.CacheCapacity != 64 {
		t.Errorf("CacheCapacity = %d", cfg.CacheCapacity)
	}
	if cfg.WatchDebounce != 2*time.Second {
		t.Errorf("WatchDebounce = %v", cfg.WatchDebounce)
	}
	if filepath.Base(cfg.DatabasePath) != "index.db" {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRANSFORM_CACHE_CAPACITY", "128")
	t.Setenv("WATCH_DEBOUNCE", "500ms")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.CacheCapacity != 128 {
		t.Errorf("CacheCapacity = %d, want 128", cfg.CacheCapacity)
	}
	if cfg.WatchDebounce != 500*time.Millisecond {
		t.Errorf("WatchDebounce = %v, want 500ms", cfg.WatchDebounce)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", cfg.RedisDB)
	}
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRANSFORM_CACHE_CAPACITY", "-4")
	t.Setenv("WATCH_DEBOUNCE", "soon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.CacheCapacity != 64 {
		t.Errorf("CacheCapacity = %d, want fallback 64", cfg.CacheCapacity)
	}
	if cfg.WatchDebounce != 2*time.Second {
		t.Errorf("WatchDebounce = %v, want fallback 2s", cfg.WatchDebounce)
	}
}

func TestLoadConfigMissingMediaDir(t *testing.T) {
	t.Setenv("MEDIA_DIR", filepath.Join(t.TempDir(), "nope"))
	t.Setenv("DATABASE_DIR", t.TempDir())

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected an error for a missing media directory")
	}
}
