package memory

import (
	"runtime/debug"
	"testing"
)

func TestConfigureFromEnv(t *testing.T) {
	original := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(original) })

	t.Run("from container limit", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "1000000000")
		t.Setenv("MEMORY_RATIO", "")

		got := ConfigureFromEnv()
		want := int64(float64(1000000000) * DefaultRatio)
		if got != want {
			t.Errorf("ConfigureFromEnv = %d, want %d", got, want)
		}
		if limit := debug.SetMemoryLimit(-1); limit != want {
			t.Errorf("GOMEMLIMIT = %d, want %d", limit, want)
		}
	})

	t.Run("custom ratio", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "1000000000")
		t.Setenv("MEMORY_RATIO", "0.5")

		if got := ConfigureFromEnv(); got != 500000000 {
			t.Errorf("ConfigureFromEnv = %d, want 500000000", got)
		}
	})

	t.Run("unset leaves limit alone", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "")

		before := debug.SetMemoryLimit(-1)
		if got := ConfigureFromEnv(); got != 0 {
			t.Errorf("ConfigureFromEnv = %d, want 0", got)
		}
		if after := debug.SetMemoryLimit(-1); after != before {
			t.Errorf("Limit changed from %d to %d", before, after)
		}
	})

	t.Run("invalid limit ignored", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		t.Setenv("MEMORY_LIMIT", "not-a-number")

		if got := ConfigureFromEnv(); got != 0 {
			t.Errorf("ConfigureFromEnv = %d, want 0", got)
		}
	})
}
