package videoopt

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"media-gallery/internal/kvstore"
)

func newTestOptimizer(t *testing.T) (*Optimizer, *kvstore.FailureRegistry, string) {
	t.Helper()

	mediaDir := t.TempDir()
	registry := kvstore.NewFailureRegistry(kvstore.NewMemoryStore(), 0)
	return New(mediaDir, registry), registry, mediaDir
}

// writeMP4 writes a synthetic container with the named atoms in order.
func writeMP4(t *testing.T, dir, name string, atoms ...string) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("\x00\x00\x00\x20ftypisom")
	for _, atom := range atoms {
		buf.WriteString("\x00\x00\x01\x00" + atom)
		buf.Write(bytes.Repeat([]byte{0}, 256))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestIsFaststart(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		atoms []string
		want  bool
	}{
		{"moov-first.mp4", []string{"moov", "mdat"}, true},
		{"mdat-first.mp4", []string{"mdat", "moov"}, false},
		{"no-mdat.mp4", []string{"moov"}, true},
		{"header-only.mp4", nil, true},
	}
	for _, tt := range tests {
		path := writeMP4(t, dir, tt.name, tt.atoms...)
		got, err := isFaststart(path)
		if err != nil {
			t.Errorf("isFaststart(%s) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("isFaststart(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsFaststartMoovBeyondWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late-moov.mp4")

	var buf bytes.Buffer
	buf.WriteString("\x00\x00\x00\x20ftypisom")
	buf.WriteString("\x00\x02\x00\x00mdat")
	buf.Write(bytes.Repeat([]byte{0}, probeWindow))
	buf.WriteString("\x00\x00\x01\x00moov")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	got, err := isFaststart(path)
	if err != nil {
		t.Fatalf("isFaststart failed: %v", err)
	}
	if got {
		t.Error("A moov atom past the probe window should not count as faststart")
	}
}

func TestOptimizeSkipsAlreadyOptimized(t *testing.T) {
	o, _, mediaDir := newTestOptimizer(t)
	writeMP4(t, mediaDir, "ok.mp4", "moov", "mdat")

	res := o.Optimize(context.Background(), Job{FilePath: "ok.mp4"})
	if !res.Success || res.Status != StatusSkippedOptimized {
		t.Errorf("Expected skipped-already-optimized, got %+v", res)
	}
}

func TestOptimizeSkipsMarkedFile(t *testing.T) {
	o, registry, _ := newTestOptimizer(t)
	ctx := context.Background()

	// The file does not exist; a marked path must short-circuit before I/O.
	if err := registry.MarkFailed(ctx, "broken.mp4"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	res := o.Optimize(ctx, Job{FilePath: "broken.mp4"})
	if !res.Success || res.Status != StatusSkippedPermanentFailure {
		t.Errorf("Expected skipped-permanent-failure, got %+v", res)
	}
}

func TestOptimizeMarksAfterRepeatedFailures(t *testing.T) {
	o, registry, _ := newTestOptimizer(t)
	ctx := context.Background()

	// A missing file fails the probe on every attempt.
	for i := 1; i <= maxConsecutiveFailures; i++ {
		res := o.Optimize(ctx, Job{FilePath: "ghost.mp4"})
		if res.Success {
			t.Fatalf("Attempt %d unexpectedly succeeded: %+v", i, res)
		}
		if res.Error == "" {
			t.Errorf("Attempt %d reported no error", i)
		}
		marked := registry.IsFailed(ctx, "ghost.mp4")
		if want := i == maxConsecutiveFailures; marked != want {
			t.Errorf("After attempt %d: marker present = %v, want %v", i, marked, want)
		}
	}

	res := o.Optimize(ctx, Job{FilePath: "ghost.mp4"})
	if !res.Success || res.Status != StatusSkippedPermanentFailure {
		t.Errorf("Expected short-circuit after marker, got %+v", res)
	}
}

func TestOptimizeSkipsReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("Directory permissions are not enforced for root")
	}

	o, _, mediaDir := newTestOptimizer(t)
	roDir := filepath.Join(mediaDir, "readonly")
	if err := os.Mkdir(roDir, 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	writeMP4(t, roDir, "clip.mp4", "mdat", "moov")
	if err := os.Chmod(roDir, 0o555); err != nil {
		t.Fatalf("Failed to chmod directory: %v", err)
	}
	t.Cleanup(func() { os.Chmod(roDir, 0o755) })

	res := o.Optimize(context.Background(), Job{FilePath: "readonly/clip.mp4"})
	if !res.Success || res.Status != StatusSkippedReadOnly {
		t.Errorf("Expected skipped-read-only, got %+v", res)
	}
}

func TestFailureCounterClearsOnSuccess(t *testing.T) {
	o, _, mediaDir := newTestOptimizer(t)
	ctx := context.Background()

	// Two failures, then a success (file becomes already-optimized), then
	// two more failures: the counter must have reset, so no marker yet.
	o.Optimize(ctx, Job{FilePath: "flaky.mp4"})
	o.Optimize(ctx, Job{FilePath: "flaky.mp4"})

	writeMP4(t, mediaDir, "flaky.mp4", "moov", "mdat")
	if res := o.Optimize(ctx, Job{FilePath: "flaky.mp4"}); !res.Success {
		t.Fatalf("Expected success after file appeared, got %+v", res)
	}

	if err := os.Remove(filepath.Join(mediaDir, "flaky.mp4")); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}
	o.Optimize(ctx, Job{FilePath: "flaky.mp4"})
	o.Optimize(ctx, Job{FilePath: "flaky.mp4"})

	if o.registry.IsFailed(ctx, "flaky.mp4") {
		t.Error("Counter should have reset on success; marker written too early")
	}
}

func TestLastLine(t *testing.T) {
	stderr := "frame=  100\nframe=  200\nConversion failed!\n"
	if got := lastLine(stderr); got != "Conversion failed!" {
		t.Errorf("lastLine = %q", got)
	}
	if got := lastLine(""); got != "" {
		t.Errorf("lastLine of empty input = %q", got)
	}
}
