package videoopt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"media-gallery/internal/kvstore"
	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
)

// Status describes how an optimization job concluded without doing a remux.
type Status string

const (
	// StatusOptimized means the file was remuxed and replaced in place.
	StatusOptimized Status = "optimized"
	// StatusSkippedOptimized means the container already streams progressively.
	StatusSkippedOptimized Status = "skipped-already-optimized"
	// StatusSkippedReadOnly means the file's directory is not writable.
	StatusSkippedReadOnly Status = "skipped-read-only"
	// StatusSkippedPermanentFailure means a live failure marker suppressed the job.
	StatusSkippedPermanentFailure Status = "skipped-permanent-failure"
)

const (
	// probeWindow is how much of the file header gets scanned for atom
	// ordering. The moov atom of a faststart file sits well inside this.
	probeWindow = 64 * 1024

	// maxConsecutiveFailures is how many failed remux attempts a file gets
	// before it is marked permanently failed.
	maxConsecutiveFailures = 3
)

// Job names one video file, relative to the media root, to optimize.
type Job struct {
	FilePath string `json:"filePath"`
}

// Result reports the outcome of an optimization job.
type Result struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
	Status  Status `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Optimizer remuxes MP4 containers so the moov atom precedes media data,
// letting browsers start playback before the download completes.
type Optimizer struct {
	mediaDir string
	registry *kvstore.FailureRegistry

	mu       sync.Mutex
	failures map[string]int
}

// New creates an Optimizer rooted at mediaDir.
func New(mediaDir string, registry *kvstore.FailureRegistry) *Optimizer {
	return &Optimizer{
		mediaDir: mediaDir,
		registry: registry,
		failures: make(map[string]int),
	}
}

// Optimize runs one job to completion and always reports the immediate
// outcome, even when the attempt also tripped the permanent-failure
// threshold.
func (o *Optimizer) Optimize(ctx context.Context, job Job) Result {
	res := Result{Path: job.FilePath}

	if o.registry.IsFailed(ctx, job.FilePath) {
		logging.Debug("Skipping %s: permanent failure marker present", job.FilePath)
		res.Success = true
		res.Status = StatusSkippedPermanentFailure
		return res
	}

	absPath := filepath.Join(o.mediaDir, filepath.FromSlash(job.FilePath))

	optimized, err := isFaststart(absPath)
	if err != nil {
		return o.failed(ctx, job.FilePath, fmt.Errorf("failed to probe %s: %w", job.FilePath, err))
	}
	if optimized {
		// Any non-failure outcome breaks a consecutive-failure streak.
		o.mu.Lock()
		delete(o.failures, job.FilePath)
		o.mu.Unlock()
		res.Success = true
		res.Status = StatusSkippedOptimized
		return res
	}

	if !dirWritable(filepath.Dir(absPath)) {
		logging.Info("Skipping %s: directory is not writable", job.FilePath)
		res.Success = true
		res.Status = StatusSkippedReadOnly
		return res
	}

	if err := o.remux(ctx, absPath); err != nil {
		return o.failed(ctx, job.FilePath, err)
	}

	o.clearFailures(ctx, job.FilePath)
	res.Success = true
	res.Status = StatusOptimized
	logging.Info("Optimized %s for progressive playback", job.FilePath)
	return res
}

// failed records one more consecutive failure for path and writes the
// permanent marker once the threshold is reached.
func (o *Optimizer) failed(ctx context.Context, path string, err error) Result {
	o.mu.Lock()
	o.failures[path]++
	count := o.failures[path]
	if count >= maxConsecutiveFailures {
		delete(o.failures, path)
	}
	o.mu.Unlock()

	logging.Warn("Optimization of %s failed (attempt %d): %v", path, count, err)
	if count >= maxConsecutiveFailures {
		if markErr := o.registry.MarkFailed(ctx, path); markErr != nil {
			logging.Error("Failed to write permanent-failure marker for %s: %v", path, markErr)
		}
		metrics.VideoPermanentFailures.Inc()
	}

	return Result{Path: path, Error: err.Error()}
}

func (o *Optimizer) clearFailures(ctx context.Context, path string) {
	o.mu.Lock()
	delete(o.failures, path)
	o.mu.Unlock()
	if err := o.registry.Clear(ctx, path); err != nil {
		logging.Warn("Failed to clear failure marker for %s: %v", path, err)
	}
}

// isFaststart reports whether the MP4 at absPath already has its moov atom
// ahead of the media data. Only the first probeWindow bytes are examined; a
// file whose moov is beyond that is by definition not faststart, and a file
// too short to contain an mdat needs no remux.
func isFaststart(absPath string) (bool, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, probeWindow)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	header = header[:n]

	moov := bytes.Index(header, []byte("moov"))
	mdat := bytes.Index(header, []byte("mdat"))

	switch {
	case moov >= 0 && (mdat < 0 || moov < mdat):
		return true, nil
	case mdat < 0:
		// Neither atom in the window: header-only or tiny file, nothing
		// to reorder.
		return true, nil
	default:
		return false, nil
	}
}

// dirWritable probes dir by creating and removing a marker file. Permission
// bits alone are not trustworthy on network mounts.
func dirWritable(dir string) bool {
	probe, err := os.CreateTemp(dir, ".writecheck-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return true
}

// remux rewrites absPath with the moov atom up front, via a temporary
// sibling swapped in atomically so a crash never leaves a partial file in
// place of the original.
func (o *Optimizer) remux(ctx context.Context, absPath string) error {
	tmpPath := filepath.Join(filepath.Dir(absPath), "."+filepath.Base(absPath)+".faststart.tmp")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", absPath,
		"-c", "copy",
		"-movflags", "+faststart",
		tmpPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ffmpeg remux failed: %w: %s", err, lastLine(stderr.String()))
	}

	if err := os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace original file: %w", err)
	}
	return nil
}

// lastLine trims ffmpeg's stderr down to its final line, which carries the
// actual error.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
