package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"media-gallery/internal/captioner"
	"media-gallery/internal/videoopt"
)

// Queue names. Captions are cheap and latency-sensitive; video remuxes are
// long-running, so they get separate queues with independent weights.
const (
	CaptionQueue = "ai-caption-queue"
	VideoQueue   = "video-optimization-queue"
)

// Task type identifiers.
const (
	TypeCaptionGenerate = "caption:generate"
	TypeVideoOptimize   = "video:optimize"
)

const (
	captionTaskTimeout = 5 * time.Minute
	videoTaskTimeout   = 30 * time.Minute

	// maxRetry is how many times the broker resubmits a failed task before
	// parking it. Per-attempt retries inside the workers are separate.
	maxRetry = 2
)

// Client enqueues background jobs for the worker host.
type Client struct {
	asynq *asynq.Client
}

// NewClient creates a Client over the given redis connection settings.
func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{asynq: asynq.NewClient(opt)}
}

// Close releases the underlying broker connection.
func (c *Client) Close() error {
	return c.asynq.Close()
}

// EnqueueCaption submits a caption-generation job and returns its task ID.
func (c *Client) EnqueueCaption(job captioner.Job) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal caption job: %w", err)
	}
	taskID := uuid.NewString()
	_, err = c.asynq.Enqueue(asynq.NewTask(TypeCaptionGenerate, payload),
		asynq.Queue(CaptionQueue),
		asynq.TaskID(taskID),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(captionTaskTimeout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue caption job for %s: %w", job.ImagePath, err)
	}
	return taskID, nil
}

// EnqueueVideo submits a video-optimization job and returns its task ID.
func (c *Client) EnqueueVideo(job videoopt.Job) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal video job: %w", err)
	}
	taskID := uuid.NewString()
	_, err = c.asynq.Enqueue(asynq.NewTask(TypeVideoOptimize, payload),
		asynq.Queue(VideoQueue),
		asynq.TaskID(taskID),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(videoTaskTimeout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue video job for %s: %w", job.FilePath, err)
	}
	return taskID, nil
}
