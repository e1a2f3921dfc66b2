package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"media-gallery/internal/captioner"
	"media-gallery/internal/kvstore"
	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
	"media-gallery/internal/videoopt"
)

// Server hosts the background job workers. Each named queue gets an equal
// share of the worker pool; jobs within a queue run concurrently with no
// ordering guarantee.
type Server struct {
	srv       *asynq.Server
	mux       *asynq.ServeMux
	captioner *captioner.Captioner
	optimizer *videoopt.Optimizer
	states    kvstore.Store
}

// NewServer wires the worker host. Results are published through states so
// callers can poll task outcomes.
func NewServer(opt asynq.RedisClientOpt, concurrency int, captions *captioner.Captioner, videos *videoopt.Optimizer, states kvstore.Store) *Server {
	s := &Server{
		srv: asynq.NewServer(opt, asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				CaptionQueue: 1,
				VideoQueue:   1,
			},
			Logger: asynqLogger{},
		}),
		mux:       asynq.NewServeMux(),
		captioner: captions,
		optimizer: videos,
		states:    states,
	}
	s.mux.HandleFunc(TypeCaptionGenerate, s.handleCaption)
	s.mux.HandleFunc(TypeVideoOptimize, s.handleVideo)
	return s
}

// Run blocks serving jobs until Shutdown is called.
func (s *Server) Run() error {
	logging.Info("Job worker started (queues: %s, %s)", CaptionQueue, VideoQueue)
	return s.srv.Run(s.mux)
}

// Start launches the worker pool without blocking.
func (s *Server) Start() error {
	logging.Info("Job worker started (queues: %s, %s)", CaptionQueue, VideoQueue)
	return s.srv.Start(s.mux)
}

// Shutdown waits for in-flight jobs and stops the worker pool.
func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

// handleCaption processes one caption:generate task. A returned error hands
// the task back to the broker for resubmission.
func (s *Server) handleCaption(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	var job captioner.Job
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("malformed caption payload: %w: %w", err, asynq.SkipRetry)
	}
	taskID, _ := asynq.GetTaskID(ctx)

	caption, err := s.captioner.Generate(ctx, job)
	metrics.JobDuration.WithLabelValues(CaptionQueue).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.JobsProcessed.WithLabelValues(CaptionQueue, "failure").Inc()
		setTaskState(ctx, s.states, taskID, StateFailure, captioner.Result{
			Success: false,
			Error:   err.Error(),
		})
		return fmt.Errorf("caption job for %s failed: %w", job.ImagePath, err)
	}

	metrics.JobsProcessed.WithLabelValues(CaptionQueue, "success").Inc()
	setTaskState(ctx, s.states, taskID, StateSuccess, captioner.Result{
		Success: true,
		Caption: caption,
	})
	logging.Debug("Captioned %s (%d chars)", job.ImagePath, len(caption))
	return nil
}

// handleVideo processes one video:optimize task.
func (s *Server) handleVideo(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	var job videoopt.Job
	if err := json.Unmarshal(t.Payload(), &job); err != nil {
		return fmt.Errorf("malformed video payload: %w: %w", err, asynq.SkipRetry)
	}
	taskID, _ := asynq.GetTaskID(ctx)

	res := s.optimizer.Optimize(ctx, job)
	metrics.JobDuration.WithLabelValues(VideoQueue).Observe(time.Since(start).Seconds())
	if !res.Success {
		metrics.JobsProcessed.WithLabelValues(VideoQueue, "failure").Inc()
		setTaskState(ctx, s.states, taskID, StateFailure, res)
		return fmt.Errorf("video job for %s failed: %s", job.FilePath, res.Error)
	}

	metrics.JobsProcessed.WithLabelValues(VideoQueue, "success").Inc()
	setTaskState(ctx, s.states, taskID, StateSuccess, res)
	return nil
}

// asynqLogger routes broker log lines through the application logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logging.Debug("%s", fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...interface{})  { logging.Info("%s", fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...interface{})  { logging.Warn("%s", fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...interface{}) { logging.Error("%s", fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...interface{}) { logging.Error("%s", fmt.Sprint(args...)) }
