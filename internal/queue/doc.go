// Package queue hosts the asynq-backed background job workers.
//
// Two named queues carry the gallery's long-running work: ai-caption-queue
// for caption generation and video-optimization-queue for playback remuxes.
// Handler errors propagate to the broker, which owns resubmission; each
// job's outcome is also published as a task-state record in the shared
// key-value store so the submitting side can poll it.
package queue
