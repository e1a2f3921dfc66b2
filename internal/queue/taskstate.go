package queue

import (
	"context"
	"encoding/json"
	"time"

	"media-gallery/internal/kvstore"
	"media-gallery/internal/logging"
)

const (
	taskStateKeyPrefix = "task_state:"

	// taskStateTTL is how long a finished task's result stays queryable.
	taskStateTTL = 24 * time.Hour
)

// Task states reported through the shared store.
const (
	StatePending = "PENDING"
	StateSuccess = "SUCCESS"
	StateFailure = "FAILURE"
)

// TaskState is the queryable record of a submitted job's progress.
type TaskState struct {
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
}

// setTaskState publishes the current state of taskID. Publication is best
// effort: a store outage must not fail the job itself.
func setTaskState(ctx context.Context, store kvstore.Store, taskID, status string, result any) {
	data, err := json.Marshal(TaskState{Status: status, Result: result})
	if err != nil {
		logging.Error("Failed to marshal task state for %s: %v", taskID, err)
		return
	}
	if err := store.Set(ctx, taskStateKeyPrefix+taskID, string(data), taskStateTTL); err != nil {
		logging.Warn("Failed to publish task state for %s: %v", taskID, err)
	}
}

// GetTaskState returns the published state of taskID, or ok=false when the
// task is unknown or its record has expired.
func GetTaskState(ctx context.Context, store kvstore.Store, taskID string) (TaskState, bool) {
	raw, ok, err := store.Get(ctx, taskStateKeyPrefix+taskID)
	if err != nil || !ok {
		return TaskState{}, false
	}
	var state TaskState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logging.Warn("Corrupt task state record for %s: %v", taskID, err)
		return TaskState{}, false
	}
	return state, true
}
