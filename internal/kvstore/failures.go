package kvstore

import (
	"context"
	"time"

	"media-gallery/internal/logging"
)

const (
	// failureKeyPrefix namespaces permanent-failure markers in the shared store.
	failureKeyPrefix = "video_failed_permanently:"

	// DefaultFailureTTL is how long a permanent-failure marker suppresses
	// new attempts before the subject becomes eligible again.
	DefaultFailureTTL = 7 * 24 * time.Hour
)

// FailureRegistry records subjects (video file paths) that have failed
// permanently, so future job submissions short-circuit instead of wasting
// resources. Absence of a marker means "eligible to retry".
type FailureRegistry struct {
	store Store
	ttl   time.Duration
}

// NewFailureRegistry creates a registry over the shared store. A zero ttl
// selects DefaultFailureTTL.
func NewFailureRegistry(store Store, ttl time.Duration) *FailureRegistry {
	if ttl <= 0 {
		ttl = DefaultFailureTTL
	}
	return &FailureRegistry{store: store, ttl: ttl}
}

// MarkFailed writes a permanent-failure marker for subject.
func (r *FailureRegistry) MarkFailed(ctx context.Context, subject string) error {
	logging.Warn("Marking %s as permanently failed for %v", subject, r.ttl)
	return r.store.Set(ctx, failureKeyPrefix+subject, "1", r.ttl)
}

// IsFailed reports whether subject carries a live permanent-failure marker.
// Store errors are logged and treated as "not failed" so a broker outage
// never suppresses work.
func (r *FailureRegistry) IsFailed(ctx context.Context, subject string) bool {
	failed, err := r.store.Exists(ctx, failureKeyPrefix+subject)
	if err != nil {
		logging.Warn("Failure registry lookup for %s failed: %v", subject, err)
		return false
	}
	return failed
}

// Clear removes the marker for subject, re-enabling attempts.
func (r *FailureRegistry) Clear(ctx context.Context, subject string) error {
	return r.store.Delete(ctx, failureKeyPrefix+subject)
}
