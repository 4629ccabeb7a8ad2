// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Image view metrics
	IncImageCacheHit()
	IncImageCacheMiss()
	ObserveImageLookupDuration(duration time.Duration)

	// Image persistence metrics
	IncImageCreated()
	IncImageUpdated()
	IncImageDeleted()

	// Workflow metrics
	IncTransformationApplied(transformationType string)
	IncApplyRejected(reason string) // reason: "insufficient_credits", "nothing_to_apply", "in_flight"
	ObserveApplyDuration(duration time.Duration)
	SetActiveSessions(count int64)

	// Credit metrics
	IncCreditsDebited(amount int)
	IncCreditsPurchased(amount int)

	// Checkout metrics
	IncCheckoutStarted()
	IncCheckoutCompleted(status string) // status: "paid" or "duplicate"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
