package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncImageCacheHit is a no-op.
func (n *NoopRecorder) IncImageCacheHit() {}

// IncImageCacheMiss is a no-op.
func (n *NoopRecorder) IncImageCacheMiss() {}

// ObserveImageLookupDuration is a no-op.
func (n *NoopRecorder) ObserveImageLookupDuration(duration time.Duration) {}

// IncImageCreated is a no-op.
func (n *NoopRecorder) IncImageCreated() {}

// IncImageUpdated is a no-op.
func (n *NoopRecorder) IncImageUpdated() {}

// IncImageDeleted is a no-op.
func (n *NoopRecorder) IncImageDeleted() {}

// IncTransformationApplied is a no-op.
func (n *NoopRecorder) IncTransformationApplied(transformationType string) {}

// IncApplyRejected is a no-op.
func (n *NoopRecorder) IncApplyRejected(reason string) {}

// ObserveApplyDuration is a no-op.
func (n *NoopRecorder) ObserveApplyDuration(duration time.Duration) {}

// SetActiveSessions is a no-op.
func (n *NoopRecorder) SetActiveSessions(count int64) {}

// IncCreditsDebited is a no-op.
func (n *NoopRecorder) IncCreditsDebited(amount int) {}

// IncCreditsPurchased is a no-op.
func (n *NoopRecorder) IncCreditsPurchased(amount int) {}

// IncCheckoutStarted is a no-op.
func (n *NoopRecorder) IncCheckoutStarted() {}

// IncCheckoutCompleted is a no-op.
func (n *NoopRecorder) IncCheckoutCompleted(status string) {}
