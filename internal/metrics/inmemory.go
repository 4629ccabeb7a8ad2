package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ImageCacheHits       uint64
	ImageCacheMisses     uint64
	ImageLookupCount     uint64
	ImageLookupTotalNs   int64
	ImagesCreated        uint64
	ImagesUpdated        uint64
	ImagesDeleted        uint64
	TransformationsApplied uint64
	AppliesRejected      uint64
	ApplyDurationCount   uint64
	ApplyDurationTotalNs int64
	ActiveSessions       int64
	CreditsDebited       uint64
	CreditsPurchased     uint64
	CheckoutsStarted     uint64
	CheckoutsCompleted   uint64
}

// InMemoryRecorder stores metrics in memory for tests and the admin
// snapshot endpoint.
type InMemoryRecorder struct {
	imageCacheHits         uint64
	imageCacheMisses       uint64
	imageLookupCount       uint64
	imageLookupTotalNs     int64
	imagesCreated          uint64
	imagesUpdated          uint64
	imagesDeleted          uint64
	transformationsApplied uint64
	appliesRejected        uint64
	applyDurationCount     uint64
	applyDurationTotalNs   int64
	activeSessions         int64
	creditsDebited         uint64
	creditsPurchased       uint64
	checkoutsStarted       uint64
	checkoutsCompleted     uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ImageCacheHits:         atomic.LoadUint64(&m.imageCacheHits),
		ImageCacheMisses:       atomic.LoadUint64(&m.imageCacheMisses),
		ImageLookupCount:       atomic.LoadUint64(&m.imageLookupCount),
		ImageLookupTotalNs:     atomic.LoadInt64(&m.imageLookupTotalNs),
		ImagesCreated:          atomic.LoadUint64(&m.imagesCreated),
		ImagesUpdated:          atomic.LoadUint64(&m.imagesUpdated),
		ImagesDeleted:          atomic.LoadUint64(&m.imagesDeleted),
		TransformationsApplied: atomic.LoadUint64(&m.transformationsApplied),
		AppliesRejected:        atomic.LoadUint64(&m.appliesRejected),
		ApplyDurationCount:     atomic.LoadUint64(&m.applyDurationCount),
		ApplyDurationTotalNs:   atomic.LoadInt64(&m.applyDurationTotalNs),
		ActiveSessions:         atomic.LoadInt64(&m.activeSessions),
		CreditsDebited:         atomic.LoadUint64(&m.creditsDebited),
		CreditsPurchased:       atomic.LoadUint64(&m.creditsPurchased),
		CheckoutsStarted:       atomic.LoadUint64(&m.checkoutsStarted),
		CheckoutsCompleted:     atomic.LoadUint64(&m.checkoutsCompleted),
	}
}

// IncImageCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncImageCacheHit() {
	atomic.AddUint64(&m.imageCacheHits, 1)
}

// IncImageCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncImageCacheMiss() {
	atomic.AddUint64(&m.imageCacheMisses, 1)
}

// ObserveImageLookupDuration records an image lookup duration.
func (m *InMemoryRecorder) ObserveImageLookupDuration(duration time.Duration) {
	atomic.AddUint64(&m.imageLookupCount, 1)
	atomic.AddInt64(&m.imageLookupTotalNs, duration.Nanoseconds())
}

// IncImageCreated increments the image created counter.
func (m *InMemoryRecorder) IncImageCreated() {
	atomic.AddUint64(&m.imagesCreated, 1)
}

// IncImageUpdated increments the image updated counter.
func (m *InMemoryRecorder) IncImageUpdated() {
	atomic.AddUint64(&m.imagesUpdated, 1)
}

// IncImageDeleted increments the image deleted counter.
func (m *InMemoryRecorder) IncImageDeleted() {
	atomic.AddUint64(&m.imagesDeleted, 1)
}

// IncTransformationApplied increments the apply counter.
func (m *InMemoryRecorder) IncTransformationApplied(transformationType string) {
	atomic.AddUint64(&m.transformationsApplied, 1)
}

// IncApplyRejected increments the rejected-apply counter.
func (m *InMemoryRecorder) IncApplyRejected(reason string) {
	atomic.AddUint64(&m.appliesRejected, 1)
}

// ObserveApplyDuration records an apply duration.
func (m *InMemoryRecorder) ObserveApplyDuration(duration time.Duration) {
	atomic.AddUint64(&m.applyDurationCount, 1)
	atomic.AddInt64(&m.applyDurationTotalNs, duration.Nanoseconds())
}

// SetActiveSessions records the current workflow session count.
func (m *InMemoryRecorder) SetActiveSessions(count int64) {
	atomic.StoreInt64(&m.activeSessions, count)
}

// IncCreditsDebited adds to the debited-credits counter.
func (m *InMemoryRecorder) IncCreditsDebited(amount int) {
	if amount > 0 {
		atomic.AddUint64(&m.creditsDebited, uint64(amount))
	}
}

// IncCreditsPurchased adds to the purchased-credits counter.
func (m *InMemoryRecorder) IncCreditsPurchased(amount int) {
	if amount > 0 {
		atomic.AddUint64(&m.creditsPurchased, uint64(amount))
	}
}

// IncCheckoutStarted increments the checkout started counter.
func (m *InMemoryRecorder) IncCheckoutStarted() {
	atomic.AddUint64(&m.checkoutsStarted, 1)
}

// IncCheckoutCompleted increments the checkout completed counter.
func (m *InMemoryRecorder) IncCheckoutCompleted(status string) {
	atomic.AddUint64(&m.checkoutsCompleted, 1)
}
