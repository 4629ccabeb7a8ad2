package handler

import (
	"fmt"
	"net/http"

	"github.com/Nazifamoh/artifyAI/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "artifyai_image_cache_hits_total %d\n", snap.ImageCacheHits)
	writeMetric(w, "artifyai_image_cache_misses_total %d\n", snap.ImageCacheMisses)
	writeMetric(w, "artifyai_image_lookup_duration_seconds_count %d\n", snap.ImageLookupCount)
	writeMetric(w, "artifyai_image_lookup_duration_seconds_sum %.6f\n", float64(snap.ImageLookupTotalNs)/1e9)

	writeMetric(w, "artifyai_images_created_total %d\n", snap.ImagesCreated)
	writeMetric(w, "artifyai_images_updated_total %d\n", snap.ImagesUpdated)
	writeMetric(w, "artifyai_images_deleted_total %d\n", snap.ImagesDeleted)

	writeMetric(w, "artifyai_transformations_applied_total %d\n", snap.TransformationsApplied)
	writeMetric(w, "artifyai_applies_rejected_total %d\n", snap.AppliesRejected)
	writeMetric(w, "artifyai_apply_duration_seconds_count %d\n", snap.ApplyDurationCount)
	writeMetric(w, "artifyai_apply_duration_seconds_sum %.6f\n", float64(snap.ApplyDurationTotalNs)/1e9)
	writeMetric(w, "artifyai_workflow_sessions_active %d\n", snap.ActiveSessions)

	writeMetric(w, "artifyai_credits_debited_total %d\n", snap.CreditsDebited)
	writeMetric(w, "artifyai_credits_purchased_total %d\n", snap.CreditsPurchased)
	writeMetric(w, "artifyai_checkouts_started_total %d\n", snap.CheckoutsStarted)
	writeMetric(w, "artifyai_checkouts_completed_total %d\n", snap.CheckoutsCompleted)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
