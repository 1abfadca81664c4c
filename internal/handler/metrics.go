package handler

import (
	"fmt"
	"net/http"

	"github.com/profilesapi/profiles/internal/metrics"
)

// MetricsHandler exposes metrics in Prometheus text format. A Prometheus
// recorder serves its own registry; an in-memory recorder is rendered from
// its snapshot.
type MetricsHandler struct {
	recorder metrics.Recorder
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(recorder metrics.Recorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	switch rec := h.recorder.(type) {
	case interface{ Handler() http.Handler }:
		rec.Handler().ServeHTTP(w, r)
	case metrics.Snapshotter:
		writeSnapshot(w, rec.Snapshot())
	default:
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}

func writeSnapshot(w http.ResponseWriter, snap metrics.Snapshot) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "profiles_profiles_created_total{kind=\"user\"} %d\n", snap.ProfilesCreated-snap.SuperusersCreated)
	writeMetric(w, "profiles_profiles_created_total{kind=\"superuser\"} %d\n", snap.SuperusersCreated)
	writeMetric(w, "profiles_profiles_updated_total %d\n", snap.ProfilesUpdated)
	writeMetric(w, "profiles_profiles_deleted_total %d\n", snap.ProfilesDeleted)

	writeMetric(w, "profiles_feed_items_created_total %d\n", snap.FeedItemsCreated)
	writeMetric(w, "profiles_feed_items_deleted_total %d\n", snap.FeedItemsDeleted)

	writeMetric(w, "profiles_login_attempts_total{result=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "profiles_login_attempts_total{result=\"invalid\"} %d\n", snap.LoginFailures)
	writeMetric(w, "profiles_login_attempts_total{result=\"throttled\"} %d\n", snap.LoginThrottled)

	writeMetric(w, "profiles_http_request_duration_seconds_count %d\n", snap.Requests)
	writeMetric(w, "profiles_http_request_duration_seconds_sum %.6f\n", float64(snap.RequestTotalNanos)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
