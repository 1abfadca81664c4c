package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "profiles"

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	profilesCreated *prometheus.CounterVec
	profilesUpdated prometheus.Counter
	profilesDeleted prometheus.Counter
	feedCreated     prometheus.Counter
	feedDeleted     prometheus.Counter
	loginAttempts   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheus registers all collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		profilesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_created_total",
			Help:      "Total number of user profiles created, by kind (user/superuser).",
		}, []string{"kind"}),
		profilesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_updated_total",
			Help:      "Total number of user profile updates.",
		}),
		profilesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profiles_deleted_total",
			Help:      "Total number of user profiles deleted.",
		}),
		feedCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_items_created_total",
			Help:      "Total number of feed items created.",
		}),
		feedDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_items_deleted_total",
			Help:      "Total number of feed items deleted, including cascaded deletes.",
		}),
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts, by result.",
		}, []string{"result"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncProfileCreated(kind string) {
	p.profilesCreated.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncProfileUpdated() {
	p.profilesUpdated.Inc()
}

func (p *PrometheusRecorder) IncProfileDeleted() {
	p.profilesDeleted.Inc()
}

func (p *PrometheusRecorder) IncFeedItemCreated() {
	p.feedCreated.Inc()
}

func (p *PrometheusRecorder) IncFeedItemsDeleted(n int) {
	if n > 0 {
		p.feedDeleted.Add(float64(n))
	}
}

func (p *PrometheusRecorder) IncLoginAttempt(result string) {
	p.loginAttempts.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
