package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the service's Prometheus collectors. It satisfies the
// recorder interfaces of the HTTP middleware and the domain services.
type Registry struct {
	reg *prometheus.Registry

	requests         *prometheus.HistogramVec
	timelineRuns     prometheus.Histogram
	timelineInput    prometheus.Counter
	timelineOutput   prometheus.Counter
	cacheLookups     *prometheus.CounterVec
	checksIngested   prometheus.Counter
	ingestionFailure prometheus.Counter
}

func NewRegistry(namespace string) *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		timelineRuns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "timeline_compute_duration_seconds",
			Help:      "Time spent coalescing a timeline.",
			Buckets:   prometheus.DefBuckets,
		}),
		timelineInput: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_input_events_total",
			Help:      "Location events fed into the coalescer.",
		}),
		timelineOutput: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_output_events_total",
			Help:      "Coalesced events produced.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_cache_lookups_total",
			Help:      "Timeline cache lookups by result.",
		}, []string{"result"}),
		checksIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_ingested_total",
			Help:      "Check results persisted from the queue.",
		}),
		ingestionFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_ingestion_failures_total",
			Help:      "Check events that failed to persist.",
		}),
	}

	r.reg.MustRegister(
		r.requests,
		r.timelineRuns,
		r.timelineInput,
		r.timelineOutput,
		r.cacheLookups,
		r.checksIngested,
		r.ingestionFailure,
	)
	return r
}

// Observe records one HTTP request. route should be the matched route
// pattern, not the raw path.
func (r *Registry) Observe(method, route string, status int, duration time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func (r *Registry) ObserveTimeline(inputEvents, outputEvents int, duration time.Duration) {
	r.timelineRuns.Observe(duration.Seconds())
	r.timelineInput.Add(float64(inputEvents))
	r.timelineOutput.Add(float64(outputEvents))
}

func (r *Registry) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Registry) RecordIngestion(checks int, err error) {
	if err != nil {
		r.ingestionFailure.Inc()
		return
	}
	r.checksIngested.Add(float64(checks))
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
