package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Every recording method is safe to
// call on a nil *Metrics, so instrumented code does not need to check.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Collection metrics
	CollectionsTotal     *prometheus.CounterVec
	CollectionDuration   *prometheus.HistogramVec
	CollectionNodes      prometheus.Histogram
	CyclesTotal          prometheus.Counter
	CollectionExceptions prometheus.Counter

	// Repository metrics
	DescriptorReadsTotal     *prometheus.CounterVec
	VersionResolutionsTotal  *prometheus.CounterVec
	SubtreeLookupsTotal      *prometheus.CounterVec
	DescriptorCacheHitsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depcollect_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depcollect_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depcollect_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		CollectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depcollect_collections_total",
				Help: "Total number of dependency collections",
			},
			[]string{"status"},
		),
		CollectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depcollect_collection_duration_seconds",
				Help:    "Dependency collection duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
			},
			[]string{"status"},
		),
		CollectionNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "depcollect_collection_nodes",
				Help:    "Number of nodes in collected dependency trees",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		CyclesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "depcollect_cycles_total",
				Help: "Total number of dependency cycles detected",
			},
		),
		CollectionExceptions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "depcollect_collection_exceptions_total",
				Help: "Total number of errors recorded during collection",
			},
		),

		DescriptorReadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depcollect_descriptor_reads_total",
				Help: "Total number of descriptor lookups by outcome",
			},
			[]string{"outcome"},
		),
		VersionResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depcollect_version_resolutions_total",
				Help: "Total number of version constraint resolutions by outcome",
			},
			[]string{"outcome"},
		),
		SubtreeLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depcollect_subtree_lookups_total",
				Help: "Total number of memoized subtree lookups",
			},
			[]string{"result"},
		),
		DescriptorCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depcollect_descriptor_cache_total",
				Help: "Total number of shared descriptor cache lookups",
			},
			[]string{"cache_type", "result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.CollectionsTotal,
		m.CollectionDuration,
		m.CollectionNodes,
		m.CyclesTotal,
		m.CollectionExceptions,
		m.DescriptorReadsTotal,
		m.VersionResolutionsTotal,
		m.SubtreeLookupsTotal,
		m.DescriptorCacheHitsTotal,
	)

	return m
}

// ObserveCollection records one finished Collect call
func (m *Metrics) ObserveCollection(status string, d time.Duration, nodes, exceptions int) {
	if m == nil {
		return
	}
	m.CollectionsTotal.WithLabelValues(status).Inc()
	m.CollectionDuration.WithLabelValues(status).Observe(d.Seconds())
	m.CollectionNodes.Observe(float64(nodes))
	m.CollectionExceptions.Add(float64(exceptions))
}

// RecordCycle counts one detected cycle
func (m *Metrics) RecordCycle() {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
}

// RecordDescriptorRead counts a descriptor lookup: hit, miss or error
func (m *Metrics) RecordDescriptorRead(outcome string) {
	if m == nil {
		return
	}
	m.DescriptorReadsTotal.WithLabelValues(outcome).Inc()
}

// RecordVersionResolution counts a resolution: ok or error
func (m *Metrics) RecordVersionResolution(outcome string) {
	if m == nil {
		return
	}
	m.VersionResolutionsTotal.WithLabelValues(outcome).Inc()
}

// RecordSubtreeReuse counts a memoized subtree lookup
func (m *Metrics) RecordSubtreeReuse(hit bool) {
	if m == nil {
		return
	}
	m.SubtreeLookupsTotal.WithLabelValues(hitLabel(hit)).Inc()
}

// RecordCacheLookup counts a lookup in a shared descriptor cache such as
// the LRU or Redis layer
func (m *Metrics) RecordCacheLookup(cacheType string, hit bool) {
	if m == nil {
		return
	}
	m.DescriptorCacheHitsTotal.WithLabelValues(cacheType, hitLabel(hit)).Inc()
}

func hitLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
