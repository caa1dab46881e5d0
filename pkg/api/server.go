package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/depcollect/pkg/collector"
	"github.com/platinummonkey/depcollect/pkg/config"
	"github.com/platinummonkey/depcollect/pkg/httputil"
	"github.com/platinummonkey/depcollect/pkg/observability"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// DefaultMaxBodyBytes bounds the size of a collect request
const DefaultMaxBodyBytes = 1 << 20

// Server represents our API server
type Server struct {
	collector    *collector.Collector
	descriptors  repository.DescriptorReader
	publisher    Publisher
	defaults     config.CollectorConfig
	repositories []repository.Remote

	router      *mux.Router
	handler     http.Handler
	log         *logrus.Logger
	metrics     *observability.Metrics
	registry    *prometheus.Registry
	otelMetrics *observability.OTelMetrics
	health      *observability.HealthChecker
}

// Publisher stores descriptors uploaded through the API
type Publisher interface {
	Publish(ctx context.Context, d *repository.Descriptor) error
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(log *logrus.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics records HTTP metrics and serves registry on /metrics
func WithMetrics(metrics *observability.Metrics, registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = metrics
		s.registry = registry
	}
}

// WithOTelMetrics records collections as OpenTelemetry metrics
func WithOTelMetrics(m *observability.OTelMetrics) Option {
	return func(s *Server) { s.otelMetrics = m }
}

// WithHealthChecker serves liveness and readiness probes
func WithHealthChecker(h *observability.HealthChecker) Option {
	return func(s *Server) { s.health = h }
}

// WithPublisher enables PUT /v1/descriptors/{coords}
func WithPublisher(p Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithRepositories sets the repositories used when a request names none
func WithRepositories(repos []repository.Remote) Option {
	return func(s *Server) { s.repositories = repos }
}

// NewServer creates a new API server. defaults describe the session used
// when a request carries no overrides.
func NewServer(c *collector.Collector, descriptors repository.DescriptorReader, defaults config.CollectorConfig, opts ...Option) *Server {
	s := &Server{
		collector:   c,
		descriptors: descriptors,
		defaults:    defaults,
		router:      mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.New()
	}

	s.setupRoutes()
	s.handler = otelhttp.NewHandler(httputil.Chain(
		httputil.RequestIDMiddleware(s.log),
		observability.PanicMiddleware(s.log),
		httputil.LoggingMiddleware,
		observability.HTTPMetricsMiddleware(s.metrics),
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(DefaultMaxBodyBytes),
	)(s.router), "depcollect")
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/collect", s.collect).Methods(http.MethodPost)
	v1.HandleFunc("/descriptors/{coords}", s.getDescriptor).Methods(http.MethodGet)
	if s.publisher != nil {
		v1.HandleFunc("/descriptors/{coords}", s.putDescriptor).Methods(http.MethodPut)
	}

	if s.health != nil {
		s.router.HandleFunc("/health/live", s.health.Liveness).Methods(http.MethodGet)
		s.router.HandleFunc("/health/ready", s.health.Readiness).Methods(http.MethodGet)
	}
	if s.registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(s.registry)).Methods(http.MethodGet)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
