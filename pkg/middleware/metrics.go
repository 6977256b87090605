package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/datastar-go/datastar/pkg/sse"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "datastar").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stream duration in seconds.
	// Streams are long-lived; the defaults reach into minutes.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the stream duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "datastar",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     []float64{0.1, 1, 5, 15, 60, 300, 900, 3600},
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for event streams.
type metrics struct {
	requestsTotal  *prometheus.CounterVec
	streamsStarted prometheus.Counter
	activeStreams  prometheus.Gauge
	streamDuration prometheus.Histogram
	framesSent     prometheus.Counter
	bytesSent      prometheus.Counter
	writeErrors    prometheus.Counter
}

// globalMetrics is the singleton metrics instance, created on first use.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of HTTP requests handled",
			ConstLabels: config.ConstLabels,
		}, []string{"path", "method"}),

		streamsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "streams_started_total",
			Help:        "Total number of event streams opened",
			ConstLabels: config.ConstLabels,
		}),

		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_streams",
			Help:        "Number of currently open event streams",
			ConstLabels: config.ConstLabels,
		}),

		streamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_duration_seconds",
			Help:        "Event stream lifetime in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of SSE frames emitted",
			ConstLabels: config.ConstLabels,
		}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_sent_total",
			Help:        "Total wire bytes written to event streams",
			ConstLabels: config.ConstLabels,
		}),

		writeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "write_errors_total",
			Help:        "Total transport write failures on event streams",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Metrics creates middleware that counts HTTP requests and registers the
// stream metrics fed by StreamMonitor.
//
// Metrics collected:
//   - datastar_requests_total: Counter of requests by path and method
//   - datastar_streams_started_total: Counter of opened event streams
//   - datastar_active_streams: Gauge of currently open streams
//   - datastar_stream_duration_seconds: Histogram of stream lifetime
//   - datastar_frames_sent_total: Counter of emitted frames
//   - datastar_bytes_sent_total: Counter of wire bytes written
//   - datastar_write_errors_total: Counter of transport write failures
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Metrics(middleware.WithNamespace("myapp")))
//	http.Handle("/metrics", promhttp.Handler())
func Metrics(opts ...MetricsOption) func(http.Handler) http.Handler {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := sharedMetrics(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "" {
				path = "/"
			}
			m.requestsTotal.WithLabelValues(path, r.Method).Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// sharedMetrics returns the singleton metrics, initializing on first call.
func sharedMetrics(config MetricsConfig) *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	return globalMetrics
}

// StreamMonitor returns an sse.Monitor that feeds the Prometheus stream
// metrics. Pass it to sse.New:
//
//	session, err := sse.New(w, r, sse.WithMonitor(middleware.StreamMonitor()))
func StreamMonitor(opts ...MetricsOption) sse.Monitor {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &promMonitor{m: sharedMetrics(config)}
}

// promMonitor bridges session callbacks to Prometheus.
type promMonitor struct {
	m *metrics
}

func (p *promMonitor) StreamOpened() {
	p.m.streamsStarted.Inc()
	p.m.activeStreams.Inc()
}

func (p *promMonitor) StreamClosed(d time.Duration) {
	p.m.activeStreams.Dec()
	p.m.streamDuration.Observe(d.Seconds())
}

func (p *promMonitor) FrameSent(bytes int) {
	p.m.framesSent.Inc()
	p.m.bytesSent.Add(float64(bytes))
}

func (p *promMonitor) WriteError() {
	p.m.writeErrors.Inc()
}
