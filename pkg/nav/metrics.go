package nav

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navshell").
	Namespace string

	// Subsystem is the metrics subsystem (default: "nav").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for resolution latency.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
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

// WithBuckets sets the latency histogram buckets.
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

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navshell",
		Subsystem: "nav",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the navigation collectors.
//
// Collectors:
//   - navshell_nav_navigations_total{route,cause}: published resolutions
//   - navshell_nav_not_found_total: resolutions that matched no route
//   - navshell_nav_errors_total{reason}: rejected navigations
//   - navshell_nav_resolve_duration_seconds: time spent matching
//   - navshell_nav_subscribers: registered listeners across resolvers
//   - navshell_nav_listener_panics_total: recovered listener panics
//
// NewMetrics registers its collectors, so call it once per registry.
type Metrics struct {
	navigations     *prometheus.CounterVec
	notFound        prometheus.Counter
	errors          *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	subscribers     prometheus.Gauge
	listenerPanics  prometheus.Counter
}

// NewMetrics creates and registers the navigation collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of published route resolutions",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "cause"}),

		notFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "not_found_total",
			Help:        "Total number of resolutions that matched no route",
			ConstLabels: config.ConstLabels,
		}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of rejected navigations by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		resolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolve_duration_seconds",
			Help:        "Time spent matching a location against the route table",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribers",
			Help:        "Number of registered route listeners",
			ConstLabels: config.ConstLabels,
		}),

		listenerPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listener_panics_total",
			Help:        "Total number of recovered route listener panics",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// A nil *Metrics records nothing, so the resolver calls these unconditionally.

func (m *Metrics) recordNavigation(route, cause string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(route, cause).Inc()
}

func (m *Metrics) recordNotFound() {
	if m == nil {
		return
	}
	m.notFound.Inc()
}

func (m *Metrics) recordError(reason string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeResolve(d time.Duration) {
	if m == nil {
		return
	}
	m.resolveDuration.Observe(d.Seconds())
}

func (m *Metrics) addSubscribers(delta int) {
	if m == nil {
		return
	}
	m.subscribers.Add(float64(delta))
}

func (m *Metrics) recordListenerPanic() {
	if m == nil {
		return
	}
	m.listenerPanics.Inc()
}
