package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/navshell/internal/errors"
	"github.com/vango-dev/navshell/pkg/history"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navshell").
	Namespace string

	// Subsystem is the metrics subsystem (default: "session").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for frame duration.
	// Default: prometheus.DefBuckets
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

// WithBuckets sets the histogram buckets.
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
		Subsystem: "session",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// FrameMetrics holds the collectors maintained by the Prometheus middleware.
type FrameMetrics struct {
	framesTotal   *prometheus.CounterVec
	frameDuration *prometheus.HistogramVec
	frameErrors   *prometheus.CounterVec
}

func newFrameMetrics(config MetricsConfig) *FrameMetrics {
	factory := promauto.With(config.Registry)

	return &FrameMetrics{
		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_total",
			Help:        "Total number of client frames handled",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "status"}),

		frameDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_duration_seconds",
			Help:        "Frame handling duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),

		frameErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_errors_total",
			Help:        "Total number of rejected frames by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "code"}),
	}
}

// Prometheus returns middleware that counts and times client frames.
// Collectors are registered once, when Prometheus is called:
//
//   - <ns>_session_frames_total{type,status}
//   - <ns>_session_frame_duration_seconds{type}
//   - <ns>_session_frame_errors_total{type,code}
//
// Rejections are labelled by their error code, which keeps the label set
// bounded.
func Prometheus(opts ...MetricsOption) (Middleware, *FrameMetrics) {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := newFrameMetrics(config)

	return func(next Handler) Handler {
		return func(ctx context.Context, msg history.Message) error {
			typ := frameType(msg)
			start := time.Now()

			err := next(ctx, msg)

			m.frameDuration.WithLabelValues(typ).Observe(time.Since(start).Seconds())
			status := "success"
			if err != nil {
				status = "error"
				m.frameErrors.WithLabelValues(typ, errors.CodeOf(err)).Inc()
			}
			m.framesTotal.WithLabelValues(typ, status).Inc()
			return err
		}
	}, m
}
