package nav

import (
	"log/slog"

	"github.com/vango-dev/navshell/pkg/routepath"
	"go.opentelemetry.io/otel/trace"
)

// Mode selects how a navigation updates history.
type Mode int

const (
	// ModePush adds a new history entry.
	ModePush Mode = iota

	// ModeReplace overwrites the current history entry.
	ModeReplace
)

func (m Mode) String() string {
	switch m {
	case ModePush:
		return "push"
	case ModeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// NavigateOptions configures a navigation.
type NavigateOptions struct {
	// Mode selects push or replace. Defaults to ModePush.
	Mode Mode

	// Query is merged over any query carried by the target location.
	Query routepath.Query
}

// NavigateOption is a functional option for Navigate and NavigateToName.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Mode = ModeReplace
	}
}

// WithMode sets the history mode explicitly.
func WithMode(m Mode) NavigateOption {
	return func(o *NavigateOptions) {
		o.Mode = m
	}
}

// WithQuery adds query parameters to the navigation target.
func WithQuery(q routepath.Query) NavigateOption {
	return func(o *NavigateOptions) {
		o.Query = o.Query.Merge(q)
	}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records navigation metrics. Several resolvers may share one
// Metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for resolution spans. Defaults to a tracer
// from the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}
