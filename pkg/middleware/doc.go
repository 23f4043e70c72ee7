// Package middleware provides observability middleware for navigation
// sessions.
//
// A session hands every client frame other than a pop to a Handler. The
// middlewares here wrap that handler:
//
//	mw, _ := middleware.Prometheus(middleware.WithRegistry(reg))
//	h := middleware.Chain(handle,
//	    middleware.OpenTelemetry(),
//	    mw,
//	)
//
// # Prometheus Metrics
//
//   - navshell_session_frames_total: frames handled by type and status
//   - navshell_session_frame_duration_seconds: handling duration by type
//   - navshell_session_frame_errors_total: rejected frames by type and code
//
// # OpenTelemetry
//
// Every frame gets a server span named after its type. The span context is
// passed to the wrapped handler, so work it starts joins the trace:
//
//	func handle(ctx context.Context, msg history.Message) error {
//	    middleware.SpanFromContext(ctx).SetAttributes(attribute.Int("n", 1))
//	    return nil
//	}
package middleware
