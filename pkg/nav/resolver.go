package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vango-dev/navshell/pkg/routepath"
	"github.com/vango-dev/navshell/pkg/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vango-dev/navshell/pkg/nav"

// State is the lifecycle state of a Resolver.
type State int

const (
	StateUnattached State = iota
	StateAttached
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Listener receives every newly published ActiveRoute.
type Listener func(*ActiveRoute)

type subscription struct {
	listener Listener
	removed  bool
}

// Resolver owns the active route of one application instance.
//
// A Resolver is not safe for concurrent use: every method, and the location
// source's listener callbacks, must run on a single event loop. Navigations
// started from inside a Listener are queued and run after the current
// notification cycle completes.
type Resolver struct {
	state  State
	table  *router.Table
	source LocationSource
	stop   func()

	active *ActiveRoute
	seq    uint64
	subs   []*subscription

	dispatching bool
	queue       []func()

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New creates an unattached resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		logger: slog.Default().With("component", "nav"),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the lifecycle state.
func (r *Resolver) State() State {
	return r.state
}

// Active returns the current snapshot, or nil when not attached.
func (r *Resolver) Active() *ActiveRoute {
	return r.active
}

// Attach resolves the source's current location against table and starts
// observing the source. The initial resolution is not published: there are
// no subscribers yet, and Active reports it.
func (r *Resolver) Attach(table *router.Table, source LocationSource) error {
	switch r.state {
	case StateAttached:
		return ErrAlreadyAttached
	case StateDetached:
		return ErrDetached
	}
	if table == nil {
		return errors.New("nav: nil route table")
	}
	if source == nil {
		return errors.New("nav: nil location source")
	}

	r.table = table
	r.source = source

	initial := source.Location()
	path, query, err := splitLocation(initial)
	if err != nil {
		r.logger.Warn("initial location rejected", "location", initial, "error", err)
		p, q := routepath.SplitPathAndQuery(initial)
		r.active = r.notFound(p, routepath.ParseQuery(q))
	} else {
		r.active = r.match(path, query)
	}
	r.seq = 1
	r.active.Seq = r.seq
	r.metrics.recordNavigation(r.active.routeLabel(), "initial")
	if r.active.NotFound() {
		r.metrics.recordNotFound()
	}

	r.stop = source.Listen(r.onLocation)
	r.state = StateAttached

	r.logger.Debug("attached", "location", r.active.Location, "route", r.active.routeLabel())
	return nil
}

// Detach stops observing the location source and drops every subscriber and
// queued navigation. A detached resolver cannot be attached again.
func (r *Resolver) Detach() error {
	if err := r.checkAttached(); err != nil {
		return err
	}

	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	for _, s := range r.subs {
		s.removed = true
	}
	r.metrics.addSubscribers(-len(r.subs))
	r.subs = nil
	r.queue = nil
	r.active = nil
	r.state = StateDetached

	r.logger.Debug("detached")
	return nil
}

// Subscribe registers listener for every subsequent publication. Listeners
// run synchronously in registration order. The returned function removes the
// listener; calling it more than once is harmless.
func (r *Resolver) Subscribe(listener Listener) (unsubscribe func(), err error) {
	if err := r.checkAttached(); err != nil {
		return nil, err
	}
	if listener == nil {
		return nil, errors.New("nav: nil listener")
	}

	s := &subscription{listener: listener}
	r.subs = append(r.subs, s)
	r.metrics.addSubscribers(1)

	return func() {
		if s.removed {
			return
		}
		s.removed = true
		for i, other := range r.subs {
			if other == s {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				break
			}
		}
		r.metrics.addSubscribers(-1)
	}, nil
}

// Resolve matches path and query against the table and publishes the result
// if it differs from the current location. Resolving the location that is
// already active returns the current snapshot and notifies no one.
//
// No match is not an error: the result reports NotFound.
//
// Resolve does not write to the location source, so afterwards Active can
// differ from the source's location. A later Navigate to the location the
// source still shows publishes without writing it again.
func (r *Resolver) Resolve(path string, query routepath.Query) (*ActiveRoute, error) {
	if err := r.checkAttached(); err != nil {
		return nil, err
	}

	res, err := routepath.CanonicalizePath(path)
	if err != nil {
		r.metrics.recordError("invalid_location")
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidLocation, path, err)
	}
	q := routepath.ParseQuery(res.Query).Merge(query)

	next := r.match(res.Path, q)
	if next.Location == r.active.Location {
		return r.active, nil
	}
	r.run(func() {
		r.publishIfChanged(next, "resolve")
	})
	return next, nil
}

// Navigate changes the host location and publishes the new active route.
//
// location must be relative ("/path?query"); absolute URLs are rejected with
// ErrInvalidLocation. Navigating to the active location is a no-op.
func (r *Resolver) Navigate(location string, opts ...NavigateOption) error {
	if err := r.checkAttached(); err != nil {
		return err
	}

	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}

	canon, err := routepath.CanonicalizeAndValidateNavPath(location)
	if err != nil {
		r.metrics.recordError("invalid_location")
		return fmt.Errorf("%w %q: %w", ErrInvalidLocation, location, err)
	}
	path, rawQuery := routepath.SplitPathAndQuery(canon)
	query := routepath.ParseQuery(rawQuery).Merge(options.Query)

	var navErr error
	r.run(func() {
		navErr = r.navigate(path, query, options.Mode)
	})
	return navErr
}

// NavigateToName builds the path of the route registered under name and
// navigates to it.
//
// It fails with *UnknownRouteNameError when name is not registered, and with
// *router.MissingParameterError or *router.ExtraParameterError when params do
// not fit the route's pattern. Failed navigations leave the active route
// unchanged.
func (r *Resolver) NavigateToName(name string, params router.Params, query routepath.Query, opts ...NavigateOption) error {
	if err := r.checkAttached(); err != nil {
		return err
	}

	def, ok := r.table.LookupByName(name)
	if !ok {
		r.metrics.recordError("unknown_route")
		return &UnknownRouteNameError{Name: name}
	}

	path, err := def.Build(params)
	if err != nil {
		switch {
		case errors.Is(err, router.ErrMissingParameter):
			r.metrics.recordError("missing_parameter")
		case errors.Is(err, router.ErrExtraParameter):
			r.metrics.recordError("extra_parameter")
		}
		return err
	}

	return r.Navigate(path, append(opts, WithQuery(query))...)
}

// Back moves one entry back in the source's history.
func (r *Resolver) Back() error {
	return r.Go(-1)
}

// Forward moves one entry forward in the source's history.
func (r *Resolver) Forward() error {
	return r.Go(1)
}

// Go moves delta entries through the source's history. The resulting
// location change arrives through the source's listener like any external
// change. Sources that are not a Traverser return ErrTraversalUnsupported.
func (r *Resolver) Go(delta int) error {
	if err := r.checkAttached(); err != nil {
		return err
	}
	t, ok := r.source.(Traverser)
	if !ok {
		return ErrTraversalUnsupported
	}
	return t.Go(delta)
}

func (r *Resolver) checkAttached() error {
	switch r.state {
	case StateUnattached:
		return ErrNotAttached
	case StateDetached:
		return ErrDetached
	}
	return nil
}

// run executes fn now, or queues it if a publication is in progress. Queued
// work runs in order once the current cycle completes.
func (r *Resolver) run(fn func()) {
	if r.dispatching {
		r.queue = append(r.queue, fn)
		return
	}

	r.dispatching = true
	defer func() {
		r.dispatching = false
	}()

	fn()
	for len(r.queue) > 0 && r.state == StateAttached {
		next := r.queue[0]
		r.queue = r.queue[1:]
		next()
	}
	r.queue = nil
}

// onLocation handles a change reported by the location source.
func (r *Resolver) onLocation(location string) {
	if r.state != StateAttached {
		return
	}
	r.run(func() {
		if r.state != StateAttached {
			return
		}
		path, query, err := splitLocation(location)
		if err != nil {
			r.metrics.recordError("invalid_location")
			r.logger.Warn("location rejected", "location", location, "error", err)
			p, q := routepath.SplitPathAndQuery(location)
			r.publishIfChanged(r.notFound(p, routepath.ParseQuery(q)), "pop")
			return
		}
		r.publishIfChanged(r.match(path, query), "pop")
	})
}

// navigate updates the source and publishes. Runs inside run.
func (r *Resolver) navigate(path string, query routepath.Query, mode Mode) error {
	if r.state != StateAttached {
		return ErrDetached
	}

	next := r.match(path, query)
	if next.Location == r.active.Location {
		return nil
	}
	if r.sourceAt(next.Location) {
		// A Resolve left the source behind the active route; it already
		// shows next, so writing it again would duplicate the entry.
		r.publish(next, mode.String())
		return nil
	}

	var err error
	if mode == ModeReplace {
		err = r.source.Replace(next.Location)
	} else {
		err = r.source.Push(next.Location)
	}
	if err != nil {
		r.metrics.recordError("source")
		r.logger.Error("location update failed", "location", next.Location, "mode", mode.String(), "error", err)
		return fmt.Errorf("%w: %s %q: %w", ErrLocationUpdate, mode, next.Location, err)
	}

	r.publish(next, mode.String())
	return nil
}

func (r *Resolver) publishIfChanged(next *ActiveRoute, cause string) {
	if r.state != StateAttached || next.Location == r.active.Location {
		return
	}
	r.publish(next, cause)
}

// publish installs next as the active route and notifies subscribers.
func (r *Resolver) publish(next *ActiveRoute, cause string) {
	if r.state != StateAttached {
		return
	}

	r.seq++
	next.Seq = r.seq
	r.active = next

	r.metrics.recordNavigation(next.routeLabel(), cause)
	if next.NotFound() {
		r.metrics.recordNotFound()
	}
	r.logger.Debug("navigated",
		"location", next.Location,
		"route", next.routeLabel(),
		"cause", cause,
		"seq", next.Seq)

	subs := append([]*subscription(nil), r.subs...)
	for _, s := range subs {
		if r.state != StateAttached {
			return
		}
		if s.removed {
			continue
		}
		r.deliver(s.listener, next)
	}
}

// deliver calls one listener, recovering a panic so the remaining listeners
// still run.
func (r *Resolver) deliver(l Listener, ar *ActiveRoute) {
	defer func() {
		if p := recover(); p != nil {
			r.metrics.recordListenerPanic()
			r.logger.Error("listener panic",
				"panic", p,
				"location", ar.Location,
				"stack", string(debug.Stack()))
		}
	}()
	l(ar)
}

// match resolves path against the table without publishing.
func (r *Resolver) match(path string, query routepath.Query) *ActiveRoute {
	_, span := r.tracer.Start(context.Background(), "navshell.resolve",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("navshell.path", path)),
	)
	defer span.End()

	start := time.Now()
	def, params, ok := r.table.MatchByPath(path)
	r.metrics.observeResolve(time.Since(start))

	if !ok {
		span.SetAttributes(attribute.Bool("navshell.not_found", true))
		return r.notFound(path, query)
	}

	ar := &ActiveRoute{
		Route:    def,
		Params:   params,
		Query:    query.Clone(),
		Path:     path,
		Location: routepath.JoinLocation(path, query),
	}
	span.SetAttributes(
		attribute.String("navshell.route", ar.routeLabel()),
		attribute.Bool("navshell.not_found", false),
	)
	return ar
}

func (r *Resolver) notFound(path string, query routepath.Query) *ActiveRoute {
	return &ActiveRoute{
		Params:   router.Params{},
		Query:    query.Clone(),
		Path:     path,
		Location: routepath.JoinLocation(path, query),
	}
}

// sourceAt reports whether the source currently shows location.
func (r *Resolver) sourceAt(location string) bool {
	path, query, err := splitLocation(r.source.Location())
	return err == nil && routepath.JoinLocation(path, query) == location
}

// splitLocation canonicalizes a location reported by the source.
func splitLocation(location string) (string, routepath.Query, error) {
	res, err := routepath.CanonicalizePath(location)
	if err != nil {
		return "", nil, err
	}
	return res.Path, routepath.ParseQuery(res.Query), nil
}
