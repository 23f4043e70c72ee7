package nav

import (
	"github.com/vango-dev/navshell/pkg/routepath"
	"github.com/vango-dev/navshell/pkg/router"
)

// ActiveRoute is a snapshot of the resolved location.
//
// A new snapshot is published on every navigation; a delivered snapshot is
// never modified afterwards and must be treated as read-only.
type ActiveRoute struct {
	// Route is the matched definition, or nil when nothing matched.
	Route *router.Definition

	// Params holds the bindings captured from the path. Never nil.
	Params router.Params

	// Query holds the query bindings; repeated keys keep every value.
	Query routepath.Query

	// Path is the canonical path that was matched.
	Path string

	// Location is Path plus the encoded query.
	Location string

	// Seq increases by one with every published snapshot of a resolver.
	Seq uint64
}

// NotFound reports whether no route matched. A not-found snapshot is a
// normal resolution result the rendering layer is expected to display.
func (a *ActiveRoute) NotFound() bool {
	return a.Route == nil
}

// Name returns the matched route's name ("" if not found or anonymous).
func (a *ActiveRoute) Name() string {
	if a.Route == nil {
		return ""
	}
	return a.Route.Name
}

// View returns the matched route's view handle, or nil.
func (a *ActiveRoute) View() router.View {
	if a.Route == nil {
		return nil
	}
	return a.Route.View
}

// Param returns a path binding.
func (a *ActiveRoute) Param(name string) string {
	return a.Params.Get(name)
}

// Bind decodes the path bindings into a struct with `param` tags.
func (a *ActiveRoute) Bind(target any) error {
	return a.Params.Decode(target)
}

// routeLabel names the route for logs and metrics.
func (a *ActiveRoute) routeLabel() string {
	switch {
	case a.Route == nil:
		return "not_found"
	case a.Route.Name != "":
		return a.Route.Name
	default:
		return a.Route.Path
	}
}
