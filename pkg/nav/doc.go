// Package nav implements the navigation resolver of the shell.
//
// A Resolver attaches to a route table and a LocationSource (the host
// history), keeps the single ActiveRoute of the application, and publishes a
// new snapshot to its subscribers on every location change.
//
// # Lifecycle
//
//	Unattached ──Attach──▶ Attached ──Detach──▶ Detached
//
// Attach resolves the source's current location. Every other operation is
// valid only while attached; after Detach they return ErrDetached.
//
// # Usage
//
//	r := nav.New(nav.WithLogger(logger))
//	if err := r.Attach(table, history.NewMemory("/")); err != nil {
//	    return err
//	}
//	unsubscribe, _ := r.Subscribe(func(ar *nav.ActiveRoute) {
//	    if ar.NotFound() {
//	        renderNotFound()
//	        return
//	    }
//	    render(ar.View(), ar.Params)
//	})
//	defer unsubscribe()
//
//	r.Navigate("/troubleshooting")
//	r.NavigateToName("user", router.Params{"id": "42"}, nil, nav.WithReplace())
//
// # Delivery
//
// Listeners run synchronously, in registration order, on the goroutine that
// caused the change. A navigation requested from inside a listener is queued
// until the current notification cycle completes, so listeners always observe
// publications in order and never a half-published ActiveRoute.
//
// A location that matches no route resolves to a snapshot whose NotFound
// method reports true; this is a normal result, not an error.
package nav
