package nav

// LocationSource is the host history the resolver observes and drives.
//
// Locations are relative: a path optionally followed by "?query".
// Push and Replace change the current location without notifying listeners,
// as the browser's pushState does; listeners hear only about changes made
// outside the resolver (back/forward buttons, a typed URL, history.go).
type LocationSource interface {
	// Location returns the current location.
	Location() string

	// Listen registers fn for external location changes and returns a
	// function that removes it.
	Listen(fn func(location string)) (stop func())

	// Push adds a new history entry.
	Push(location string) error

	// Replace overwrites the current history entry.
	Replace(location string) error
}

// Traverser is implemented by sources that can move through their history.
// A traversal is reported back through the Listen callback.
type Traverser interface {
	Go(delta int) error
}
