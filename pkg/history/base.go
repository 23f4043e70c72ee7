package history

import (
	"strings"

	"github.com/vango-dev/navshell/pkg/nav"
)

// Based mounts a location source under a base path. The application sees
// locations relative to the base; the underlying source sees full paths.
type Based struct {
	src  nav.LocationSource
	base string
}

// WithBase wraps src so the application is served under base ("/app/").
// An empty or "/" base returns src unchanged.
func WithBase(src nav.LocationSource, base string) nav.LocationSource {
	base = NormalizeBase(base)
	if base == "" {
		return src
	}
	return &Based{src: src, base: base}
}

// NormalizeBase returns base with a leading slash and no trailing slash.
// The root base normalizes to "".
func NormalizeBase(base string) string {
	base = strings.Trim(base, "/")
	if base == "" {
		return ""
	}
	return "/" + base
}

// Base returns the normalized base path.
func (b *Based) Base() string { return b.base }

// Location returns the underlying location with the base removed.
func (b *Based) Location() string { return b.strip(b.src.Location()) }

// Listen reports underlying changes with the base removed.
func (b *Based) Listen(fn func(string)) (stop func()) {
	return b.src.Listen(func(loc string) { fn(b.strip(loc)) })
}

// Push writes location under the base.
func (b *Based) Push(location string) error { return b.src.Push(b.join(location)) }

// Replace writes location under the base.
func (b *Based) Replace(location string) error { return b.src.Replace(b.join(location)) }

// Go forwards to the underlying source when it supports traversal.
func (b *Based) Go(delta int) error {
	t, ok := b.src.(nav.Traverser)
	if !ok {
		return nav.ErrTraversalUnsupported
	}
	return t.Go(delta)
}

// strip removes the base when location lies under it on a segment boundary.
// A location outside the base is reported relative to it ("/vcra" under
// "/app" becomes "/../vcra"). That form escapes the root, so it never
// matches a route and never equals an in-app location.
func (b *Based) strip(location string) string {
	rest, ok := strings.CutPrefix(location, b.base)
	if ok {
		switch {
		case rest == "":
			return "/"
		case rest[0] == '/':
			return rest
		case rest[0] == '?' || rest[0] == '#':
			return "/" + rest
		}
	}
	if strings.HasPrefix(location, "/") {
		return "/.." + location
	}
	return "/../" + location
}

func (b *Based) join(location string) string {
	if location == "" || location == "/" {
		return b.base + "/"
	}
	if location[0] == '?' {
		return b.base + "/" + location
	}
	return b.base + location
}
