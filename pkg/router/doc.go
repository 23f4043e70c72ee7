// Package router implements the route table of the navigation shell.
//
// The table is an ordered, immutable list of route definitions, each mapping a
// path pattern and a symbolic name to an opaque view handle:
//
//	table, err := router.Register(
//	    router.Definition{Path: "/", Name: "home", View: "HomeView"},
//	    router.Definition{Path: "/troubleshooting", Name: "troubleshooting", View: "TroubleshootingView"},
//	    router.Definition{Path: "/user/:id", Name: "user", View: "UserView"},
//	    router.Definition{Path: "/docs/*page", View: "DocsView"},
//	)
//
// # Patterns
//
// A pattern is split on "/" into segments:
//
//	literal    → must match the path segment byte-for-byte
//	:name      → matches any non-empty segment and binds it to name
//	*name      → final segment only; binds the rest of the path (possibly empty)
//
// # Matching
//
// MatchByPath walks the definitions in registration order and returns the
// first one that matches. Overlapping patterns are therefore resolved by
// order: register "/a/b" before "/a/:x" if the literal should win.
// Patterns with an identical shape ("/user/:id" and "/user/:name") can never
// both be reachable and are rejected by Register.
//
// # Errors
//
// Register reports configuration problems (ErrDuplicateName,
// ErrAmbiguousPattern, ErrInvalidPattern) inside a *RegistrationError.
// Definition.Build reports ErrMissingParameter and ErrExtraParameter.
package router
