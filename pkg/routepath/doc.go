// Package routepath normalizes locations before they reach the route table.
//
// It canonicalizes paths (slash collapsing, dot segments, trailing slashes),
// rejects unsafe navigation targets such as absolute URLs, and carries query
// strings as a multi-valued Query map.
package routepath
