package routepath

import (
	"errors"
	"strings"
)

// CanonicalizeResult is a canonical location split into its parts.
type CanonicalizeResult struct {
	// Path always starts with "/" and has no empty, "." or ".." segments.
	Path string

	// Query is the raw query string without "?". It is not normalized.
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// Errors returned for paths that cannot be canonicalized.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// CanonicalizePath brings a location into the form the route table matches
// against. Empty and "." segments are dropped, ".." removes the previous
// segment and the trailing slash goes away:
//
//	""                     → /
//	/docs//intro/          → /docs/intro
//	/docs/./a/../intro     → /docs/intro
//	vcra?mode=a#top        → /vcra, query "mode=a"
//
// The fragment is discarded and the query is passed through untouched.
// Backslashes, NUL bytes (raw or %00), malformed percent escapes and ".."
// above the root are errors.
func CanonicalizePath(input string) (CanonicalizeResult, error) {
	input, _, _ = strings.Cut(input, "#")
	raw, query, _ := strings.Cut(input, "?")

	if err := checkPath(raw); err != nil {
		return CanonicalizeResult{}, err
	}

	var stack []string
	for rest := raw; rest != ""; {
		var seg string
		seg, rest, _ = strings.Cut(rest, "/")
		switch seg {
		case "", ".":
		case "..":
			if len(stack) == 0 {
				return CanonicalizeResult{}, ErrPathEscapesRoot
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}

	path := "/" + strings.Join(stack, "/")
	return CanonicalizeResult{Path: path, Query: query, Changed: path != raw}, nil
}

// checkPath rejects characters that must never reach a route.
func checkPath(path string) error {
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '\\':
			return ErrBackslashInPath
		case 0:
			return ErrNullByteInPath
		case '%':
			if i+2 >= len(path) || unhex(path[i+1]) < 0 || unhex(path[i+2]) < 0 {
				return ErrInvalidPercentEscape
			}
			if path[i+1] == '0' && path[i+2] == '0' {
				return ErrNullByteInPath
			}
			i += 2
		}
	}
	return nil
}

func unhex(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// CanonicalizeAndValidateNavPath checks a navigation target and returns its
// canonical form, query included. Targets are application-relative: they
// start with a single "/". Absolute and protocol-relative URLs are rejected
// with ErrInvalidPath.
func CanonicalizeAndValidateNavPath(location string) (string, error) {
	if !strings.HasPrefix(location, "/") || strings.HasPrefix(location, "//") {
		return "", ErrInvalidPath
	}

	res, err := CanonicalizePath(location)
	if err != nil {
		return "", err
	}
	if res.Query == "" {
		return res.Path, nil
	}
	return res.Path + "?" + res.Query, nil
}

// SplitPathAndQuery splits a location at the first "?".
func SplitPathAndQuery(location string) (path, query string) {
	path, query, _ = strings.Cut(location, "?")
	return path, query
}

// Segments returns the non-empty segments of a canonical path. "/" has none.
func Segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
