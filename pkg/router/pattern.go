package router

import (
	"net/url"
	"strings"

	"github.com/vango-dev/navshell/pkg/routepath"
)

type segmentKind uint8

const (
	segmentLiteral segmentKind = iota
	segmentParam
	segmentCatchAll
)

// segment is one compiled unit of a pattern.
type segment struct {
	kind segmentKind

	// value is the literal text, or the parameter name (without : or *).
	value string
}

// pattern is a compiled route path.
type pattern struct {
	raw      string
	segments []segment
	params   []string // parameter names in pattern order, catch-all included
}

// compilePattern splits a route path into segments and validates it.
func compilePattern(path string) (*pattern, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, &InvalidPatternError{Path: path, Reason: "must start with /"}
	}

	parts := routepath.Segments(path)
	p := &pattern{raw: path, segments: make([]segment, 0, len(parts))}
	seen := make(map[string]bool, len(parts))

	for i, part := range parts {
		var seg segment
		switch {
		case part == "":
			return nil, &InvalidPatternError{Path: path, Reason: "empty segment"}
		case strings.HasPrefix(part, "*"):
			if i != len(parts)-1 {
				return nil, &InvalidPatternError{Path: path, Reason: "catch-all must be the final segment"}
			}
			seg = segment{kind: segmentCatchAll, value: part[1:]}
		case strings.HasPrefix(part, ":"):
			seg = segment{kind: segmentParam, value: part[1:]}
		default:
			seg = segment{kind: segmentLiteral, value: part}
		}

		if seg.kind != segmentLiteral {
			if seg.value == "" {
				return nil, &InvalidPatternError{Path: path, Reason: "parameter without a name"}
			}
			if seen[seg.value] {
				return nil, &InvalidPatternError{Path: path, Reason: "parameter " + seg.value + " declared twice"}
			}
			seen[seg.value] = true
			p.params = append(p.params, seg.value)
		}
		p.segments = append(p.segments, seg)
	}

	return p, nil
}

// shape returns a key equal for two patterns exactly when they accept the
// same paths in the same positions. Parameter names do not take part.
func (p *pattern) shape() string {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		switch seg.kind {
		case segmentLiteral:
			// Literals never start with ':' or '*', so they cannot collide
			// with the parameter markers below.
			b.WriteString(seg.value)
		case segmentParam:
			b.WriteByte(':')
		case segmentCatchAll:
			b.WriteByte('*')
		}
	}
	return b.String()
}

func (p *pattern) hasCatchAll() bool {
	n := len(p.segments)
	return n > 0 && p.segments[n-1].kind == segmentCatchAll
}

// match tests path segments against the pattern. On success it returns the
// captured bindings; a pattern without parameters yields an empty map.
func (p *pattern) match(parts []string) (Params, bool) {
	fixed := p.segments
	if p.hasCatchAll() {
		fixed = fixed[:len(fixed)-1]
		if len(parts) < len(fixed) {
			return nil, false
		}
	} else if len(parts) != len(fixed) {
		return nil, false
	}

	params := make(Params, len(p.params))
	for i, seg := range fixed {
		part := parts[i]
		switch seg.kind {
		case segmentLiteral:
			if part != seg.value {
				return nil, false
			}
		case segmentParam:
			if part == "" {
				return nil, false
			}
			params[seg.value] = unescape(part)
		}
	}

	if p.hasCatchAll() {
		rest := make([]string, 0, len(parts)-len(fixed))
		for _, part := range parts[len(fixed):] {
			rest = append(rest, unescape(part))
		}
		params[p.segments[len(p.segments)-1].value] = strings.Join(rest, "/")
	}
	return params, true
}

// build substitutes params into the pattern. Every declared parameter must be
// supplied; a parameter the pattern does not declare is rejected.
func (p *pattern) build(route string, params Params) (string, error) {
	for name := range params {
		if !p.declares(name) {
			return "", &ExtraParameterError{Route: route, Param: name}
		}
	}

	parts := make([]string, 0, len(p.segments))
	for _, seg := range p.segments {
		switch seg.kind {
		case segmentLiteral:
			parts = append(parts, seg.value)
		case segmentParam:
			v, ok := params[seg.value]
			if !ok || v == "" {
				return "", &MissingParameterError{Route: route, Param: seg.value}
			}
			parts = append(parts, escapeSegment(v))
		case segmentCatchAll:
			v, ok := params[seg.value]
			if !ok {
				return "", &MissingParameterError{Route: route, Param: seg.value}
			}
			for _, sub := range routepath.Segments(v) {
				parts = append(parts, escapeSegment(sub))
			}
		}
	}

	return "/" + strings.Join(parts, "/"), nil
}

func (p *pattern) declares(name string) bool {
	for _, n := range p.params {
		if n == name {
			return true
		}
	}
	return false
}

// escapeSegment percent-encodes one parameter segment. Dot segments are
// encoded too, so canonicalization cannot fold them into the parent path.
func escapeSegment(v string) string {
	switch v {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return url.PathEscape(v)
}

// unescape percent-decodes a captured segment. Segments that do not decode
// are bound as written.
func unescape(part string) string {
	if !strings.Contains(part, "%") {
		return part
	}
	decoded, err := url.PathUnescape(part)
	if err != nil {
		return part
	}
	return decoded
}
