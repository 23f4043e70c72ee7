package router

import (
	"strings"

	"github.com/vango-dev/navshell/pkg/routepath"
)

// View is an opaque reference to whatever renders a route.
// The router stores it and hands it back; it never inspects it.
type View = any

// Definition maps a path pattern to a view.
//
// Path uses literal segments, ":name" single-segment parameters and an
// optional final "*name" catch-all:
//
//	/                   → home
//	/user/:id           → user detail, binds id
//	/docs/*page         → binds the remainder of the path to page
//
// Name is the symbolic identifier used by name-based navigation. It may be
// empty for anonymous routes, which can still be reached by path.
type Definition struct {
	Path string
	Name string
	View View

	pattern *pattern
}

// compiled returns the definition's pattern, compiling it if the definition
// was not produced by Register.
func (d *Definition) compiled() (*pattern, error) {
	if d.pattern != nil {
		return d.pattern, nil
	}
	return compilePattern(d.Path)
}

// Build synthesizes a concrete path from the pattern and params.
// Every declared parameter must be present and non-empty (a catch-all may be
// empty); any parameter the pattern does not declare is rejected with
// ExtraParameterError. Values are path-escaped.
func (d *Definition) Build(params Params) (string, error) {
	p, err := d.compiled()
	if err != nil {
		return "", err
	}
	return p.build(d.label(), params)
}

// ParamNames returns the parameter names declared by the pattern, in order.
func (d *Definition) ParamNames() []string {
	p, err := d.compiled()
	if err != nil {
		return nil
	}
	return append([]string(nil), p.params...)
}

// label identifies the definition in error messages.
func (d *Definition) label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Path
}

// Table is an ordered, immutable set of route definitions.
// Matching tries definitions in registration order and the first match wins,
// so more specific paths must be registered before more general ones.
//
// A Table is safe for concurrent reads.
type Table struct {
	routes []*Definition
	byName map[string]*Definition
}

// Register compiles defs into a Table.
//
// All configuration problems are reported together in a *RegistrationError:
// malformed patterns (ErrInvalidPattern), names used twice (ErrDuplicateName)
// and patterns with an identical segment shape (ErrAmbiguousPattern), for
// example "/user/:id" and "/user/:name".
func Register(defs ...Definition) (*Table, error) {
	t := &Table{
		routes: make([]*Definition, 0, len(defs)),
		byName: make(map[string]*Definition, len(defs)),
	}

	var errs []error
	nameIndex := make(map[string]int, len(defs))
	shapeIndex := make(map[string]int, len(defs))

	for i, def := range defs {
		p, err := compilePattern(def.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		rejected := false
		if def.Name != "" {
			if first, ok := nameIndex[def.Name]; ok {
				errs = append(errs, &DuplicateNameError{Name: def.Name, First: first, Second: i})
				rejected = true
			}
		}

		shape := p.shape()
		if first, ok := shapeIndex[shape]; ok {
			errs = append(errs, &AmbiguousPatternError{
				Path:     def.Path,
				Existing: defs[first].Path,
				First:    first,
				Second:   i,
			})
			continue
		}
		if rejected {
			// Later definitions are still compared against this shape.
			shapeIndex[shape] = i
			continue
		}

		d := &Definition{Path: def.Path, Name: def.Name, View: def.View, pattern: p}
		t.routes = append(t.routes, d)
		shapeIndex[shape] = i
		if d.Name != "" {
			nameIndex[d.Name] = i
			t.byName[d.Name] = d
		}
	}

	if len(errs) > 0 {
		return nil, &RegistrationError{Errors: errs}
	}
	return t, nil
}

// MustRegister is like Register but panics on error.
// Intended for tables declared at package level.
func MustRegister(defs ...Definition) *Table {
	t, err := Register(defs...)
	if err != nil {
		panic(err)
	}
	return t
}

// LookupByName returns the definition registered under name.
func (t *Table) LookupByName(name string) (*Definition, bool) {
	if name == "" {
		return nil, false
	}
	d, ok := t.byName[name]
	return d, ok
}

// MatchByPath finds the first definition whose pattern matches path.
// Any query string or fragment on path is ignored. A match on a pattern with
// no parameters returns an empty, non-nil Params.
func (t *Table) MatchByPath(path string) (*Definition, Params, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := routepath.Segments(path)

	for _, d := range t.routes {
		if params, ok := d.pattern.match(parts); ok {
			return d, params, true
		}
	}
	return nil, nil, false
}

// Routes returns the definitions in registration order.
func (t *Table) Routes() []*Definition {
	return append([]*Definition(nil), t.routes...)
}

// Len returns the number of registered definitions.
func (t *Table) Len() int {
	return len(t.routes)
}
