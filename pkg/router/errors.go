package router

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error in this package matches exactly one of
// them with errors.Is.
var (
	// Configuration errors, returned from Register.
	ErrDuplicateName    = errors.New("duplicate route name")
	ErrAmbiguousPattern = errors.New("ambiguous route pattern")
	ErrInvalidPattern   = errors.New("invalid route pattern")

	// Path synthesis errors, returned from Definition.Build.
	ErrMissingParameter = errors.New("missing route parameter")
	ErrExtraParameter   = errors.New("unexpected route parameter")
)

// DuplicateNameError reports two definitions registered under one name.
type DuplicateNameError struct {
	Name   string
	First  int // index of the definition that claimed the name
	Second int // index of the definition that collided
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("route name %q registered twice (routes #%d and #%d)", e.Name, e.First, e.Second)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// AmbiguousPatternError reports two patterns with the same segment shape.
type AmbiguousPatternError struct {
	Path     string
	Existing string
	First    int
	Second   int
}

func (e *AmbiguousPatternError) Error() string {
	return fmt.Sprintf("route pattern %q (route #%d) has the same shape as %q (route #%d)",
		e.Path, e.Second, e.Existing, e.First)
}

func (e *AmbiguousPatternError) Is(target error) bool { return target == ErrAmbiguousPattern }

// InvalidPatternError reports a pattern that cannot be compiled.
type InvalidPatternError struct {
	Path   string
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Path, e.Reason)
}

func (e *InvalidPatternError) Is(target error) bool { return target == ErrInvalidPattern }

// MissingParameterError reports a parameter required by a pattern but not supplied.
type MissingParameterError struct {
	Route string
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("route %q requires parameter %q", e.Route, e.Param)
}

func (e *MissingParameterError) Is(target error) bool { return target == ErrMissingParameter }

// ExtraParameterError reports a supplied parameter the pattern does not declare.
type ExtraParameterError struct {
	Route string
	Param string
}

func (e *ExtraParameterError) Error() string {
	return fmt.Sprintf("route %q has no parameter %q", e.Route, e.Param)
}

func (e *ExtraParameterError) Is(target error) bool { return target == ErrExtraParameter }

// RegistrationError collects every configuration problem found while
// building a table. errors.Is and errors.As see each collected error.
type RegistrationError struct {
	Errors []error
}

func (e *RegistrationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d route registration errors:", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err)
	}
	return sb.String()
}

func (e *RegistrationError) Unwrap() []error { return e.Errors }
