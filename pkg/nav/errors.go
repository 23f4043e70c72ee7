package nav

import (
	"errors"
	"fmt"
)

// Lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("resolver already attached")
	ErrNotAttached     = errors.New("resolver not attached")
	ErrDetached        = errors.New("resolver detached")
)

// Navigation errors.
var (
	ErrUnknownRouteName     = errors.New("unknown route name")
	ErrInvalidLocation      = errors.New("invalid location")
	ErrTraversalUnsupported = errors.New("location source cannot traverse history")
	ErrLocationUpdate       = errors.New("location source update failed")
)

// UnknownRouteNameError reports a name-based navigation to a name the table
// does not contain.
type UnknownRouteNameError struct {
	Name string
}

func (e *UnknownRouteNameError) Error() string {
	return fmt.Sprintf("no route named %q", e.Name)
}

func (e *UnknownRouteNameError) Is(target error) bool { return target == ErrUnknownRouteName }
