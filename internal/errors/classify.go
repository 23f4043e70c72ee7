package errors

import (
	"errors"

	"github.com/vango-dev/navshell/pkg/history"
	"github.com/vango-dev/navshell/pkg/nav"
	"github.com/vango-dev/navshell/pkg/router"
)

// classes maps library sentinels to error codes, most specific first.
var classes = []struct {
	target error
	code   string
}{
	{router.ErrDuplicateName, CodeDuplicateName},
	{router.ErrAmbiguousPattern, CodeAmbiguousRoute},
	{router.ErrInvalidPattern, CodeInvalidPattern},
	{router.ErrMissingParameter, CodeMissingParam},
	{router.ErrExtraParameter, CodeExtraParam},
	{nav.ErrUnknownRouteName, CodeUnknownRoute},
	{nav.ErrInvalidLocation, CodeInvalidLocation},
	{nav.ErrTraversalUnsupported, CodeNoTraversal},
	{nav.ErrLocationUpdate, CodeSourceWrite},
	{nav.ErrNotAttached, CodeNotAttached},
	{nav.ErrAlreadyAttached, CodeAlreadyAttached},
	{nav.ErrDetached, CodeDetached},
	{history.ErrHandshake, CodeHandshake},
}

// Classify wraps err in a coded Error. Errors that are already coded are
// returned unchanged, and unknown errors get CodeInternal.
//
// A registration error carrying several problems gets CodeRegistration;
// a single problem is coded by its own sentinel.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var reg *router.RegistrationError
	if errors.As(err, &reg) && len(reg.Errors) > 1 {
		return New(CodeRegistration).Wrap(err)
	}

	for _, c := range classes {
		if errors.Is(err, c.target) {
			return New(c.code).Wrap(err)
		}
	}
	return New(CodeInternal).Wrap(err)
}

// CodeOf returns the code Classify would assign to err, or "" for nil.
func CodeOf(err error) string {
	if e := Classify(err); e != nil {
		return e.Code
	}
	return ""
}
