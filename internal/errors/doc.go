// Package errors provides coded, actionable error messages for the navshell
// command line.
//
// Library packages (router, nav, history) return plain Go errors built on
// sentinels. At the CLI boundary those errors are classified into an Error
// carrying a stable code, a category, an explanation and, for configuration
// files, the offending file position.
//
// # Error Categories
//
//   - route: the route table was rejected at registration
//   - navigation: a navigation request could not be honored
//   - lifecycle: the resolver was used outside its attached state
//   - config: configuration could not be found, fetched, parsed or validated
//   - protocol: the browser navigation socket misbehaved
//   - cli: bad arguments or unexpected failures
//
// # Usage
//
//	if err := cmd.Execute(); err != nil {
//	    errors.PrintError(os.Stderr, err)
//	}
//	// Output:
//	// ERROR E021: Missing route parameter
//	//
//	//   The route's pattern declares a parameter that was not supplied, or
//	//   was supplied empty.
//	//
//	//   Cause: route "user" requires parameter "id"
package errors
