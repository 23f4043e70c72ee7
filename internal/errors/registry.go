package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// Error codes.
const (
	CodeDuplicateName   = "E001"
	CodeAmbiguousRoute  = "E002"
	CodeInvalidPattern  = "E003"
	CodeRegistration    = "E004"
	CodeUnknownRoute    = "E020"
	CodeMissingParam    = "E021"
	CodeExtraParam      = "E022"
	CodeInvalidLocation = "E023"
	CodeNoTraversal     = "E024"
	CodeSourceWrite     = "E025"
	CodeNotAttached     = "E040"
	CodeAlreadyAttached = "E041"
	CodeDetached        = "E042"
	CodeConfigNotFound  = "E060"
	CodeConfigParse     = "E061"
	CodeConfigInvalid   = "E062"
	CodeConfigFetch     = "E063"
	CodeConfigURL       = "E064"
	CodeHandshake       = "E080"
	CodeServe           = "E081"
	CodeUsage           = "E100"
	CodeInternal        = "E199"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Route Table Errors (E001-E019)
	// ============================================

	CodeDuplicateName: {
		Category:   CategoryRoute,
		Message:    "Duplicate route name",
		Detail:     "Two route definitions share the same name. Names must be unique so that navigation by name is unambiguous.",
		Suggestion: "Rename one of the routes, or leave one anonymous.",
	},
	CodeAmbiguousRoute: {
		Category:   CategoryRoute,
		Message:    "Ambiguous route pattern",
		Detail:     "Two route patterns have the same shape: they match exactly the same paths and only the first could ever be reached.",
		Suggestion: "Remove the duplicate pattern or give it a distinct literal segment.",
	},
	CodeInvalidPattern: {
		Category:   CategoryRoute,
		Message:    "Invalid route pattern",
		Detail:     "A pattern must start with '/', contain no empty segments, name every parameter, and use a catch-all only as its last segment.",
	},
	CodeRegistration: {
		Category: CategoryRoute,
		Message:  "Route table rejected",
		Detail:   "One or more route definitions are invalid.",
	},

	// ============================================
	// Navigation Errors (E020-E039)
	// ============================================

	CodeUnknownRoute: {
		Category:   CategoryNavigation,
		Message:    "Unknown route name",
		Detail:     "No route is registered under the requested name.",
		Suggestion: "Run 'navshell routes' to list the registered names.",
	},
	CodeMissingParam: {
		Category: CategoryNavigation,
		Message:  "Missing route parameter",
		Detail:   "The route's pattern declares a parameter that was not supplied, or was supplied empty.",
	},
	CodeExtraParam: {
		Category: CategoryNavigation,
		Message:  "Unexpected route parameter",
		Detail:   "A parameter was supplied that the route's pattern does not declare.",
	},
	CodeInvalidLocation: {
		Category:   CategoryNavigation,
		Message:    "Invalid location",
		Detail:     "Navigation targets must be relative paths starting with '/' and must not escape the root.",
		Suggestion: "Use a path such as /troubleshooting rather than a full URL.",
	},
	CodeNoTraversal: {
		Category: CategoryNavigation,
		Message:  "History traversal unsupported",
		Detail:   "The location source cannot move back or forward.",
	},
	CodeSourceWrite: {
		Category: CategoryNavigation,
		Message:  "Location update failed",
		Detail:   "The location source rejected the new location. The active route is unchanged.",
	},

	// ============================================
	// Lifecycle Errors (E040-E059)
	// ============================================

	CodeNotAttached: {
		Category:   CategoryLifecycle,
		Message:    "Resolver not attached",
		Detail:     "The resolver must be attached to a route table and location source before use.",
		Suggestion: "Call Attach first.",
	},
	CodeAlreadyAttached: {
		Category: CategoryLifecycle,
		Message:  "Resolver already attached",
		Detail:   "A resolver can be attached only once.",
	},
	CodeDetached: {
		Category:   CategoryLifecycle,
		Message:    "Resolver detached",
		Detail:     "The resolver was detached and can no longer be used.",
		Suggestion: "Create a new resolver.",
	},

	// ============================================
	// Configuration Errors (E060-E079)
	// ============================================

	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No navshell.json or navshell.toml was found.",
		Suggestion: "Pass --config, or run without one to use the built-in routes.",
	},
	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Configuration parse error",
		Detail:   "The configuration file is not valid JSON or TOML.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	CodeConfigFetch: {
		Category: CategoryConfig,
		Message:  "Remote configuration fetch failed",
		Detail:   "The configuration object could not be read from S3.",
	},
	CodeConfigURL: {
		Category: CategoryConfig,
		Message:  "Invalid configuration URL",
		Detail:   "Remote configuration must be addressed as s3://bucket/key.",
	},

	// ============================================
	// Protocol Errors (E080-E099)
	// ============================================

	CodeHandshake: {
		Category: CategoryProtocol,
		Message:  "Navigation socket handshake failed",
		Detail:   "The browser did not send a valid init frame.",
	},
	CodeServe: {
		Category: CategoryProtocol,
		Message:  "Server error",
	},

	// ============================================
	// CLI Errors (E100-E199)
	// ============================================

	CodeUsage: {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
	CodeInternal: {
		Category: CategoryCLI,
		Message:  "Internal error",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
