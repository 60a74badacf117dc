package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryNetwork represents failures talking to external systems.
	CategoryNetwork ErrorCategory = "network"

	// CategoryIndex represents errors in the precomputed manifest and facet artifacts.
	CategoryIndex      ErrorCategory = "index"
	CategoryManifest   ErrorCategory = "manifest"
	CategoryContent    ErrorCategory = "content"
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the build
	SeverityError   ErrorSeverity = "error"   // Omits the current page
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded content
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// Disposition is what the page pipeline does with a failure.
type Disposition string

const (
	DispositionAbort   Disposition = "abort"   // stop before or during the build
	DispositionOmit    Disposition = "omit"    // skip the current page
	DispositionDegrade Disposition = "degrade" // substitute a default value
)

// DispositionFor maps a severity to the pipeline's reaction.
func DispositionFor(severity ErrorSeverity) Disposition {
	switch severity {
	case SeverityFatal:
		return DispositionAbort
	case SeverityError:
		return DispositionOmit
	default:
		return DispositionDegrade
	}
}

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext, len(c)+len(other))
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
