package errs

import (
	"strings"
)

// FieldError represents one invalid input field.
// Example:
//
//	{ "path": ["body", "title"], "message": "Required" }
type FieldError struct {
	// Path locates the field: the request part ("body" or "params")
	// followed by the field name.
	Path []string `json:"path"`

	// Message is the human-readable error message.
	Message string `json:"message"`
}

// FieldErrors is the ordered list of field errors produced by one validation
// run. Order follows the schema declaration, not the request.
//
// It satisfies error so it can travel through handler return values and reach
// the global error handler untouched.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "Validation failed"
	}

	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, strings.Join(e.Path, ".")+": "+e.Message)
	}

	return "Validation failed: " + strings.Join(parts, "; ")
}

// HTTPError is the error type for every non-validation API response.
//
// Only Message is serialized, so clients always see the {message} envelope.
// Code and Status are kept for logging and for choosing the status line.
type HTTPError struct {
	Code    string `json:"-"`
	Message string `json:"message"`
	Status  int    `json:"-"`

	// cause is the underlying error, if any. It is logged, never serialized.
	cause error
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause to errors.As / errors.Is.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *HTTPError with the same status.
//
// A target with Status 0 matches any *HTTPError.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	if !ok {
		return false
	}

	return t.Status == 0 || t.Status == e.Status
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		cause:   e.cause,
	}
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
