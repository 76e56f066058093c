package okta

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an Error with its place in the error taxonomy. Downstream code
// switches on the kind (or uses the Is* predicates), never on message text.
type Kind int

const (
	// KindAPI covers network failures, transport errors and unclassified
	// upstream responses.
	KindAPI Kind = iota
	// KindAuthentication is a 401 from Okta or a credential provider failure.
	KindAuthentication
	// KindAuthorization is a 403.
	KindAuthorization
	// KindRateLimit is a 429; the error carries a retry hint.
	KindRateLimit
	// KindUserNotFound is a 404 whose error summary names a user.
	KindUserNotFound
	// KindApplicationNotFound is a 404 whose error summary names an app.
	KindApplicationNotFound
	// KindNotFound is any other 404.
	KindNotFound
	// KindValidation is a local input validation failure; it is raised
	// before any network call.
	KindValidation
)

// String makes Kind satisfy fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindRateLimit:
		return "rate_limit"
	case KindUserNotFound:
		return "user_not_found"
	case KindApplicationNotFound:
		return "application_not_found"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "api"
	}
}

// Error is the typed error value produced for every failure the Okta client
// surfaces. Status is zero for failures that never reached the API
// (validation, transport setup).
type Error struct {
	Kind    Kind
	Message string
	Status  int

	// ErrorCode and Causes carry the structured details from the Okta
	// error body (errorCode / errorCauses), when present.
	ErrorCode string
	Causes    []interface{}

	// RetryAfter is the server's retry hint in seconds, set on rate limit
	// errors. Zero means no hint was provided.
	RetryAfter int

	// Err is the underlying cause for transport-level failures.
	Err error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("okta: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("okta: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Details returns the structured error details as a map, suitable for
// embedding in tool failure payloads.
func (e *Error) Details() map[string]interface{} {
	d := map[string]interface{}{
		"kind":    e.Kind.String(),
		"message": e.Message,
	}
	if e.Status > 0 {
		d["status_code"] = e.Status
	}
	if e.ErrorCode != "" {
		d["error_code"] = e.ErrorCode
	}
	if len(e.Causes) > 0 {
		d["error_causes"] = e.Causes
	}
	if e.RetryAfter > 0 {
		d["retry_after"] = e.RetryAfter
	}
	return d
}

// AsError extracts an *Error from err, if present.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func hasKind(err error, kinds ...Kind) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is any of the not-found variants.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound, KindUserNotFound, KindApplicationNotFound)
}

// IsRateLimit reports whether err is a rate limit error.
func IsRateLimit(err error) bool {
	return hasKind(err, KindRateLimit)
}

// IsValidation reports whether err is a local validation error.
func IsValidation(err error) bool {
	return hasKind(err, KindValidation)
}

// IsAuthentication reports whether err is an authentication error.
func IsAuthentication(err error) bool {
	return hasKind(err, KindAuthentication)
}

// newValidationError builds the error raised for invalid local input. The
// field name is included so tool callers can see which argument was wrong.
func newValidationError(field, reason string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
	}
}

// newUserNotFound narrows a 404 into a user-scoped error carrying the
// identifier the caller asked for.
func newUserNotFound(identifier string) *Error {
	return &Error{
		Kind:    KindUserNotFound,
		Status:  404,
		Message: fmt.Sprintf("user not found: %s", identifier),
	}
}

// newApplicationNotFound narrows a 404 into an app-scoped error.
func newApplicationNotFound(identifier string) *Error {
	return &Error{
		Kind:    KindApplicationNotFound,
		Status:  404,
		Message: fmt.Sprintf("application not found: %s", identifier),
	}
}

// Classify maps an upstream error response to a typed error. It consumes the
// Okta error body fields (errorSummary, errorCode, errorCauses) and attaches
// them regardless of kind. It never panics and never returns nil for a
// non-2xx status; callers raise the result.
func Classify(status int, body map[string]interface{}) *Error {
	summary := "Unknown error"
	if s, ok := body["errorSummary"].(string); ok && s != "" {
		summary = s
	}

	e := &Error{
		Kind:    KindAPI,
		Message: summary,
		Status:  status,
	}
	if c, ok := body["errorCode"].(string); ok {
		e.ErrorCode = c
	}
	if causes, ok := body["errorCauses"].([]interface{}); ok {
		e.Causes = causes
	}

	switch status {
	case 401:
		e.Kind = KindAuthentication
	case 403:
		e.Kind = KindAuthorization
	case 404:
		lower := strings.ToLower(summary)
		switch {
		case strings.Contains(lower, "user"):
			e.Kind = KindUserNotFound
		case strings.Contains(lower, "app"):
			e.Kind = KindApplicationNotFound
		default:
			e.Kind = KindNotFound
		}
	case 429:
		e.Kind = KindRateLimit
	}

	return e
}
