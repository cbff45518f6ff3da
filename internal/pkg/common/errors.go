package common

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorResponse is the body written for non-validation API errors.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"` // only filled in debug mode
}

// CustomError carries an error code and the HTTP status it maps to.
type CustomError struct {
	Code    string
	Message string
	Err     error
	Status  int
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so wrapped copies of a predeclared error
// still satisfy errors.Is.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// NewError creates a CustomError.
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError is a recoverable client error. Fields maps a JSON field
// path (e.g. "ingredients[0].name") to a message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// NewValidationError creates a ValidationError without field detail.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NewFieldValidationError creates a ValidationError keyed by field.
func NewFieldValidationError(fields map[string]string) error {
	return &ValidationError{
		Message: "invalid payload",
		Fields:  fields,
	}
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

const (
	// 4xx
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeForbidden       = "FORBIDDEN"         // 403
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE" // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 5xx
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodePersistence        = "PERSISTENCE_ERROR"   // 500
	ErrCodeAIService          = "AI_SERVICE_ERROR"    // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "authentication required", http.StatusUnauthorized, nil)
	ErrForbidden       = NewError(ErrCodeForbidden, "only the author may modify this recipe", http.StatusForbidden, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrPersistence        = NewError(ErrCodePersistence, "failed to persist recipe", http.StatusInternalServerError, nil)
	ErrProviderFailure    = NewError(ErrCodeAIService, "AI provider request failed", http.StatusBadGateway, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "request timed out", http.StatusGatewayTimeout, nil)
)
