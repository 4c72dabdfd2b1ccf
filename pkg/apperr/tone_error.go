// Package apperr carries the error codes returned to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeMissingField         = "MISSING_FIELD"
	CodeInputValidation      = "INPUT_VALIDATION"
	CodeExtractionFailed     = "EXTRACTION_FAILED"
	CodeClassificationFailed = "CLASSIFICATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeProfileNotFound      = "PROFILE_NOT_FOUND"
	CodeDatabaseError        = "DATABASE_ERROR"
	CodeExternalError        = "EXTERNAL_ERROR"
	CodeLLMUnavailable       = "LLM_UNAVAILABLE"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeTimeout              = "TIMEOUT"
	CodeRateLimited          = "RATE_LIMITED"
)

// AppError is an error with a stable code and the HTTP status it maps to.
// Err is logged but never serialized.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func wrap(err error, code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

func ValidationFailed(message string) *AppError {
	return New(CodeValidationFailed, message, http.StatusBadRequest)
}

func MissingField(field string) *AppError {
	return New(CodeMissingField, "missing required field: "+field, http.StatusBadRequest).
		WithDetail("field", field)
}

// InputValidation is returned for text the extractor refuses, such as an empty body.
func InputValidation(err error) *AppError {
	return wrap(err, CodeInputValidation, http.StatusUnprocessableEntity, "input text is not analyzable")
}

func ExtractionFailed(err error) *AppError {
	return wrap(err, CodeExtractionFailed, http.StatusInternalServerError, "feature extraction failed")
}

func ClassificationFailed(err error) *AppError {
	return wrap(err, CodeClassificationFailed, http.StatusInternalServerError, "tone classification failed")
}

func ProfileNotFound(userID string) *AppError {
	return New(CodeProfileNotFound, "tone profile not found", http.StatusNotFound).
		WithDetail("user_id", userID)
}

func DatabaseError(operation string, err error) *AppError {
	return wrap(err, CodeDatabaseError, http.StatusInternalServerError, "database error: "+operation)
}

func ExternalError(service string, err error) *AppError {
	return wrap(err, CodeExternalError, http.StatusBadGateway, "external service error: "+service).
		WithDetail("service", service)
}

func LLMUnavailable(err error) *AppError {
	return wrap(err, CodeLLMUnavailable, http.StatusServiceUnavailable, "language model unavailable")
}

func InternalWithError(err error) *AppError {
	return wrap(err, CodeInternalError, http.StatusInternalServerError, "internal server error")
}

func Timeout(operation string) *AppError {
	return New(CodeTimeout, "operation timed out: "+operation, http.StatusGatewayTimeout)
}

func RateLimited(retryAfter time.Duration) *AppError {
	return New(CodeRateLimited, "too many requests", http.StatusTooManyRequests).
		WithDetail("retry_after_ms", retryAfter.Milliseconds())
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError returns the AppError in err's chain, or an INTERNAL_ERROR wrapping err.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}
