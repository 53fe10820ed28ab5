package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// AsAppError extracts an *AppError from err's chain, if present.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// --- Pipeline taxonomy constructors ---

// CapabilityGap creates an AppError for a node type or integration the
// catalog does not know. Alternatives carries suggested replacements.
func CapabilityGap(nodeType string, alternatives []string) *AppError {
	return &AppError{
		Code:       ErrCodeCapabilityGap,
		Message:    fmt.Sprintf("No capability available for %q.", nodeType),
		HTTPStatus: http.StatusUnprocessableEntity,
		Retryable:  false,
		Details: map[string]any{
			"node_type":    nodeType,
			"alternatives": alternatives,
		},
	}
}

// StructuralValidation creates an AppError for a graph that failed
// structural validation.
func StructuralValidation(message string) *AppError {
	return &AppError{
		Code: ErrCodeStructuralValidation, Message: message,
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
	}
}

// ProviderFailure creates an AppError for a failed generation provider call.
func ProviderFailure(provider, reason string) *AppError {
	return &AppError{
		Code: ErrCodeProviderFailure, Message: fmt.Sprintf("Provider %s failed: %s", provider, reason),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"provider": provider},
	}
}

// AllProvidersFailed creates an AppError for exhausted generation providers.
func AllProvidersFailed(attempts int) *AppError {
	return &AppError{
		Code: ErrCodeAllProvidersFailed, Message: "All generation providers failed or were unavailable.",
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"attempts": attempts},
	}
}

// EngineRejection creates an AppError for a dry-run rejected by the
// automation engine.
func EngineRejection(reason string) *AppError {
	return &AppError{
		Code: ErrCodeEngineRejection, Message: fmt.Sprintf("Automation engine rejected the workflow: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
	}
}

// ExecutionError creates an AppError for a failed simulated execution.
func ExecutionError(nodeID, reason string) *AppError {
	details := map[string]any{}
	if nodeID != "" {
		details["node_id"] = nodeID
	}
	return &AppError{
		Code: ErrCodeExecutionError, Message: fmt.Sprintf("Workflow execution failed: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false, Details: details,
	}
}

// SagaStepFailure creates an AppError for a failed deployment step.
// Step names the furthest step attempted; compensated lists what was
// rolled back, in compensation order.
func SagaStepFailure(step string, compensated []string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSagaStepFailure, Message: fmt.Sprintf("Deployment failed at step %q; completed steps were rolled back.", step),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"step": step, "compensated": compensated},
		Cause:   cause,
	}
}

// --- Transport and input constructors ---

// ServiceUnavailable creates an AppError for a service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// ConnectionFailed creates an AppError for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates an AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// RateLimited creates an AppError for too many requests.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

// InvalidInput creates an AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// MissingField creates an AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// NotFound creates an AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// StoreError creates an AppError for a persistent store failure.
func StoreError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStoreError, Message: "A storage error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// Internal creates an AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
