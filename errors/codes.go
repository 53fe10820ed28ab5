package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline taxonomy codes.
const (
	// ErrCodeCapabilityGap indicates the request needs a node type or
	// integration the capability catalog does not know.
	ErrCodeCapabilityGap ErrorCode = "CAPABILITY_GAP"
	// ErrCodeStructuralValidation indicates a graph failed structural
	// validation (missing/mistyped parameter, bad connection, cycle).
	ErrCodeStructuralValidation ErrorCode = "STRUCTURAL_VALIDATION"
	// ErrCodeProviderFailure indicates a generation provider call failed
	// (timeout, malformed output, transport error).
	ErrCodeProviderFailure ErrorCode = "PROVIDER_FAILURE"
	// ErrCodeAllProvidersFailed indicates every generation provider failed
	// or was skipped by an open circuit breaker.
	ErrCodeAllProvidersFailed ErrorCode = "ALL_PROVIDERS_FAILED"
	// ErrCodeEngineRejection indicates the automation engine rejected a
	// graph during dry-run submission.
	ErrCodeEngineRejection ErrorCode = "ENGINE_REJECTION"
	// ErrCodeExecutionError indicates a simulated execution failed.
	ErrCodeExecutionError ErrorCode = "EXECUTION_ERROR"
	// ErrCodeSagaStepFailure indicates a deployment saga step failed and
	// compensation ran.
	ErrCodeSagaStepFailure ErrorCode = "SAGA_STEP_FAILURE"
)

// Connection/availability codes (retryable).
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Input and resource codes.
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates a conflict with the current state of the resource.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Internal codes.
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStoreError indicates a persistent store error.
	ErrCodeStoreError ErrorCode = "STORE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeStoreError:         true,
	ErrCodeProviderFailure:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
