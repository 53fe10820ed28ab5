package logger

// Standard field key constants for structured logging.
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldUserID         = "user_id"
	FieldOperation      = "operation"
	FieldError          = "error"
	FieldDuration       = "duration_ms"
	FieldStage          = "stage"
	FieldProvider       = "provider"
	FieldWorkflowID     = "workflow_id"
	FieldNodeID         = "node_id"
	FieldAttempt        = "attempt"
	FieldSagaStep       = "saga_step"
	FieldIdempotencyKey = "idempotency_key"
	FieldFeedbackID     = "feedback_id"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("deployed", logger.Fields(logger.FieldWorkflowID, id))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}
