// Package errors provides unified error handling for the flowkit pipeline.
// It implements structured error types with machine-readable codes covering
// the pipeline failure taxonomy (capability gaps, structural validation,
// provider failures, engine rejections, execution errors, saga step failures)
// plus transport-level codes, with retryable detection and HTTP status
// mapping for the intake surface.
package errors
