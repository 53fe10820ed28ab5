package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_ErrorString(t *testing.T) {
	err := New(ErrCodeEngineRejection, "rejected", http.StatusUnprocessableEntity)
	if got := err.Error(); got != "ENGINE_REJECTION: rejected" {
		t.Errorf("unexpected error string: %s", got)
	}

	withCause := err.WithCause(errors.New("boom"))
	if got := withCause.Error(); got != "ENGINE_REJECTION: rejected (cause: boom)" {
		t.Errorf("unexpected error string with cause: %s", got)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Internal(cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := ProviderFailure("openai", "timeout")
	wrapped := fmt.Errorf("stage failed: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to find the AppError")
	}
	if got.Code != ErrCodeProviderFailure {
		t.Errorf("expected PROVIDER_FAILURE, got %s", got.Code)
	}

	if _, ok := AsAppError(errors.New("plain")); ok {
		t.Error("expected no AppError in plain error")
	}
}

func TestIsCode(t *testing.T) {
	err := CapabilityGap("slack.legacy", []string{"slack"})

	if !IsCode(err, ErrCodeCapabilityGap) {
		t.Error("expected IsCode to match CAPABILITY_GAP")
	}
	if IsCode(err, ErrCodeTimeout) {
		t.Error("expected IsCode not to match TIMEOUT")
	}
}

func TestRetryableDetection(t *testing.T) {
	tests := []struct {
		err       *AppError
		retryable bool
	}{
		{Timeout("dry-run"), true},
		{RateLimited(), true},
		{ProviderFailure("claude", "malformed output"), true},
		{CapabilityGap("x", nil), false},
		{AllProvidersFailed(3), false},
		{EngineRejection("missing field"), false},
		{SagaStepFailure("activate_workflow", []string{"create_workflow"}, nil), false},
	}

	for _, tt := range tests {
		if tt.err.Retryable != tt.retryable {
			t.Errorf("%s: expected retryable=%v, got %v", tt.err.Code, tt.retryable, tt.err.Retryable)
		}
	}
}

func TestCapabilityGap_CarriesAlternatives(t *testing.T) {
	err := CapabilityGap("telegram.bot", []string{"slack", "email"})

	alts, ok := err.Details["alternatives"].([]string)
	if !ok {
		t.Fatal("expected alternatives detail")
	}
	if len(alts) != 2 || alts[0] != "slack" {
		t.Errorf("unexpected alternatives: %v", alts)
	}
}

func TestSagaStepFailure_CarriesCompensatedSteps(t *testing.T) {
	err := SagaStepFailure("activate_workflow", []string{"create_workflow", "persist_draft"}, errors.New("engine 500"))

	compensated, ok := err.Details["compensated"].([]string)
	if !ok {
		t.Fatal("expected compensated detail")
	}
	if len(compensated) != 2 {
		t.Errorf("expected 2 compensated steps, got %d", len(compensated))
	}
	if err.Details["step"] != "activate_workflow" {
		t.Errorf("unexpected step detail: %v", err.Details["step"])
	}
}
