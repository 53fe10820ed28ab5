package generation

import (
	"context"
	"time"
)

// Request is the input to one provider call.
type Request struct {
	// Prompt is the full generation prompt, including capability grounding
	// and any template context.
	Prompt string
	// SchemaContext is the JSON schema the output must satisfy, passed to
	// providers that support structured output natively.
	SchemaContext string
	// Temperature controls randomness. Implementations should lean
	// deterministic to maximize first-pass validity.
	Temperature float64
}

// Response is one provider's raw output.
type Response struct {
	// Raw is the provider's output, expected to be a workflow graph
	// document.
	Raw []byte
	// Model names the model that produced the output, if known.
	Model string
}

// Provider is the interface generation backends must implement. No
// assumption is made about the backing model; the orchestrator enforces the
// structured-output contract on every response.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
	// Generate produces a raw workflow graph document for the prompt.
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Attempt is one append-only log entry per provider call, used for
// circuit-breaker accounting and feedback.
type Attempt struct {
	ID           string        `json:"id"`
	Provider     string        `json:"provider"`
	PromptDigest string        `json:"prompt_digest"`
	ParseOK      bool          `json:"parse_ok"`
	Skipped      bool          `json:"skipped,omitempty"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}
