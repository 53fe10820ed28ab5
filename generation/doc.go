// Package generation drives external workflow-generation providers. The
// orchestrator walks providers in priority order, each behind its own
// circuit breaker, and enforces the structured-output contract: provider
// output must decode as a workflow graph and reference only node types from
// the capability grounding supplied in the prompt. Anything less counts as
// a provider failure and moves on to the next provider.
package generation
