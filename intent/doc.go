// Package intent parses a free-text automation request into a structured
// intent: the primary action, the integrations mentioned, the trigger kind,
// a complexity estimate, and a domain tag. Extraction is deterministic
// rule/keyword matching with no external calls; the complexity score is a
// ranking signal only, never a hard gate.
package intent
