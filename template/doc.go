// Package template scores previously verified workflow graphs against an
// extracted intent. A sufficiently strong match short-circuits generation
// entirely; weaker matches are passed to the generation orchestrator as
// grounding context. Scoring weights and the short-circuit threshold are
// policy, supplied by configuration.
package template
