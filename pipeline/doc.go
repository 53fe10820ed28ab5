// Package pipeline orchestrates the path from a natural-language request
// to a deployed workflow: intent extraction, capability precheck, template
// matching, provider generation, layered validation with a bounded
// auto-fix loop, and saga deployment. Every terminal path, success or
// failure, records a feedback entry.
package pipeline
