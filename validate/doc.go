// Package validate checks generated workflow graphs before deployment, in
// three escalating stages: structural validation against the capability
// catalog, an engine dry-run that submits and immediately removes the
// workflow, and a simulated execution with sample input. Dry-run and
// simulation artifacts are always deleted from the engine, on every exit
// path, so validation never leaks workflows.
package validate
