// Package repair diagnoses validation and execution failures and applies
// bounded automatic fixes. Fixes always operate on a clone of the failing
// graph; the caller re-validates the result and decides whether to keep it.
// Failures the fixer cannot address are reported as diagnoses so they reach
// the feedback store with the raw error intact.
package repair
