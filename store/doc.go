// Package store persists deployment records and feedback entries.
// Deployment records back saga idempotency and compensation; feedback
// entries capture what each request produced and why it failed, for later
// template mining. Two implementations ship: an in-memory store for tests
// and single-node setups, and a Postgres store for everything else.
package store
